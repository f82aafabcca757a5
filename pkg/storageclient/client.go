/**
 * @description
 * This package provides the upload adapter: a client for the 4Zee file
 * storage service. It streams a file as a multipart request and returns the
 * stable {url, fileName} handle the verification submission requires.
 *
 * Key features:
 * - Tags every upload with a logical category (e.g. KYC_DOCUMENT) so the
 *   storage service can apply retention rules.
 * - Returns the filename the platform will recognize later; the URL alone is
 *   insufficient because the backend matches by filename for display.
 * - Classifies failures as upload errors so the caller can roll back any
 *   locally held preview state.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, io, mime/multipart, net/http, time: Standard Go libraries.
 * - The service's internal domain package for the UploadResult model and error taxonomy.
 */
package storageclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/4zee/verification-service/internal/domain"
)

// Category tags applied to uploads.
const (
	CategoryKycDocument = "KYC_DOCUMENT"
)

// Client is a client for the file storage service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new storage service client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			// Uploads carry file bodies, so allow more headroom than API calls.
			Timeout: 60 * time.Second,
		},
	}
}

type uploadResponse struct {
	Data struct {
		URL      string `json:"url"`
		FileName string `json:"file_name"`
	} `json:"data"`
}

// Upload stores a file remotely and returns its stable handle. On any
// failure the caller must discard local preview state for the slot; the file
// is not stored.
func (c *Client) Upload(ctx context.Context, category, fileName, contentType string, file io.Reader) (*domain.UploadResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("category", category); err != nil {
		return nil, domain.WrapError(domain.ErrUpload, "Could not prepare the upload.", err)
	}

	part, err := writer.CreatePart(fileHeader(fileName, contentType))
	if err != nil {
		return nil, domain.WrapError(domain.ErrUpload, "Could not prepare the upload.", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, domain.WrapError(domain.ErrUpload, "Could not read the selected file.", err)
	}
	if err := writer.Close(); err != nil {
		return nil, domain.WrapError(domain.ErrUpload, "Could not prepare the upload.", err)
	}

	url := fmt.Sprintf("%s/api/v1/files", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-4Zee-Service-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrUpload, "Upload failed. Please try again.", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusRequestEntityTooLarge {
		return nil, domain.NewError(domain.ErrUpload, "The selected file is too large.")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.WrapError(domain.ErrUpload, "Upload failed. Please try again.",
			fmt.Errorf("storage API error: status %d, body: %s", resp.StatusCode, respBody))
	}

	var parsed uploadResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response body: %w", err)
	}
	if parsed.Data.URL == "" || parsed.Data.FileName == "" {
		return nil, domain.NewError(domain.ErrUpload, "Upload failed. Please try again.")
	}

	return &domain.UploadResult{
		URL:      parsed.Data.URL,
		FileName: parsed.Data.FileName,
	}, nil
}

func fileHeader(fileName, contentType string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(fileName)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	return h
}

func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, `\"`).Replace(s)
}
