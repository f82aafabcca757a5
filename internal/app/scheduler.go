/**
 * @description
 * This file wires the service's periodic maintenance jobs onto a cron
 * scheduler: sweeping expired wizard sessions and clearing lapsed bank
 * directory cache entries.
 *
 * @dependencies
 * - github.com/robfig/cron/v3: The cron scheduler.
 */
package app

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the periodic maintenance jobs.
type Scheduler struct {
	cron    *cron.Cron
	service *VerificationService
}

// NewScheduler creates a scheduler with the maintenance jobs registered.
func NewScheduler(service *VerificationService) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	s := &Scheduler{cron: c, service: service}

	// Idle wizard sessions are discarded, matching the contract that no
	// partial session outlives the wizard.
	if _, err := c.AddFunc("@every 5m", func() {
		service.SweepSessions()
	}); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := service.ClearExpiredBankCache(ctx); err != nil {
			log.Printf("Bank cache cleanup error: %v", err)
		}
	}); err != nil {
		return nil, err
	}

	return s, nil
}

// Start launches the scheduler in its own goroutines.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("Maintenance scheduler started")
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
