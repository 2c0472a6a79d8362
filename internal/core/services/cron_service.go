package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// CronService schedules the recurring late fee run
type CronService struct {
	cron       *cron.Cron
	lateFeeSvc *LateFeeService
	schedule   string
}

// NewCronService creates a new cron service
func NewCronService(lateFeeSvc *LateFeeService, schedule string) *CronService {
	return &CronService{
		cron:       cron.New(),
		lateFeeSvc: lateFeeSvc,
		schedule:   schedule,
	}
}

// Start registers the late fee job and starts the scheduler
func (s *CronService) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.runLateFees)
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("✅ Cron started: late fees on schedule %q", s.schedule)
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("ℹ️ Cron stopped")
}

func (s *CronService) runLateFees() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := s.lateFeeSvc.Run(ctx); err != nil {
		log.Printf("❌ Scheduled late fee run failed: %v", err)
	}
}
