package services

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// SchedulerService runs the recurring maintenance jobs: the nightly store
// backup and the due-verification reminder dispatch.
type SchedulerService struct {
	cron          *cron.Cron
	backups       *BackupService
	notifications *NotificationService
	horizonDays   int
}

// NewSchedulerService creates a SchedulerService over the given services.
func NewSchedulerService(backups *BackupService, notifications *NotificationService, horizonDays int) *SchedulerService {
	return &SchedulerService{
		cron:          cron.New(),
		backups:       backups,
		notifications: notifications,
		horizonDays:   horizonDays,
	}
}

// Start registers the jobs under the given cron spec and starts the
// scheduler. An empty spec disables scheduling.
func (s *SchedulerService) Start(spec string) error {
	if spec == "" {
		log.Println("⚠️  Backup schedule empty, automatic maintenance disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(spec, func() {
		log.Println("Running scheduled store backup")
		s.backups.CreateBackup()
	}); err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", spec, err)
	}

	if _, err := s.cron.AddFunc(spec, func() {
		if err := s.notifications.NotifyDueVerifications(s.horizonDays); err != nil {
			log.Printf("Reminder dispatch failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}

	s.cron.Start()
	log.Printf("✅ Maintenance scheduler started (%s)", spec)
	return nil
}

// Stop halts the scheduler, waiting for running jobs to finish.
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
