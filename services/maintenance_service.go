package services

import (
	"context"
	"log"
	"time"

	"github.com/lh20005/geo-xi-tong-sub000/config"
	"github.com/lh20005/geo-xi-tong-sub000/repositories"
)

// MaintenanceService runs the periodic housekeeping work: daily usage
// snapshots and retention cleanup of old alerts and snapshots.
type MaintenanceService interface {
	StartWorkers()
	RunDailySnapshots(ctx context.Context) (int, error)
	CleanupExpired(ctx context.Context) error
}

type maintenanceService struct {
	history   HistoryService
	alerts    repositories.AlertRepository
	snapshots repositories.SnapshotRepository
}

func NewMaintenanceService(
	history HistoryService,
	alerts repositories.AlertRepository,
	snapshots repositories.SnapshotRepository,
) MaintenanceService {
	return &maintenanceService{history: history, alerts: alerts, snapshots: snapshots}
}

func (s *maintenanceService) StartWorkers() {
	go s.snapshotLoop()
	go s.cleanupLoop()
}

func (s *maintenanceService) snapshotLoop() {
	interval := time.Duration(config.AppConfig.Accounting.SnapshotIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		count, err := s.RunDailySnapshots(context.Background())
		if err != nil {
			log.Printf("daily snapshot run failed: %v", err)
			continue
		}
		log.Printf("daily snapshot run complete: %d accounts", count)
	}
}

func (s *maintenanceService) RunDailySnapshots(ctx context.Context) (int, error) {
	return s.history.SnapshotAllAccounts(ctx)
}

func (s *maintenanceService) cleanupLoop() {
	interval := time.Duration(config.AppConfig.Accounting.CleanupIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		if err := s.CleanupExpired(context.Background()); err != nil {
			log.Printf("retention cleanup failed: %v", err)
		}
	}
}

func (s *maintenanceService) CleanupExpired(ctx context.Context) error {
	now := time.Now()

	alertCutoff := now.AddDate(0, 0, -config.AppConfig.Accounting.AlertRetentionDays)
	removedAlerts, err := s.alerts.DeleteCreatedBefore(ctx, nil, alertCutoff)
	if err != nil {
		return err
	}

	snapshotCutoff := now.AddDate(0, 0, -config.AppConfig.Accounting.SnapshotRetentionDays)
	removedSnapshots, err := s.snapshots.DeleteDatedBefore(ctx, nil, snapshotCutoff)
	if err != nil {
		return err
	}

	if removedAlerts > 0 || removedSnapshots > 0 {
		log.Printf("retention cleanup removed %d alerts and %d snapshots", removedAlerts, removedSnapshots)
	}
	return nil
}
