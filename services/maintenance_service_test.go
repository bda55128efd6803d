package services

import (
	"context"
	"testing"
	"time"

	"github.com/lh20005/geo-xi-tong-sub000/models"
)

func TestMaintenanceServiceRunDailySnapshots(t *testing.T) {
	setTestConfig()
	accounts := newFakeAccountRepo()
	accounts.put(models.StorageAccount{UserID: 1, ImageBytes: 10, QuotaBaseBytes: 10000})
	accounts.put(models.StorageAccount{UserID: 2, ImageBytes: 20, QuotaBaseBytes: 10000})
	snapshots := newFakeSnapshotRepo()
	history := NewHistoryService(accounts, snapshots)
	svc := NewMaintenanceService(history, newFakeAlertRepo(), snapshots)

	count, err := svc.RunDailySnapshots(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 snapshots, got %d", count)
	}
}

func TestMaintenanceServiceCleanupExpired(t *testing.T) {
	setTestConfig()
	alerts := newFakeAlertRepo()
	alerts.alerts = []models.StorageAlert{
		{ID: 1, UserID: 1, AlertType: models.AlertTypeWarning, CreatedAt: time.Now().AddDate(0, 0, -91)},
		{ID: 2, UserID: 1, AlertType: models.AlertTypeWarning, CreatedAt: time.Now()},
	}
	snapshots := newFakeSnapshotRepo()
	snapshots.seed(1, 366, 100, 0, 0)
	snapshots.seed(1, 1, 200, 0, 0)

	history := NewHistoryService(newFakeAccountRepo(), snapshots)
	svc := NewMaintenanceService(history, alerts, snapshots)

	if err := svc.CleanupExpired(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(alerts.alerts) != 1 || alerts.alerts[0].ID != 2 {
		t.Fatalf("expected only the recent alert to survive, got %+v", alerts.alerts)
	}
	if len(snapshots.snapshots) != 1 {
		t.Fatalf("expected only the recent snapshot to survive, got %d", len(snapshots.snapshots))
	}
}
