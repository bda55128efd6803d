package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/lh20005/geo-xi-tong-sub000/models"
	"github.com/lh20005/geo-xi-tong-sub000/repositories"
)

type HistoryEntry struct {
	Date          time.Time `json:"date"`
	TotalBytes    int64     `json:"total_bytes"`
	ImageBytes    int64     `json:"image_bytes"`
	DocumentBytes int64     `json:"document_bytes"`
	ArticleBytes  int64     `json:"article_bytes"`
}

type GrowthRateOutput struct {
	Period             string    `json:"period"`
	DaysAnalyzed       int       `json:"days_analyzed"`
	GrowthBytes        int64     `json:"growth_bytes"`
	GrowthRate         float64   `json:"growth_rate"`
	FastestGrowingType string    `json:"fastest_growing_type"`
	FastestGrowthBytes int64     `json:"fastest_growth_bytes"`
	ImageGrowth        int64     `json:"image_growth"`
	DocumentGrowth     int64     `json:"document_growth"`
	ArticleGrowth      int64     `json:"article_growth"`
	StartDate          time.Time `json:"start_date,omitempty"`
	EndDate            time.Time `json:"end_date,omitempty"`
	Message            string    `json:"message,omitempty"`
}

type HistoryService interface {
	// CreateDailySnapshot upserts today's snapshot; re-running within the
	// same day overwrites instead of duplicating.
	CreateDailySnapshot(ctx context.Context, userID uint) error
	SnapshotAllAccounts(ctx context.Context) (int, error)
	GetHistory(ctx context.Context, userID uint, start time.Time, end time.Time) ([]HistoryEntry, error)
	GetGrowthRate(ctx context.Context, userID uint, period string) (GrowthRateOutput, error)
	ExportHistoryCSV(ctx context.Context, userID uint, start time.Time, end time.Time) ([]byte, error)
}

type historyService struct {
	accounts  repositories.AccountRepository
	snapshots repositories.SnapshotRepository
}

func NewHistoryService(
	accounts repositories.AccountRepository,
	snapshots repositories.SnapshotRepository,
) HistoryService {
	return &historyService{accounts: accounts, snapshots: snapshots}
}

func (s *historyService) CreateDailySnapshot(ctx context.Context, userID uint) error {
	account, err := getOrCreateAccount(ctx, s.accounts, userID)
	if err != nil {
		return err
	}

	snapshot := models.StorageSnapshot{
		UserID:        userID,
		SnapshotDate:  snapshotDay(time.Now()),
		ImageBytes:    account.ImageBytes,
		DocumentBytes: account.DocumentBytes,
		ArticleBytes:  account.ArticleBytes,
		TotalBytes:    account.TotalBytes(),
	}
	if err := s.snapshots.Upsert(ctx, nil, &snapshot); err != nil {
		return newAppError(http.StatusInternalServerError, "failed to create storage snapshot", err)
	}
	return nil
}

func (s *historyService) SnapshotAllAccounts(ctx context.Context) (int, error) {
	userIDs, err := s.accounts.ListUserIDs(ctx, nil)
	if err != nil {
		return 0, newAppError(http.StatusInternalServerError, "failed to list storage accounts", err)
	}

	count := 0
	for _, userID := range userIDs {
		if err := s.CreateDailySnapshot(ctx, userID); err != nil {
			log.Printf("daily snapshot failed for user %d: %v", userID, err)
			continue
		}
		count++
	}
	return count, nil
}

func (s *historyService) GetHistory(ctx context.Context, userID uint, start time.Time, end time.Time) ([]HistoryEntry, error) {
	if end.Before(start) {
		return nil, newValidationError("end date must not be before start date")
	}

	snapshots, err := s.snapshots.ListByUserAndRange(ctx, nil, userID, start, end)
	if err != nil {
		return nil, newAppError(http.StatusInternalServerError, "failed to query storage history", err)
	}

	entries := make([]HistoryEntry, 0, len(snapshots))
	for _, snapshot := range snapshots {
		entries = append(entries, HistoryEntry{
			Date:          snapshot.SnapshotDate,
			TotalBytes:    snapshot.TotalBytes,
			ImageBytes:    snapshot.ImageBytes,
			DocumentBytes: snapshot.DocumentBytes,
			ArticleBytes:  snapshot.ArticleBytes,
		})
	}
	return entries, nil
}

func (s *historyService) GetGrowthRate(ctx context.Context, userID uint, period string) (GrowthRateOutput, error) {
	daysBack := 1
	switch period {
	case "weekly":
		daysBack = 7
	case "monthly":
		daysBack = 30
	case "", "daily":
		period = "daily"
	default:
		return GrowthRateOutput{}, newValidationError("unknown period: " + period)
	}

	now := time.Now()
	start := snapshotDay(now.AddDate(0, 0, -(daysBack + 1)))
	snapshots, err := s.snapshots.ListByUserAndRange(ctx, nil, userID, start, snapshotDay(now))
	if err != nil {
		return GrowthRateOutput{}, newAppError(http.StatusInternalServerError, "failed to query storage history", err)
	}

	if len(snapshots) < 2 {
		return GrowthRateOutput{
			Period:  period,
			Message: "not enough history to compute a growth rate",
		}, nil
	}

	oldest := snapshots[0]
	newest := snapshots[len(snapshots)-1]

	out := GrowthRateOutput{
		Period:         period,
		DaysAnalyzed:   len(snapshots) - 1,
		GrowthBytes:    newest.TotalBytes - oldest.TotalBytes,
		ImageGrowth:    newest.ImageBytes - oldest.ImageBytes,
		DocumentGrowth: newest.DocumentBytes - oldest.DocumentBytes,
		ArticleGrowth:  newest.ArticleBytes - oldest.ArticleBytes,
		StartDate:      oldest.SnapshotDate,
		EndDate:        newest.SnapshotDate,
	}
	if oldest.TotalBytes > 0 {
		out.GrowthRate = roundPercent(float64(out.GrowthBytes) / float64(oldest.TotalBytes) * 100)
	}
	out.FastestGrowingType, out.FastestGrowthBytes = fastestGrowingType(out.ImageGrowth, out.DocumentGrowth, out.ArticleGrowth)

	return out, nil
}

func (s *historyService) ExportHistoryCSV(ctx context.Context, userID uint, start time.Time, end time.Time) ([]byte, error) {
	entries, err := s.GetHistory(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString("Date,Total (MB),Images (MB),Documents (MB),Articles (MB)\n")
	for _, entry := range entries {
		fmt.Fprintf(&buf, "%s,%.2f,%.2f,%.2f,%.2f\n",
			entry.Date.Format("2006-01-02"),
			toMB(entry.TotalBytes),
			toMB(entry.ImageBytes),
			toMB(entry.DocumentBytes),
			toMB(entry.ArticleBytes),
		)
	}
	return buf.Bytes(), nil
}

// fastestGrowingType attributes growth to the resource type with the largest
// positive delta; "none" when nothing grew.
func fastestGrowingType(imageGrowth, documentGrowth, articleGrowth int64) (string, int64) {
	fastest := "none"
	var fastestBytes int64

	for _, candidate := range []struct {
		resourceType string
		growth       int64
	}{
		{models.ResourceTypeImage, imageGrowth},
		{models.ResourceTypeDocument, documentGrowth},
		{models.ResourceTypeArticle, articleGrowth},
	} {
		if candidate.growth > fastestBytes {
			fastest = candidate.resourceType
			fastestBytes = candidate.growth
		}
	}
	return fastest, fastestBytes
}

// snapshotDay truncates to a UTC calendar date so every snapshot of one day
// lands on the same unique key.
func snapshotDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func toMB(bytes int64) float64 {
	return float64(bytes) / 1024 / 1024
}
