package services

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/lh20005/geo-xi-tong-sub000/models"
	"github.com/lh20005/geo-xi-tong-sub000/repositories"
)

type ReconcileTypeReport struct {
	ResourceType  string `json:"resource_type"`
	RecordedBytes int64  `json:"recorded_bytes"`
	ActualBytes   int64  `json:"actual_bytes"`
	DriftBytes    int64  `json:"drift_bytes"`
	RecordedCount int64  `json:"recorded_count"`
	ActualCount   int64  `json:"actual_count"`
}

type ReconcileOutput struct {
	UserID           uint                  `json:"user_id"`
	Consistent       bool                  `json:"consistent"`
	RecordedBytes    int64                 `json:"recorded_bytes"`
	ActualBytes      int64                 `json:"actual_bytes"`
	DiscrepancyBytes int64                 `json:"discrepancy_bytes"`
	Types            []ReconcileTypeReport `json:"types"`
	CheckedAt        time.Time             `json:"checked_at"`
}

// ReconcileService compares the ledger's counters against live resource rows.
// It only reports drift; correcting the ledger stays a manual decision.
type ReconcileService interface {
	Reconcile(ctx context.Context, userID uint) (ReconcileOutput, error)
}

type reconcileService struct {
	accounts  repositories.AccountRepository
	resources repositories.ResourceRepository
}

func NewReconcileService(
	accounts repositories.AccountRepository,
	resources repositories.ResourceRepository,
) ReconcileService {
	return &reconcileService{accounts: accounts, resources: resources}
}

func (s *reconcileService) Reconcile(ctx context.Context, userID uint) (ReconcileOutput, error) {
	account, err := getOrCreateAccount(ctx, s.accounts, userID)
	if err != nil {
		return ReconcileOutput{}, err
	}

	tallies, err := s.resources.SumByUser(ctx, nil, userID)
	if err != nil {
		return ReconcileOutput{}, newAppError(http.StatusInternalServerError, "failed to tally live resources", err)
	}

	out := ReconcileOutput{
		UserID:    userID,
		CheckedAt: time.Now(),
	}

	for _, item := range []struct {
		resourceType  string
		recordedBytes int64
		recordedCount int64
	}{
		{models.ResourceTypeImage, account.ImageBytes, account.ImageCount},
		{models.ResourceTypeDocument, account.DocumentBytes, account.DocumentCount},
		{models.ResourceTypeArticle, account.ArticleBytes, account.ArticleCount},
	} {
		tally := tallies[item.resourceType]
		out.Types = append(out.Types, ReconcileTypeReport{
			ResourceType:  item.resourceType,
			RecordedBytes: item.recordedBytes,
			ActualBytes:   tally.SizeBytes,
			DriftBytes:    item.recordedBytes - tally.SizeBytes,
			RecordedCount: item.recordedCount,
			ActualCount:   tally.Count,
		})
		out.RecordedBytes += item.recordedBytes
		out.ActualBytes += tally.SizeBytes
	}

	out.DiscrepancyBytes = out.RecordedBytes - out.ActualBytes
	if out.DiscrepancyBytes < 0 {
		out.DiscrepancyBytes = -out.DiscrepancyBytes
	}
	out.Consistent = out.DiscrepancyBytes == 0

	if !out.Consistent {
		log.Printf("storage drift for user %d: recorded=%d actual=%d", userID, out.RecordedBytes, out.ActualBytes)
	}
	return out, nil
}
