package handlers

import (
	"net/http"
	"strconv"

	"github.com/lh20005/geo-xi-tong-sub000/utils"

	"github.com/gin-gonic/gin"
)

type UpdateQuotaRequest struct {
	QuotaBytes int64 `json:"quota_bytes" binding:"required,min=-1"`
}

type AddPurchasedRequest struct {
	AdditionalBytes int64 `json:"additional_bytes" binding:"required,min=1"`
}

type InitializeAccountRequest struct {
	QuotaBytes *int64 `json:"quota_bytes"`
}

func targetUserID(c *gin.Context) (uint, bool) {
	raw, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil || raw == 0 {
		utils.Error(c, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return uint(raw), true
}

// UpdateUserQuota replaces a user's base quota. -1 means unlimited.
func UpdateUserQuota(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}

	var req UpdateQuotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if err := getServices().Quota.UpdateQuota(c.Request.Context(), userID, req.QuotaBytes); respondServiceError(c, err) {
		return
	}

	effective, err := getServices().Quota.GetEffectiveQuota(c.Request.Context(), userID)
	if respondServiceError(c, err) {
		return
	}
	utils.SuccessWithMessage(c, "quota updated", gin.H{"effective_quota_bytes": effective})
}

// AddPurchasedStorage grants additional purchased bytes on top of the base
// quota. Purchases accumulate.
func AddPurchasedStorage(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}

	var req AddPurchasedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if err := getServices().Quota.AddPurchased(c.Request.Context(), userID, req.AdditionalBytes); respondServiceError(c, err) {
		return
	}

	effective, err := getServices().Quota.GetEffectiveQuota(c.Request.Context(), userID)
	if respondServiceError(c, err) {
		return
	}
	utils.SuccessWithMessage(c, "purchased storage added", gin.H{"effective_quota_bytes": effective})
}

func InitializeAccount(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}

	var req InitializeAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if err := getServices().Usage.InitializeAccount(c.Request.Context(), userID, req.QuotaBytes); respondServiceError(c, err) {
		return
	}
	utils.SuccessWithMessage(c, "account initialized", nil)
}

// ReconcileUser compares the ledger against live resource rows and reports
// any drift without correcting it.
func ReconcileUser(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}

	out, err := getServices().Reconcile.Reconcile(c.Request.Context(), userID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, out)
}

// SnapshotUser takes an immediate snapshot of one account.
func SnapshotUser(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}

	if err := getServices().History.CreateDailySnapshot(c.Request.Context(), userID); respondServiceError(c, err) {
		return
	}
	utils.SuccessWithMessage(c, "snapshot created", nil)
}

// RunSnapshots triggers the daily snapshot pass on demand.
func RunSnapshots(c *gin.Context) {
	count, err := getServices().Maintenance.RunDailySnapshots(c.Request.Context())
	if respondServiceError(c, err) {
		return
	}
	utils.SuccessWithMessage(c, "snapshots created", gin.H{"accounts": count})
}
