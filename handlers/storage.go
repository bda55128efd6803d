package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/lh20005/geo-xi-tong-sub000/config"
	"github.com/lh20005/geo-xi-tong-sub000/services"
	"github.com/lh20005/geo-xi-tong-sub000/utils"

	"github.com/gin-gonic/gin"
)

type RecordUsageRequest struct {
	ResourceType string `json:"resource_type" binding:"required"`
	ResourceID   uint   `json:"resource_id"`
	SizeBytes    int64  `json:"size_bytes" binding:"required,min=0"`
	Metadata     string `json:"metadata"`
}

// GetUsage returns the caller's usage summary, served from cache when fresh.
func GetUsage(c *gin.Context) {
	userID := c.GetUint("user_id")
	usage, err := getServices().Usage.GetUsage(c.Request.Context(), userID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, usage)
}

func GetBreakdown(c *gin.Context) {
	userID := c.GetUint("user_id")
	breakdown, err := getServices().Usage.GetBreakdown(c.Request.Context(), userID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, breakdown)
}

type CheckQuotaRequest struct {
	ResourceType  string `json:"resource_type"`
	FileSizeBytes *int64 `json:"file_size_bytes"`
}

// CheckQuota evaluates a prospective upload. Validation order: parameters,
// then the per-type size ceiling, then the quota itself.
func CheckQuota(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req CheckQuotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.ResourceType == "" {
		utils.Error(c, http.StatusBadRequest, "resource_type is required")
		return
	}
	if req.FileSizeBytes == nil {
		utils.Error(c, http.StatusBadRequest, "file_size_bytes is required")
		return
	}
	fileSize := *req.FileSizeBytes
	if fileSize < 0 {
		utils.Error(c, http.StatusBadRequest, "file_size_bytes must not be negative")
		return
	}

	quota := getServices().Quota

	validation := quota.ValidateFileSize(req.ResourceType, fileSize)
	if !validation.Valid {
		utils.ErrorWithData(c, http.StatusRequestEntityTooLarge, validation.Reason, validation)
		return
	}

	check, err := quota.CheckQuota(c.Request.Context(), userID, fileSize)
	if respondServiceError(c, err) {
		return
	}
	if !check.Allowed {
		utils.ErrorWithData(c, http.StatusForbidden, check.Reason, check)
		return
	}
	utils.Success(c, check)
}

func RecordUsage(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req RecordUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	err := getServices().Usage.RecordUsage(c.Request.Context(), services.RecordUsageInput{
		UserID:       userID,
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		SizeBytes:    req.SizeBytes,
		Metadata:     req.Metadata,
	})
	if respondServiceError(c, err) {
		return
	}

	usage, err := getServices().Usage.GetUsageFresh(c.Request.Context(), userID)
	if respondServiceError(c, err) {
		return
	}
	utils.SuccessWithMessage(c, "usage recorded", usage)
}

func RemoveUsage(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req RecordUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	err := getServices().Usage.RemoveUsage(c.Request.Context(), services.RecordUsageInput{
		UserID:       userID,
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		SizeBytes:    req.SizeBytes,
		Metadata:     req.Metadata,
	})
	if respondServiceError(c, err) {
		return
	}

	usage, err := getServices().Usage.GetUsageFresh(c.Request.Context(), userID)
	if respondServiceError(c, err) {
		return
	}
	utils.SuccessWithMessage(c, "usage removed", usage)
}

func ListTransactions(c *gin.Context) {
	userID := c.GetUint("user_id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))

	out, err := getServices().Usage.ListTransactions(c.Request.Context(), userID, page, pageSize)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, out)
}

func GetHistory(c *gin.Context) {
	userID := c.GetUint("user_id")
	start, end, err := parseDateRange(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := getServices().History.GetHistory(c.Request.Context(), userID, start, end)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, entries)
}

func GetGrowthRate(c *gin.Context) {
	userID := c.GetUint("user_id")
	period := c.DefaultQuery("period", "daily")

	out, err := getServices().History.GetGrowthRate(c.Request.Context(), userID, period)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, out)
}

func ExportHistory(c *gin.Context) {
	userID := c.GetUint("user_id")
	start, end, err := parseDateRange(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	csv, err := getServices().History.ExportHistoryCSV(c.Request.Context(), userID, start, end)
	if respondServiceError(c, err) {
		return
	}

	filename := fmt.Sprintf("storage-history-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", csv)
}

func ListPendingAlerts(c *gin.Context) {
	userID := c.GetUint("user_id")
	alerts, err := getServices().Alert.ListPendingAlerts(c.Request.Context(), userID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, alerts)
}

// parseDateRange reads start_date/end_date query dates (YYYY-MM-DD),
// defaulting to the last 30 days.
func parseDateRange(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -config.AppConfig.Accounting.DefaultHistoryDays)
	end := now

	if raw := c.Query("start_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %s", raw)
		}
		start = parsed
	}
	if raw := c.Query("end_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date: %s", raw)
		}
		end = parsed
	}
	return start, end, nil
}
