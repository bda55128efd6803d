package handlers

import (
	"github.com/lh20005/geo-xi-tong-sub000/utils"

	"github.com/gin-gonic/gin"
)

func HealthCheck(c *gin.Context) {
	utils.Success(c, gin.H{
		"status":  "ok",
		"service": "storage-ledger",
	})
}
