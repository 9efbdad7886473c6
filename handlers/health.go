package handlers

import (
	"net/http"
	"time"

	"github.com/hakikicode/SmartDesign/repository"

	"github.com/gin-gonic/gin"
)

const Version = "1.0.0"

// HealthCheck reports liveness together with the size of the update log.
func HealthCheck(repo *repository.UpdatesRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   Version,
			"updates":   repo.Len(),
			"lastId":    repo.LastID(),
		})
	}
}
