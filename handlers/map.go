package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skywatch/backend/database"
	"github.com/skywatch/backend/models"
	"github.com/skywatch/backend/services"
)

// GetMapLayers handles GET /api/v1/map/layers - the declarative scene
// description the dashboard map renders from
func GetMapLayers(c *gin.Context) {
	var incidents []models.Incident
	if err := database.DB.Where("status <> ?", models.AlertStatusResolved).
		Order("created_at DESC").
		Limit(200).
		Find(&incidents).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch incidents"})
		return
	}

	layers := services.BuildMapLayers(droneLink.Status(), incidents)
	c.JSON(http.StatusOK, gin.H{"layers": layers})
}
