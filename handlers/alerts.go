package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skywatch/backend/database"
	"github.com/skywatch/backend/models"
)

// AlertResponse is the dashboard view of an incident. Confidence is
// stored internally as a fraction; the percentage the dashboard shows is
// derived here, at the presentation boundary only.
type AlertResponse struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Timestamp   time.Time            `json:"timestamp"`
	Severity    models.AlertSeverity `json:"severity"`
	Confidence  int                  `json:"confidence"` // percent 0-100
	Location    string               `json:"location"`
	Status      models.AlertStatus   `json:"status"`
	Type        string               `json:"type"`
	Coordinates *Coordinates         `json:"coordinates,omitempty"`
}

// Coordinates is a lat/lng pair
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func toAlertResponse(inc models.Incident) AlertResponse {
	resp := AlertResponse{
		ID:          inc.ExternalID,
		Title:       inc.Title,
		Description: inc.Description,
		Timestamp:   inc.CreatedAt,
		Severity:    inc.Severity,
		Confidence:  int(math.Round(inc.Confidence * 100)),
		Location:    inc.Location,
		Status:      inc.Status,
		Type:        inc.IncidentType,
	}
	if inc.Latitude != nil && inc.Longitude != nil {
		resp.Coordinates = &Coordinates{Lat: *inc.Latitude, Lng: *inc.Longitude}
	}
	return resp
}

func findIncident(c *gin.Context) (*models.Incident, bool) {
	var inc models.Incident
	if err := database.DB.Where("external_id = ?", c.Param("id")).First(&inc).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		return nil, false
	}
	return &inc, true
}

// GetAlerts handles GET /api/v1/alerts with optional filtering
func GetAlerts(c *gin.Context) {
	query := database.DB.Model(&models.Incident{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if severity := c.Query("severity"); severity != "" {
		query = query.Where("severity = ?", severity)
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 {
		limit = 100
	}

	var incidents []models.Incident
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&incidents).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch alerts"})
		return
	}

	alerts := make([]AlertResponse, len(incidents))
	for i, inc := range incidents {
		alerts[i] = toAlertResponse(inc)
	}
	c.JSON(http.StatusOK, alerts)
}

// GetAlert handles GET /api/v1/alerts/:id
func GetAlert(c *gin.Context) {
	inc, ok := findIncident(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toAlertResponse(*inc))
}

// CreateAlertRequest is the payload for manual alert creation. Confidence
// arrives as a percentage, matching what the dashboard displays.
type CreateAlertRequest struct {
	Title       string       `json:"title" binding:"required"`
	Description string       `json:"description"`
	Severity    string       `json:"severity" binding:"required"`
	Confidence  float64      `json:"confidence"`
	Location    string       `json:"location"`
	Type        string       `json:"type" binding:"required"`
	Coordinates *Coordinates `json:"coordinates"`
}

// CreateAlert handles POST /api/v1/alerts
func CreateAlert(c *gin.Context) {
	var req CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	confidence := req.Confidence
	if confidence > 1 {
		confidence = confidence / 100
	}

	inc := models.Incident{
		ExternalID:   fmt.Sprintf("alert_%s", uuid.New().String()[:8]),
		Title:        req.Title,
		Description:  req.Description,
		IncidentType: req.Type,
		Severity:     models.AlertSeverity(req.Severity),
		Confidence:   confidence,
		Location:     req.Location,
		Status:       models.AlertStatusNew,
	}
	if req.Coordinates != nil {
		inc.Latitude = &req.Coordinates.Lat
		inc.Longitude = &req.Coordinates.Lng
	}

	if err := database.DB.Create(&inc).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create alert"})
		return
	}
	c.JSON(http.StatusOK, toAlertResponse(inc))
}

// UpdateAlertRequest allows changing status or severity
type UpdateAlertRequest struct {
	Status   *models.AlertStatus   `json:"status"`
	Severity *models.AlertSeverity `json:"severity"`
}

// UpdateAlert handles PUT /api/v1/alerts/:id
func UpdateAlert(c *gin.Context) {
	inc, ok := findIncident(c)
	if !ok {
		return
	}

	var req UpdateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.Status != nil {
		inc.Status = *req.Status
		if inc.Status == models.AlertStatusResolved {
			now := time.Now()
			inc.ResolvedAt = &now
		}
	}
	if req.Severity != nil {
		inc.Severity = *req.Severity
	}

	if err := database.DB.Save(inc).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update alert"})
		return
	}
	c.JSON(http.StatusOK, toAlertResponse(*inc))
}

// AcknowledgeAlert handles POST /api/v1/alerts/:id/acknowledge.
// Transitions exactly the target alert new -> acknowledged.
func AcknowledgeAlert(c *gin.Context) {
	inc, ok := findIncident(c)
	if !ok {
		return
	}

	if inc.Status == models.AlertStatusResolved {
		c.JSON(http.StatusConflict, gin.H{"error": "Alert is already resolved"})
		return
	}

	inc.Status = models.AlertStatusAcknowledged
	if err := database.DB.Save(inc).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to acknowledge alert"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Alert acknowledged", "alert_id": inc.ExternalID})
}

// ResolveAlert handles POST /api/v1/alerts/:id/resolve
func ResolveAlert(c *gin.Context) {
	inc, ok := findIncident(c)
	if !ok {
		return
	}

	now := time.Now()
	inc.Status = models.AlertStatusResolved
	inc.ResolvedAt = &now
	if err := database.DB.Save(inc).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve alert"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Alert resolved", "alert_id": inc.ExternalID})
}

// GetAlertStats handles GET /api/v1/alerts/stats/summary
func GetAlertStats(c *gin.Context) {
	var total, newCount, critical int64
	database.DB.Model(&models.Incident{}).Count(&total)
	database.DB.Model(&models.Incident{}).Where("status = ?", models.AlertStatusNew).Count(&newCount)
	database.DB.Model(&models.Incident{}).Where("severity = ?", models.AlertSeverityCritical).Count(&critical)

	var typeCounts []struct {
		IncidentType string
		Count        int64
	}
	database.DB.Model(&models.Incident{}).
		Select("incident_type, COUNT(*) as count").
		Group("incident_type").
		Scan(&typeCounts)

	byType := make(map[string]int64, len(typeCounts))
	for _, tc := range typeCounts {
		byType[tc.IncidentType] = tc.Count
	}

	var avgConfidence float64
	database.DB.Model(&models.Incident{}).
		Select("COALESCE(AVG(confidence), 0)").
		Scan(&avgConfidence)

	c.JSON(http.StatusOK, gin.H{
		"total_alerts":       total,
		"new_alerts":         newCount,
		"critical_alerts":    critical,
		"alerts_by_type":     byType,
		"average_confidence": int(math.Round(avgConfidence * 100)),
	})
}
