package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skywatch/backend/database"
	"github.com/skywatch/backend/inference"
	"github.com/skywatch/backend/models"
	"github.com/skywatch/backend/services"
)

const defaultConfidenceThreshold = 0.5

// bindDetectionRequest parses inference parameters with defaults
func bindDetectionRequest(c *gin.Context) (models.DetectionRequest, bool) {
	req := models.DetectionRequest{
		ConfidenceThreshold: defaultConfidenceThreshold,
		MaxDetections:       100,
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return req, false
		}
	}
	if req.ConfidenceThreshold <= 0 {
		req.ConfidenceThreshold = defaultConfidenceThreshold
	}
	if req.MaxDetections <= 0 {
		req.MaxDetections = 100
	}
	return req, true
}

// DetectVideo handles POST /api/v1/detect/video/:videoId - batch detection
func DetectVideo(c *gin.Context) {
	videoID := c.Param("videoId")

	req, ok := bindDetectionRequest(c)
	if !ok {
		return
	}

	result, err := inferenceClient.DetectVideo(c.Request.Context(), videoID, req)
	if err != nil {
		log.Printf("❌ Batch detection failed for video %s: %v", videoID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("Detection failed: %v", err)})
		return
	}

	result.Detections = services.FilterDetections(result.Detections, req.ConfidenceThreshold)
	result.Detections = services.NonMaxSuppression(result.Detections, 0.5)
	result.Detections = services.ApplySeverity(result.Detections)
	if req.MaxDetections > 0 && len(result.Detections) > req.MaxDetections {
		result.Detections = result.Detections[:req.MaxDetections]
	}
	result.VideoID = videoID

	// Record detection history
	now := time.Now()
	for _, d := range result.Detections {
		row := models.DetectionLog{
			ID:         d.ID,
			VideoID:    videoID,
			Label:      d.Label,
			Confidence: d.Confidence,
			Severity:   d.Severity,
			Location:   "Unknown",
			Status:     "active",
			Timestamp:  now,
		}
		if err := database.DB.Create(&row).Error; err != nil {
			log.Printf("⚠️ Failed to record detection %s: %v", d.ID, err)
		}
	}

	database.DB.Model(&models.VideoMetadata{}).
		Where("external_id = ?", videoID).
		Updates(map[string]interface{}{
			"status":                models.VideoStatusProcessed,
			"total_frames_analyzed": len(result.Detections),
		})

	c.JSON(http.StatusOK, result)
}

// StreamDetection handles POST /api/v1/detect/video/:videoId/stream.
// It opens a fresh session (cancelling any previous run for the video),
// consumes the inference service's NDJSON stream, applies every record to
// the session, publishes frame results on the internal bus for WebSocket
// viewers, and relays the NDJSON lines to the caller.
func StreamDetection(c *gin.Context) {
	videoID := c.Param("videoId")

	req, ok := bindDetectionRequest(c)
	if !ok {
		return
	}

	session := sessions.Start(videoID)

	// The run ends when either the session is replaced/stopped or the
	// dashboard client goes away
	ctx, cancel := context.WithCancel(session.Context())
	defer cancel()
	go func() {
		select {
		case <-c.Request.Context().Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	database.DB.Model(&models.VideoMetadata{}).
		Where("external_id = ?", videoID).
		Updates(map[string]interface{}{
			"status":                models.VideoStatusProcessing,
			"processing_started_at": time.Now(),
		})

	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)

	flusher, _ := c.Writer.(http.Flusher)
	writeLine := func(v interface{}) {
		line, err := json.Marshal(v)
		if err != nil {
			return
		}
		c.Writer.Write(append(line, '\n'))
		if flusher != nil {
			flusher.Flush()
		}
	}

	err := inferenceClient.StreamDetect(ctx, videoID, req, func(record models.StreamRecord) error {
		session.Apply(record)

		if record.Type == models.StreamTypeFrameResult && bus != nil {
			frame := record.FrameResult()
			if data, err := json.Marshal(frame); err == nil {
				if err := bus.Publish("detections.video."+videoID, data); err != nil {
					log.Printf("⚠️ Failed to publish frame result: %v", err)
				}
			}
		}

		writeLine(record)
		return nil
	})

	if err != nil {
		// Replaced, stopped, or the dashboard went away. The successor
		// session owns the video's processing state, so leave it alone.
		if errors.Is(err, context.Canceled) {
			log.Printf("🔄 Stream detection cancelled for video %s", videoID)
			return
		}

		msg := err.Error()
		if streamErr, ok := err.(*inference.StreamError); ok {
			msg = streamErr.Message
		}
		session.Fail(msg)
		markVideoFailed(videoID, msg)
		log.Printf("❌ Stream detection failed for video %s: %s", videoID, msg)
		writeLine(gin.H{"error": msg})
		return
	}

	snap := session.Snapshot()
	if snap.Status == services.SessionCompleted {
		now := time.Now()
		database.DB.Model(&models.VideoMetadata{}).
			Where("external_id = ?", videoID).
			Updates(map[string]interface{}{
				"status":                  models.VideoStatusProcessed,
				"processing_completed_at": now,
				"total_frames_analyzed":   snap.FrameCount,
			})
	}
}

func markVideoFailed(videoID, msg string) {
	database.DB.Model(&models.VideoMetadata{}).
		Where("external_id = ?", videoID).
		Updates(map[string]interface{}{
			"status":           models.VideoStatusFailed,
			"processing_error": msg,
		})
}

// StopStreamDetection handles POST /api/v1/detect/video/:videoId/stream/stop
func StopStreamDetection(c *gin.Context) {
	videoID := c.Param("videoId")

	if !sessions.Stop(videoID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active stream for video"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stream stopped", "video_id": videoID})
}

// GetStreamSession handles GET /api/v1/detect/video/:videoId/session
func GetStreamSession(c *gin.Context) {
	videoID := c.Param("videoId")

	session, ok := sessions.Get(videoID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No stream session for video"})
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// SyncPlayback handles GET /api/v1/detect/video/:videoId/sync?position=SECS.
// Soft playback/overlay sync: the player reports its position and is told
// whether to nudge to the latest frame result's timestamp.
func SyncPlayback(c *gin.Context) {
	videoID := c.Param("videoId")

	position, err := strconv.ParseFloat(c.Query("position"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "position query parameter required"})
		return
	}

	session, ok := sessions.Get(videoID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No stream session for video"})
		return
	}

	target, nudge := session.SyncPosition(position)
	c.JSON(http.StatusOK, gin.H{
		"position":     target,
		"nudge":        nudge,
		"currentFrame": session.Current(),
	})
}

// ListModels handles GET /api/v1/detect/models
func ListModels(c *gin.Context) {
	detectModels, err := inferenceClient.ListModels(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("Failed to fetch models: %v", err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": detectModels})
}

// GetDetectionHistory handles GET /api/v1/detect/history
func GetDetectionHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 {
		limit = 100
	}

	var rows []models.DetectionLog
	if err := database.DB.Order("timestamp DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	var total int64
	database.DB.Model(&models.DetectionLog{}).Count(&total)

	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}

	c.JSON(http.StatusOK, gin.H{
		"detections": rows,
		"total":      total,
		"page":       offset/limit + 1,
		"pages":      pages,
	})
}

// GetDetectionStats handles GET /api/v1/detect/stats
func GetDetectionStats(c *gin.Context) {
	var total int64
	database.DB.Model(&models.DetectionLog{}).Count(&total)

	var labelCounts []struct {
		Label string
		Count int64
	}
	database.DB.Model(&models.DetectionLog{}).
		Select("label, COUNT(*) as count").
		Group("label").
		Scan(&labelCounts)

	byType := make(map[string]int64, len(labelCounts))
	for _, lc := range labelCounts {
		byType[lc.Label] = lc.Count
	}

	var high, medium, low int64
	database.DB.Model(&models.DetectionLog{}).Where("confidence >= ?", 0.85).Count(&high)
	database.DB.Model(&models.DetectionLog{}).Where("confidence >= ? AND confidence < ?", 0.6, 0.85).Count(&medium)
	database.DB.Model(&models.DetectionLog{}).Where("confidence < ?", 0.6).Count(&low)

	var avgConfidence float64
	database.DB.Model(&models.DetectionLog{}).
		Select("COALESCE(AVG(confidence), 0)").
		Scan(&avgConfidence)

	c.JSON(http.StatusOK, gin.H{
		"total_detections":   total,
		"detections_by_type": byType,
		"confidence_distribution": gin.H{
			"high":   high,
			"medium": medium,
			"low":    low,
		},
		"average_confidence": avgConfidence,
	})
}
