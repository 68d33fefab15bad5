package handlers

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skywatch/backend/database"
	"github.com/skywatch/backend/models"
	"gorm.io/gorm"
)

// UploadVideo handles POST /api/v1/video/upload
func UploadVideo(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}

	// MIME prefix check only; deeper validation is the inference
	// service's problem
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "video/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File must be a video"})
		return
	}

	videoID := uuid.New().String()
	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".mp4"
	}
	filename := videoID + ext
	destPath := filepath.Join(uploadDir, filename)

	if err := c.SaveUploadedFile(file, destPath); err != nil {
		log.Printf("❌ Failed to save upload: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save video"})
		return
	}

	meta := models.VideoMetadata{
		ExternalID:       videoID,
		Filename:         filename,
		OriginalFilename: file.Filename,
		FilePath:         destPath,
		FileSize:         file.Size,
		Status:           models.VideoStatusUploaded,
		UploadedAt:       time.Now(),
	}
	if err := database.DB.Create(&meta).Error; err != nil {
		os.Remove(destPath)
		log.Printf("❌ Failed to store video metadata: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store video metadata"})
		return
	}

	log.Printf("🎥 Video uploaded: %s (%s, %d bytes)", videoID, file.Filename, file.Size)

	c.JSON(http.StatusOK, models.VideoUploadResponse{
		VideoID:  videoID,
		Filename: file.Filename,
		Status:   string(models.VideoStatusUploaded),
		Metadata: map[string]interface{}{
			"id":       videoID,
			"filename": file.Filename,
			"size":     file.Size,
		},
	})
}

// StreamVideo handles GET /api/v1/video/stream/:videoId - playback bytes
func StreamVideo(c *gin.Context) {
	videoID := c.Param("videoId")

	var meta models.VideoMetadata
	if err := database.DB.Where("external_id = ?", videoID).First(&meta).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}

	if _, err := os.Stat(meta.FilePath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video file missing"})
		return
	}

	c.Header("Content-Disposition", "inline; filename="+meta.Filename)
	// ServeFile gives us range request support for scrubbing
	http.ServeFile(c.Writer, c.Request, meta.FilePath)
}

// GetVideoMetadata handles GET /api/v1/video/metadata/:videoId
func GetVideoMetadata(c *gin.Context) {
	videoID := c.Param("videoId")

	var meta models.VideoMetadata
	if err := database.DB.Where("external_id = ?", videoID).First(&meta).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}

	c.JSON(http.StatusOK, meta)
}

// ListVideos handles GET /api/v1/video/list
func ListVideos(c *gin.Context) {
	var videos []models.VideoMetadata
	if err := database.DB.Order("uploaded_at DESC").Find(&videos).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch videos"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"videos": videos})
}

// DeleteVideo handles DELETE /api/v1/video/delete/:videoId
func DeleteVideo(c *gin.Context) {
	videoID := c.Param("videoId")

	var meta models.VideoMetadata
	if err := database.DB.Where("external_id = ?", videoID).First(&meta).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}

	// Stop any in-flight detection before removing the bytes
	sessions.Stop(videoID)

	if err := database.DB.Delete(&meta).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete video"})
		return
	}
	if err := os.Remove(meta.FilePath); err != nil && !os.IsNotExist(err) {
		log.Printf("⚠️ Failed to remove video file %s: %v", meta.FilePath, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Video deleted successfully"})
}

// GetProcessingStatus handles GET /api/v1/video/processing-status/:videoId
func GetProcessingStatus(c *gin.Context) {
	videoID := c.Param("videoId")

	var meta models.VideoMetadata
	if err := database.DB.Where("external_id = ?", videoID).First(&meta).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusOK, gin.H{"status": "not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch video"})
		return
	}

	resp := gin.H{
		"video_id": videoID,
		"status":   meta.Status,
	}
	if session, ok := sessions.Get(videoID); ok {
		resp["session"] = session.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}
