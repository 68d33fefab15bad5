package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skywatch/backend/models"
)

const defaultTopK = 5

// ClassifyVideo handles POST /api/v1/classify/video/:videoId - whole-video
// scene classification proxied to the inference service
func ClassifyVideo(c *gin.Context) {
	videoID := c.Param("videoId")

	req := models.ClassificationRequest{TopK: defaultTopK}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}
	if req.TopK <= 0 {
		req.TopK = defaultTopK
	}

	result, err := inferenceClient.ClassifyVideo(c.Request.Context(), videoID, req)
	if err != nil {
		log.Printf("❌ Classification failed for video %s: %v", videoID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("Classification failed: %v", err)})
		return
	}

	result.VideoID = videoID
	c.JSON(http.StatusOK, result)
}
