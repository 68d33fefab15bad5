package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// droneConnectTimeout bounds a connect attempt so a dead transport can't
// leave the dashboard in a perpetual "connecting" state
const droneConnectTimeout = 10 * time.Second

// ConnectDrone handles POST /api/v1/drone/connect
func ConnectDrone(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), droneConnectTimeout)
	defer cancel()

	if err := droneLink.Connect(ctx); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, droneLink.Status())
}

// DisconnectDrone handles POST /api/v1/drone/disconnect
func DisconnectDrone(c *gin.Context) {
	if err := droneLink.Disconnect(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, droneLink.Status())
}

// GetDroneStatus handles GET /api/v1/drone/status
func GetDroneStatus(c *gin.Context) {
	c.JSON(http.StatusOK, droneLink.Status())
}
