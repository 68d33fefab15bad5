package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Default surveillance area when the dashboard sends no coordinates
const (
	defaultLat = 37.7749
	defaultLng = -122.4194
)

func coordQuery(c *gin.Context) (float64, float64) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		lat = defaultLat
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		lng = defaultLng
	}
	return lat, lng
}

// GetCurrentWeather handles GET /api/v1/weather/current
func GetCurrentWeather(c *gin.Context) {
	lat, lng := coordQuery(c)

	current, err := weatherProvider.Current(lat, lng)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch weather"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"location": gin.H{"latitude": lat, "longitude": lng},
		"current":  current,
	})
}

// GetWeatherForecast handles GET /api/v1/weather/forecast
func GetWeatherForecast(c *gin.Context) {
	lat, lng := coordQuery(c)
	days, _ := strconv.Atoi(c.DefaultQuery("days", "5"))

	forecast, err := weatherProvider.Forecast(lat, lng, days)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch forecast"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"location": gin.H{"latitude": lat, "longitude": lng},
		"forecast": forecast,
	})
}
