package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/skywatch/backend/database"
	"github.com/skywatch/backend/handlers"
	"github.com/skywatch/backend/inference"
	"github.com/skywatch/backend/natsserver"
	"github.com/skywatch/backend/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Connect to database
	if err := database.Connect(); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
	defer database.Close()

	// Seed the default operator account
	handlers.SeedAdminUser()

	// Start embedded NATS server for the detection result bus
	natsCfg := natsserver.DefaultConfig()
	if p := os.Getenv("NATS_PORT"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil {
			natsCfg.Port = parsed
		}
	}
	natsServer, err := natsserver.New(natsCfg)
	if err != nil {
		log.Fatalf("❌ Failed to start NATS server: %v", err)
	}
	defer natsServer.Shutdown()

	// Initialize feed hub for WebSocket streaming
	feedHub := services.NewFeedHub(natsServer.Conn())
	go feedHub.Run()
	handlers.SetFeedHub(feedHub)
	log.Println("📺 Feed hub initialized")

	// Upload directory for video bytes
	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		log.Fatalf("❌ Failed to create upload directory: %v", err)
	}

	// Inference service client. One base URL for every collaborator
	// endpoint; localhost:8000 is the dev default.
	inferenceURL := os.Getenv("INFERENCE_API_URL")
	if inferenceURL == "" {
		inferenceURL = "http://localhost:8000"
	}
	log.Printf("🧠 Inference service: %s", inferenceURL)

	droneID := os.Getenv("DRONE_ID")
	if droneID == "" {
		droneID = "SKW-1"
	}

	handlers.Init(handlers.Deps{
		Inference: inference.New(inferenceURL),
		Sessions:  services.NewSessionManager(),
		Drone:     services.NewSimulatedLink(droneID),
		Weather:   services.NewStaticWeather(),
		Bus:       natsServer,
		UploadDir: uploadDir,
	})

	// Setup Gin router
	if os.Getenv("ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// CORS middleware
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(config))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// WebSocket route for detection feeds (outside /api group)
	router.GET("/ws/detections", handlers.HandleFeedWebSocket)

	// API Routes
	api := router.Group("/api/v1")
	{
		// Feed hub stats
		api.GET("/feeds/stats", handlers.GetFeedHubStats)

		// Auth
		api.POST("/auth/login", handlers.Login)

		// Video routes
		video := api.Group("/video")
		{
			video.POST("/upload", handlers.UploadVideo)
			video.GET("/stream/:videoId", handlers.StreamVideo)
			video.GET("/metadata/:videoId", handlers.GetVideoMetadata)
			video.GET("/list", handlers.ListVideos)
			video.GET("/processing-status/:videoId", handlers.GetProcessingStatus)
			video.DELETE("/delete/:videoId", handlers.AuthMiddleware(), handlers.DeleteVideo)
		}

		// Detection routes
		detect := api.Group("/detect")
		{
			detect.POST("/video/:videoId", handlers.DetectVideo)
			detect.POST("/video/:videoId/stream", handlers.StreamDetection)
			detect.POST("/video/:videoId/stream/stop", handlers.StopStreamDetection)
			detect.GET("/video/:videoId/session", handlers.GetStreamSession)
			detect.GET("/video/:videoId/sync", handlers.SyncPlayback)
			detect.GET("/models", handlers.ListModels)
			detect.GET("/history", handlers.GetDetectionHistory)
			detect.GET("/stats", handlers.GetDetectionStats)
		}

		// Classification
		api.POST("/classify/video/:videoId", handlers.ClassifyVideo)

		// Alert routes
		alerts := api.Group("/alerts")
		{
			alerts.GET("", handlers.GetAlerts)
			alerts.POST("", handlers.CreateAlert)
			alerts.GET("/stats/summary", handlers.GetAlertStats)
			alerts.GET("/:id", handlers.GetAlert)
			alerts.PUT("/:id", handlers.UpdateAlert)
			alerts.POST("/:id/acknowledge", handlers.AcknowledgeAlert)
			alerts.POST("/:id/resolve", handlers.ResolveAlert)
		}

		// Drone link routes
		drone := api.Group("/drone")
		{
			drone.POST("/connect", handlers.ConnectDrone)
			drone.POST("/disconnect", handlers.DisconnectDrone)
			drone.GET("/status", handlers.GetDroneStatus)
		}

		// Map layers
		api.GET("/map/layers", handlers.GetMapLayers)

		// Weather
		weather := api.Group("/weather")
		{
			weather.GET("/current", handlers.GetCurrentWeather)
			weather.GET("/forecast", handlers.GetWeatherForecast)
		}

		// Analytics
		api.GET("/analytics/performance", handlers.GetSystemPerformance)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 SkyWatch backend listening on :%s", port)
	if err := router.Run(fmt.Sprintf(":%s", port)); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}
