package main

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/joho/godotenv"
	"github.com/skywatch/backend/database"
	"github.com/skywatch/backend/models"
)

type sampleAlert struct {
	title       string
	description string
	alertType   string
	severity    models.AlertSeverity
	status      models.AlertStatus
	location    string
	lat, lng    float64
}

var sampleAlerts = []sampleAlert{
	{
		title:       "Fire Detected",
		description: "Potential wildfire detected in sector A-7 with high heat signature.",
		alertType:   "fire",
		severity:    models.AlertSeverityCritical,
		status:      models.AlertStatusNew,
		location:    "Sector A-7, North Ridge",
		lat:         37.7749, lng: -122.4194,
	},
	{
		title:       "Unauthorized Vehicle",
		description: "Unidentified vehicle detected in restricted area near the perimeter fence.",
		alertType:   "intrusion",
		severity:    models.AlertSeverityHigh,
		status:      models.AlertStatusAcknowledged,
		location:    "Perimeter Zone B, East Entrance",
		lat:         37.7759, lng: -122.4204,
	},
	{
		title:       "Crowd Formation",
		description: "Unusual crowd density detected in public area exceeding safety thresholds.",
		alertType:   "crowd",
		severity:    models.AlertSeverityMedium,
		status:      models.AlertStatusNew,
		location:    "Central Plaza, Main Entrance",
		lat:         37.7769, lng: -122.4174,
	},
	{
		title:       "Animal Near Runway",
		description: "Large animal detected close to the landing strip.",
		alertType:   "wildlife",
		severity:    models.AlertSeverityLow,
		status:      models.AlertStatusResolved,
		location:    "South Field",
		lat:         37.7721, lng: -122.4233,
	},
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Connect to database
	if err := database.Connect(); err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer database.Close()

	fmt.Println("🌱 Starting alert seed...")

	created := 0
	for i, s := range sampleAlerts {
		lat, lng := s.lat, s.lng
		inc := models.Incident{
			ExternalID:   fmt.Sprintf("alert_%03d", i+1),
			Title:        s.title,
			Description:  s.description,
			IncidentType: s.alertType,
			Severity:     s.severity,
			Confidence:   0.70 + rand.Float64()*0.29,
			Location:     s.location,
			Latitude:     &lat,
			Longitude:    &lng,
			Status:       s.status,
			CreatedAt:    time.Now().Add(-time.Duration(rand.Intn(120)) * time.Minute),
		}
		if s.status == models.AlertStatusResolved {
			now := time.Now()
			inc.ResolvedAt = &now
		}

		var count int64
		database.DB.Model(&models.Incident{}).Where("external_id = ?", inc.ExternalID).Count(&count)
		if count > 0 {
			continue
		}

		if err := database.DB.Create(&inc).Error; err != nil {
			log.Printf("⚠️ Failed to create alert %s: %v", inc.ExternalID, err)
			continue
		}
		created++
	}

	fmt.Printf("✅ Seeded %d alerts\n", created)
}
