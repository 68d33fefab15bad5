package services

import (
	"fmt"

	"github.com/skywatch/backend/models"
)

// Map layer names. The dashboard renders whatever layers and features it
// receives; the backend owns composition, so there is no imperative
// widget code on either side.
const (
	LayerDrone    = "drone"
	LayerCoverage = "coverage"
	LayerHazards  = "hazards"
	LayerTerrain  = "terrain"
)

// MapFeature is one renderable item on a layer
type MapFeature struct {
	ID       string                 `json:"id"`
	Kind     string                 `json:"kind"` // marker, circle, polygon
	Label    string                 `json:"label,omitempty"`
	Lat      float64                `json:"lat"`
	Lng      float64                `json:"lng"`
	RadiusM  float64                `json:"radiusM,omitempty"`
	Severity string                 `json:"severity,omitempty"`
	Props    map[string]interface{} `json:"props,omitempty"`
}

// MapLayer is a named group of features
type MapLayer struct {
	Name     string       `json:"name"`
	Visible  bool         `json:"visible"`
	Features []MapFeature `json:"features"`
}

// droneCoverageRadiusM is the nominal camera footprint at patrol altitude
const droneCoverageRadiusM = 350

// BuildMapLayers composes the named map layers from live state: the drone
// position, its coverage footprint, open incidents as hazards, and the
// static terrain annotations.
func BuildMapLayers(drone LinkStatus, incidents []models.Incident) []MapLayer {
	droneLayer := MapLayer{Name: LayerDrone, Visible: true, Features: []MapFeature{}}
	coverage := MapLayer{Name: LayerCoverage, Visible: true, Features: []MapFeature{}}

	if drone.State == LinkConnected && drone.Telemetry != nil {
		droneLayer.Features = append(droneLayer.Features, MapFeature{
			ID:    "drone-" + drone.DroneID,
			Kind:  "marker",
			Label: drone.DroneID,
			Lat:   drone.Telemetry.Latitude,
			Lng:   drone.Telemetry.Longitude,
			Props: map[string]interface{}{
				"heading":  drone.Telemetry.Heading,
				"altitude": drone.Telemetry.Altitude,
				"battery":  drone.Telemetry.Battery,
			},
		})
		coverage.Features = append(coverage.Features, MapFeature{
			ID:      "coverage-" + drone.DroneID,
			Kind:    "circle",
			Lat:     drone.Telemetry.Latitude,
			Lng:     drone.Telemetry.Longitude,
			RadiusM: droneCoverageRadiusM,
		})
	}

	hazards := MapLayer{Name: LayerHazards, Visible: true, Features: []MapFeature{}}
	for _, inc := range incidents {
		if inc.Status == models.AlertStatusResolved {
			continue
		}
		if inc.Latitude == nil || inc.Longitude == nil {
			continue
		}
		hazards.Features = append(hazards.Features, MapFeature{
			ID:       fmt.Sprintf("incident-%d", inc.ID),
			Kind:     "marker",
			Label:    inc.Title,
			Lat:      *inc.Latitude,
			Lng:      *inc.Longitude,
			Severity: string(inc.Severity),
			Props: map[string]interface{}{
				"type":   inc.IncidentType,
				"status": inc.Status,
			},
		})
	}

	terrain := MapLayer{
		Name:    LayerTerrain,
		Visible: false,
		Features: []MapFeature{
			{ID: "ridge-north", Kind: "polygon", Label: "North Ridge", Lat: 37.7812, Lng: -122.4151},
			{ID: "plaza-central", Kind: "polygon", Label: "Central Plaza", Lat: 37.7769, Lng: -122.4174},
			{ID: "perimeter-east", Kind: "polygon", Label: "East Perimeter", Lat: 37.7759, Lng: -122.4204},
		},
	}

	return []MapLayer{droneLayer, coverage, hazards, terrain}
}
