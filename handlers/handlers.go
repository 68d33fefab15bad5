// Package handlers contains the gin handlers for the dashboard API
package handlers

import (
	"github.com/skywatch/backend/inference"
	"github.com/skywatch/backend/natsserver"
	"github.com/skywatch/backend/services"
)

var (
	inferenceClient *inference.Client
	sessions        *services.SessionManager
	droneLink       services.DroneLink
	weatherProvider services.WeatherProvider
	bus             *natsserver.EmbeddedNATS
	uploadDir       string
)

// Deps are the shared dependencies handlers need
type Deps struct {
	Inference *inference.Client
	Sessions  *services.SessionManager
	Drone     services.DroneLink
	Weather   services.WeatherProvider
	Bus       *natsserver.EmbeddedNATS
	UploadDir string
}

// Init wires the handler package dependencies
func Init(d Deps) {
	inferenceClient = d.Inference
	sessions = d.Sessions
	droneLink = d.Drone
	weatherProvider = d.Weather
	bus = d.Bus
	uploadDir = d.UploadDir
}
