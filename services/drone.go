package services

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"
)

// LinkState enum
type LinkState string

const (
	LinkDisconnected LinkState = "disconnected"
	LinkConnecting   LinkState = "connecting"
	LinkConnected    LinkState = "connected"
)

// Telemetry is the drone's live status
type Telemetry struct {
	Battery        int     `json:"battery"`        // percent
	SignalStrength int     `json:"signalStrength"` // percent
	Altitude       float64 `json:"altitude"`       // meters
	Speed          float64 `json:"speed"`          // m/s
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Heading        float64 `json:"heading"` // degrees
}

// LinkStatus is the dashboard-facing connection status
type LinkStatus struct {
	State       LinkState  `json:"state"`
	DroneID     string     `json:"droneId,omitempty"`
	ConnectedAt *time.Time `json:"connectedAt,omitempty"`
	Telemetry   *Telemetry `json:"telemetry,omitempty"`
}

// DroneLink is the connection lifecycle for a drone transport. The
// simulated implementation below can be swapped for a real radio/IP
// transport without touching handlers.
type DroneLink interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Status() LinkStatus
}

// SimulatedLink stands in for real drone hardware: a fixed connect delay
// and randomized telemetry refreshed while connected.
type SimulatedLink struct {
	droneID      string
	connectDelay time.Duration

	mu          sync.RWMutex
	state       LinkState
	connectedAt time.Time
	telemetry   Telemetry
	stopRefresh chan struct{}
}

// NewSimulatedLink creates a simulated drone link
func NewSimulatedLink(droneID string) *SimulatedLink {
	return &SimulatedLink{
		droneID:      droneID,
		connectDelay: 2 * time.Second,
		state:        LinkDisconnected,
	}
}

// Connect establishes the simulated link. It blocks for the connect
// delay and honors context cancellation.
func (l *SimulatedLink) Connect(ctx context.Context) error {
	l.mu.Lock()
	if l.state != LinkDisconnected {
		state := l.state
		l.mu.Unlock()
		return fmt.Errorf("drone link is already %s", state)
	}
	l.state = LinkConnecting
	l.mu.Unlock()

	select {
	case <-ctx.Done():
		l.mu.Lock()
		l.state = LinkDisconnected
		l.mu.Unlock()
		return ctx.Err()
	case <-time.After(l.connectDelay):
	}

	l.mu.Lock()
	l.state = LinkConnected
	l.connectedAt = time.Now()
	l.telemetry = Telemetry{
		Battery:        80 + rand.Intn(20),
		SignalStrength: 70 + rand.Intn(30),
		Altitude:       120,
		Latitude:       37.7749,
		Longitude:      -122.4194,
	}
	l.stopRefresh = make(chan struct{})
	go l.refreshTelemetry(l.stopRefresh)
	l.mu.Unlock()

	log.Printf("🚁 Drone %s connected", l.droneID)
	return nil
}

// Disconnect tears the simulated link down
func (l *SimulatedLink) Disconnect() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != LinkConnected {
		return fmt.Errorf("drone link is not connected")
	}

	close(l.stopRefresh)
	l.stopRefresh = nil
	l.state = LinkDisconnected

	log.Printf("🚁 Drone %s disconnected", l.droneID)
	return nil
}

// Status returns the current link status
func (l *SimulatedLink) Status() LinkStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()

	status := LinkStatus{
		State:   l.state,
		DroneID: l.droneID,
	}
	if l.state == LinkConnected {
		at := l.connectedAt
		status.ConnectedAt = &at
		t := l.telemetry
		status.Telemetry = &t
	}
	return status
}

// refreshTelemetry drifts the simulated readings while connected
func (l *SimulatedLink) refreshTelemetry(stop chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			if l.state == LinkConnected {
				l.telemetry.Battery -= rand.Intn(2)
				if l.telemetry.Battery < 0 {
					l.telemetry.Battery = 0
				}
				l.telemetry.SignalStrength = 60 + rand.Intn(40)
				l.telemetry.Speed = 5 + rand.Float64()*10
				l.telemetry.Heading = rand.Float64() * 360
				l.telemetry.Latitude += (rand.Float64() - 0.5) * 0.0005
				l.telemetry.Longitude += (rand.Float64() - 0.5) * 0.0005
			}
			l.mu.Unlock()
		}
	}
}
