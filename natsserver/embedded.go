// Package natsserver provides the embedded NATS server used as the
// internal bus between the detection relay and the feed hub.
package natsserver

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// EmbeddedNATS wraps an embedded NATS server with a client connection
type EmbeddedNATS struct {
	server           *server.Server
	conn             *nats.Conn
	addr             string
	resultsPublished uint64
	resultsDropped   uint64
}

// Config holds configuration for the embedded NATS server
type Config struct {
	Port            int   // -1 picks a random free port
	MaxPayload      int32 // Max message size in bytes
	MaxPendingBytes int64 // Max pending bytes per slow consumer
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Port:            4222,
		MaxPayload:      4 * 1024 * 1024,  // 4MB, frame results are small JSON
		MaxPendingBytes: 64 * 1024 * 1024, // 64MB pending per subscriber
	}
}

// New creates and starts an embedded NATS server
func New(cfg Config) (*EmbeddedNATS, error) {
	if cfg.MaxPendingBytes <= 0 {
		cfg.MaxPendingBytes = 64 * 1024 * 1024
	}

	opts := &server.Options{
		Host:          "0.0.0.0",
		Port:          cfg.Port,
		NoLog:         true,
		NoSigs:        true,
		MaxPayload:    cfg.MaxPayload,
		WriteDeadline: 10 * time.Second,
		// Memory protection: disconnect slow consumers
		MaxPending: cfg.MaxPendingBytes,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS server: %w", err)
	}

	// Start server in background
	go ns.Start()

	// Wait for server to be ready
	if !ns.ReadyForConnections(5 * time.Second) {
		return nil, fmt.Errorf("NATS server not ready after 5 seconds")
	}

	// ClientURL carries the actual port when a random one was requested
	addr := ns.ClientURL()

	// Create internal client connection
	nc, err := nats.Connect(
		addr,
		nats.Name("skywatch-internal"),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("failed to connect to embedded NATS: %w", err)
	}

	log.Printf("📡 Embedded NATS server started at %s", addr)

	return &EmbeddedNATS{
		server: ns,
		conn:   nc,
		addr:   addr,
	}, nil
}

// Publish publishes a message to a subject
func (e *EmbeddedNATS) Publish(subject string, data []byte) error {
	err := e.conn.Publish(subject, data)
	if err != nil {
		atomic.AddUint64(&e.resultsDropped, 1)
		return err
	}
	atomic.AddUint64(&e.resultsPublished, 1)
	return nil
}

// Conn returns the underlying NATS connection
func (e *EmbeddedNATS) Conn() *nats.Conn {
	return e.conn
}

// Address returns the NATS server address
func (e *EmbeddedNATS) Address() string {
	return e.addr
}

// Stats holds NATS server statistics
type Stats struct {
	Clients          int    `json:"clients"`
	Subscriptions    uint32 `json:"subscriptions"`
	ResultsPublished uint64 `json:"resultsPublished"`
	ResultsDropped   uint64 `json:"resultsDropped"`
	SlowConsumers    int64  `json:"slowConsumers"`
}

// GetStats returns current server statistics
func (e *EmbeddedNATS) GetStats() Stats {
	varz, _ := e.server.Varz(nil)
	stats := Stats{
		Clients:          e.server.NumClients(),
		Subscriptions:    e.server.NumSubscriptions(),
		ResultsPublished: atomic.LoadUint64(&e.resultsPublished),
		ResultsDropped:   atomic.LoadUint64(&e.resultsDropped),
	}
	if varz != nil {
		stats.SlowConsumers = varz.SlowConsumers
	}
	return stats
}

// Shutdown gracefully shuts down the NATS server
func (e *EmbeddedNATS) Shutdown() {
	if e.conn != nil {
		e.conn.Close()
	}
	if e.server != nil {
		e.server.Shutdown()
	}
	log.Println("📡 NATS server shut down")
}
