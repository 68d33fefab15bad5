package services

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// detectionSubject is the NATS subject carrying frame results for a video
func detectionSubject(videoID string) string {
	return "detections.video." + videoID
}

// FeedHub fans live frame results out to dashboard WebSocket clients.
// The detection relay publishes each frame result on the internal NATS
// bus; the hub keeps one NATS subscription per watched video and sends
// the records to every viewer.
type FeedHub struct {
	natsConn *nats.Conn

	clients   map[*FeedClient]bool
	clientsMu sync.RWMutex

	subscriptions   map[string]*videoSubscription
	subscriptionsMu sync.RWMutex

	register   chan *FeedClient
	unregister chan *FeedClient
}

// videoSubscription tracks one watched video
type videoSubscription struct {
	videoID      string
	natsSub      *nats.Subscription
	viewers      map[*FeedClient]bool
	viewersMu    sync.RWMutex
	lastResult   []byte
	lastResultAt time.Time
}

// FeedMessage is a message sent to/from clients
type FeedMessage struct {
	Type    string          `json:"type"` // subscribe, unsubscribe, frame_result, error, pong
	VideoID string          `json:"videoId,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// NewFeedHub creates a new feed hub
func NewFeedHub(natsConn *nats.Conn) *FeedHub {
	return &FeedHub{
		natsConn:      natsConn,
		clients:       make(map[*FeedClient]bool),
		subscriptions: make(map[string]*videoSubscription),
		register:      make(chan *FeedClient),
		unregister:    make(chan *FeedClient),
	}
}

// Register adds a client to the hub
func (h *FeedHub) Register(client *FeedClient) {
	h.register <- client
}

// Run starts the hub's main loop
func (h *FeedHub) Run() {
	log.Println("📺 Feed hub started")

	for {
		select {
		case client := <-h.register:
			h.clientsMu.Lock()
			h.clients[client] = true
			h.clientsMu.Unlock()
			log.Printf("📺 Client connected: %s", client.remoteAddr)

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.clientsMu.Unlock()

			// Snapshot the watched videos first; Unsubscribe re-locks
			// videosMu while dropping the viewer
			client.videosMu.Lock()
			videos := make([]string, 0, len(client.videos))
			for videoID := range client.videos {
				videos = append(videos, videoID)
			}
			client.videosMu.Unlock()

			for _, videoID := range videos {
				h.Unsubscribe(client, videoID)
			}

			log.Printf("📺 Client disconnected: %s", client.remoteAddr)
		}
	}
}

// Subscribe subscribes a client to a video's detection feed
func (h *FeedHub) Subscribe(client *FeedClient, videoID string) error {
	if videoID == "" {
		return fmt.Errorf("video id required")
	}

	h.subscriptionsMu.Lock()
	defer h.subscriptionsMu.Unlock()

	sub, exists := h.subscriptions[videoID]
	if !exists {
		sub = &videoSubscription{
			videoID: videoID,
			viewers: make(map[*FeedClient]bool),
		}

		var err error
		sub.natsSub, err = h.natsConn.Subscribe(detectionSubject(videoID), func(msg *nats.Msg) {
			h.broadcastResult(videoID, msg.Data)
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to detections: %w", err)
		}

		h.subscriptions[videoID] = sub
		log.Printf("📺 Created subscription for video %s", videoID)
	}

	sub.viewersMu.Lock()
	sub.viewers[client] = true
	sub.viewersMu.Unlock()

	client.videosMu.Lock()
	client.videos[videoID] = true
	client.videosMu.Unlock()

	// Replay the latest result so a late viewer paints an overlay
	// immediately instead of waiting for the next frame
	sub.viewersMu.RLock()
	last := sub.lastResult
	sub.viewersMu.RUnlock()
	if last != nil {
		client.sendResult(videoID, last)
	}

	log.Printf("📺 Client %s subscribed to video %s", client.remoteAddr, videoID)
	return nil
}

// Unsubscribe removes a client from a video feed
func (h *FeedHub) Unsubscribe(client *FeedClient, videoID string) {
	h.subscriptionsMu.Lock()
	defer h.subscriptionsMu.Unlock()
	h.unsubscribeClient(client, videoID)
}

// unsubscribeClient removes the viewer; caller holds subscriptionsMu
func (h *FeedHub) unsubscribeClient(client *FeedClient, videoID string) {
	sub, exists := h.subscriptions[videoID]
	if !exists {
		return
	}

	sub.viewersMu.Lock()
	delete(sub.viewers, client)
	viewerCount := len(sub.viewers)
	sub.viewersMu.Unlock()

	client.videosMu.Lock()
	delete(client.videos, videoID)
	client.videosMu.Unlock()

	// Last viewer gone, drop the NATS subscription
	if viewerCount == 0 {
		if sub.natsSub != nil {
			sub.natsSub.Unsubscribe()
		}
		delete(h.subscriptions, videoID)
		log.Printf("📺 Removed subscription for video %s (no viewers)", videoID)
	}
}

// broadcastResult sends a frame result to all viewers of a video
func (h *FeedHub) broadcastResult(videoID string, data []byte) {
	h.subscriptionsMu.RLock()
	sub, exists := h.subscriptions[videoID]
	h.subscriptionsMu.RUnlock()

	if !exists {
		return
	}

	sub.viewersMu.Lock()
	sub.lastResult = data
	sub.lastResultAt = time.Now()
	sub.viewersMu.Unlock()

	msg := FeedMessage{
		Type:    "frame_result",
		VideoID: videoID,
		Data:    data,
	}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		log.Printf("⚠️ Failed to encode feed message: %v", err)
		return
	}

	sub.viewersMu.RLock()
	for client := range sub.viewers {
		select {
		case client.send <- msgBytes:
		default:
			// Client buffer full, skip result
		}
	}
	sub.viewersMu.RUnlock()
}

// HubStats holds hub statistics
type HubStats struct {
	Clients       int      `json:"clients"`
	Subscriptions int      `json:"subscriptions"`
	ActiveVideos  []string `json:"activeVideos"`
}

// Stats returns hub statistics
func (h *FeedHub) Stats() HubStats {
	h.clientsMu.RLock()
	clientCount := len(h.clients)
	h.clientsMu.RUnlock()

	h.subscriptionsMu.RLock()
	videos := make([]string, 0, len(h.subscriptions))
	for key := range h.subscriptions {
		videos = append(videos, key)
	}
	h.subscriptionsMu.RUnlock()

	return HubStats{
		Clients:       clientCount,
		Subscriptions: len(videos),
		ActiveVideos:  videos,
	}
}
