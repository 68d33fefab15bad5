package services

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024

	// Send buffer size
	sendBufferSize = 256
)

// FeedClient represents a WebSocket client watching detection feeds
type FeedClient struct {
	hub        *FeedHub
	conn       *websocket.Conn
	send       chan []byte
	videos     map[string]bool
	videosMu   sync.RWMutex
	userID     string
	remoteAddr string
}

// NewFeedClient creates a new feed client
func NewFeedClient(hub *FeedHub, conn *websocket.Conn, userID, remoteAddr string) *FeedClient {
	return &FeedClient{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufferSize),
		videos:     make(map[string]bool),
		userID:     userID,
		remoteAddr: remoteAddr,
	}
}

// ReadPump pumps messages from the WebSocket connection to the hub
func (c *FeedClient) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("⚠️ WebSocket error: %v", err)
			}
			break
		}

		var msg FeedMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("⚠️ Invalid message from %s: %v", c.remoteAddr, err)
			continue
		}

		switch msg.Type {
		case "subscribe":
			if msg.VideoID != "" {
				if err := c.hub.Subscribe(c, msg.VideoID); err != nil {
					log.Printf("⚠️ Subscribe failed: %v", err)
					c.sendError(err.Error())
				}
			}

		case "unsubscribe":
			if msg.VideoID != "" {
				c.hub.Unsubscribe(c, msg.VideoID)
			}

		case "ping":
			c.sendPong()

		default:
			log.Printf("⚠️ Unknown message type: %s", msg.Type)
		}
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *FeedClient) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendResult queues a frame result replay for this client only
func (c *FeedClient) sendResult(videoID string, data []byte) {
	msg := FeedMessage{
		Type:    "frame_result",
		VideoID: videoID,
		Data:    data,
	}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- msgBytes:
	default:
	}
}

func (c *FeedClient) sendError(errMsg string) {
	msg := map[string]string{
		"type":  "error",
		"error": errMsg,
	}
	msgBytes, _ := json.Marshal(msg)
	select {
	case c.send <- msgBytes:
	default:
	}
}

func (c *FeedClient) sendPong() {
	msg := map[string]string{
		"type": "pong",
	}
	msgBytes, _ := json.Marshal(msg)
	select {
	case c.send <- msgBytes:
	default:
	}
}
