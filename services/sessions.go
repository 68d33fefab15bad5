// Package services provides business logic services
package services

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"github.com/skywatch/backend/models"
)

// SessionStatus enum
type SessionStatus string

const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
	SessionCancelled SessionStatus = "cancelled"
)

// playbackSyncTolerance is the drift, in seconds, allowed between the
// playback position and the latest frame result before the player is
// nudged. Best-effort soft sync, not frame-accurate lockstep.
const playbackSyncTolerance = 0.5

// StreamSession holds the live state of one streaming detection run for
// one video: the latest frame result, the accumulated sequence in arrival
// order, and the computed progress.
type StreamSession struct {
	VideoID   string
	StartedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.RWMutex
	metadata      *models.StreamRecord
	current       *models.FrameResult
	frames        []models.FrameResult
	progress      float64
	progressKnown bool
	status        SessionStatus
	errMsg        string
}

// Context returns the session's cancellation context
func (s *StreamSession) Context() context.Context {
	return s.ctx
}

// Apply updates session state from one stream record. Records are applied
// in arrival order; there is no reordering by frame number.
func (s *StreamSession) Apply(record models.StreamRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch record.Type {
	case models.StreamTypeMetadata:
		meta := record
		s.metadata = &meta

	case models.StreamTypeFrameResult:
		frame := record.FrameResult()
		s.current = &frame
		s.frames = append(s.frames, frame)
		if s.metadata != nil && s.metadata.FrameCount > 0 {
			s.progress = float64(frame.FrameNumber) / float64(s.metadata.FrameCount) * 100
			s.progressKnown = true
		}

	case models.StreamTypeComplete:
		s.progress = 100
		s.progressKnown = true
		s.status = SessionCompleted
	}
}

// Fail marks the session failed with the given message
func (s *StreamSession) Fail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == SessionRunning {
		s.status = SessionFailed
		s.errMsg = msg
	}
}

// markCancelled flips a still-running session to cancelled
func (s *StreamSession) markCancelled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == SessionRunning {
		s.status = SessionCancelled
	}
}

// Current returns the latest frame result, or nil before the first one
func (s *StreamSession) Current() *models.FrameResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Frames returns the accumulated frame results in arrival order
func (s *StreamSession) Frames() []models.FrameResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.FrameResult, len(s.frames))
	copy(out, s.frames)
	return out
}

// SessionSnapshot is the dashboard-facing view of a session
type SessionSnapshot struct {
	VideoID    string               `json:"videoId"`
	Status     SessionStatus        `json:"status"`
	Progress   *float64             `json:"progress,omitempty"`
	FrameCount int                  `json:"framesReceived"`
	Current    *models.FrameResult  `json:"currentFrame,omitempty"`
	Metadata   *models.StreamRecord `json:"metadata,omitempty"`
	Error      string               `json:"error,omitempty"`
	StartedAt  time.Time            `json:"startedAt"`
}

// Snapshot returns a consistent copy of the session state
func (s *StreamSession) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := SessionSnapshot{
		VideoID:    s.VideoID,
		Status:     s.status,
		FrameCount: len(s.frames),
		Current:    s.current,
		Metadata:   s.metadata,
		Error:      s.errMsg,
		StartedAt:  s.StartedAt,
	}
	if s.progressKnown {
		p := s.progress
		snap.Progress = &p
	}
	return snap
}

// SyncPosition reports whether the playback position should be nudged to
// follow the latest frame result. It returns the corrected position and
// true when the drift exceeds the tolerance; otherwise the input position
// and false.
func (s *StreamSession) SyncPosition(playhead float64) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return playhead, false
	}
	if math.Abs(playhead-s.current.Timestamp) > playbackSyncTolerance {
		return s.current.Timestamp, true
	}
	return playhead, false
}

// SessionManager enforces a single active streaming session per video.
// Starting a new session for a video cancels and replaces the previous
// one, so overlapping "restart detection" clicks never race.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*StreamSession
}

// NewSessionManager creates a session manager
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*StreamSession),
	}
}

// Start creates a fresh session for the video, cancelling any prior one
func (m *SessionManager) Start(videoID string) *StreamSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.sessions[videoID]; ok {
		prev.cancel()
		prev.markCancelled()
		log.Printf("🔄 Replaced active stream session for video %s", videoID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	session := &StreamSession{
		VideoID:   videoID,
		StartedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
		status:    SessionRunning,
	}
	m.sessions[videoID] = session
	return session
}

// Get returns the session for a video, if any
func (m *SessionManager) Get(videoID string) (*StreamSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[videoID]
	return s, ok
}

// Stop cancels the active session for a video, if any
func (m *SessionManager) Stop(videoID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[videoID]
	if !ok {
		return false
	}
	s.cancel()
	s.markCancelled()
	return true
}
