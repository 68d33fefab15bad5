package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skywatch/backend/database"
	"github.com/skywatch/backend/inference"
	"github.com/skywatch/backend/models"
	"github.com/skywatch/backend/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamReplacementDoesNotMarkVideoFailed(t *testing.T) {
	setupTestDB(t)
	gin.SetMode(gin.TestMode)

	// Inference stub: one metadata record, then hold the stream open
	// until the client hangs up
	inferenceSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "{\"type\":\"metadata\",\"fps\":30,\"frame_count\":100}\n")
		flusher.Flush()
		<-r.Context().Done()
	}))
	defer inferenceSrv.Close()

	mgr := services.NewSessionManager()
	Init(Deps{
		Inference: inference.New(inferenceSrv.URL),
		Sessions:  mgr,
		Drone:     services.NewSimulatedLink("TEST-1"),
		Weather:   services.NewStaticWeather(),
		UploadDir: t.TempDir(),
	})

	meta := models.VideoMetadata{ExternalID: "vid-replace", Filename: "vid-replace.mp4", Status: models.VideoStatusUploaded}
	require.NoError(t, database.DB.Create(&meta).Error)

	router := gin.New()
	router.POST("/api/v1/detect/video/:videoId/stream", StreamDetection)

	done := make(chan struct{})
	go func() {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/detect/video/vid-replace/stream", nil)
		router.ServeHTTP(w, req)
		close(done)
	}()

	var first *services.StreamSession
	require.Eventually(t, func() bool {
		s, ok := mgr.Get("vid-replace")
		if !ok || s.Snapshot().Metadata == nil {
			return false
		}
		first = s
		return true
	}, 2*time.Second, 10*time.Millisecond)

	// A restart click replaces the session; the first run ends with a
	// cancelled context
	mgr.Start("vid-replace")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream handler did not return after being replaced")
	}

	assert.Equal(t, services.SessionCancelled, first.Snapshot().Status)

	// The replaced run must not stamp failure over the video lifecycle
	var got models.VideoMetadata
	require.NoError(t, database.DB.Where("external_id = ?", "vid-replace").First(&got).Error)
	assert.Equal(t, models.VideoStatusProcessing, got.Status)
	assert.Nil(t, got.ProcessingError)
}
