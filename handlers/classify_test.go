package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/skywatch/backend/inference"
	"github.com/skywatch/backend/models"
	"github.com/skywatch/backend/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyVideoDefaultsTopK(t *testing.T) {
	setupTestDB(t)
	gin.SetMode(gin.TestMode)

	inferenceSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.ClassificationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, defaultTopK, req.TopK)

		json.NewEncoder(w).Encode(models.ClassificationResponse{
			Classifications: []models.Classification{{Label: "rural", Confidence: 0.9}},
			ModelUsed:       "microsoft/resnet-50",
		})
	}))
	defer inferenceSrv.Close()

	Init(Deps{
		Inference: inference.New(inferenceSrv.URL),
		Sessions:  services.NewSessionManager(),
		Drone:     services.NewSimulatedLink("TEST-1"),
		Weather:   services.NewStaticWeather(),
		UploadDir: t.TempDir(),
	})

	router := gin.New()
	router.POST("/api/v1/classify/video/:videoId", ClassifyVideo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify/video/vid-c1", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ClassificationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "vid-c1", resp.VideoID)
	require.Len(t, resp.Classifications, 1)
	assert.Equal(t, "rural", resp.Classifications[0].Label)
}

func TestClassifyVideoInferenceDown(t *testing.T) {
	setupTestDB(t)
	gin.SetMode(gin.TestMode)

	inferenceSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"model not loaded"}`, http.StatusServiceUnavailable)
	}))
	defer inferenceSrv.Close()

	Init(Deps{
		Inference: inference.New(inferenceSrv.URL),
		Sessions:  services.NewSessionManager(),
		Drone:     services.NewSimulatedLink("TEST-1"),
		Weather:   services.NewStaticWeather(),
		UploadDir: t.TempDir(),
	})

	router := gin.New()
	router.POST("/api/v1/classify/video/:videoId", ClassifyVideo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify/video/vid-c2", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
