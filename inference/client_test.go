package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/skywatch/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamDetectRecoversLinesSplitAcrossChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/detect/video/vid-1/stream", r.URL.Path)

		flusher := w.(http.Flusher)
		// One metadata record deliberately split across two writes
		fmt.Fprint(w, `{"type":"meta`)
		flusher.Flush()
		time.Sleep(10 * time.Millisecond)
		fmt.Fprint(w, "data\",\"fps\":30,\"frame_count\":100}\n")
		flusher.Flush()
		fmt.Fprint(w, "{\"type\":\"complete\"}\n")
		flusher.Flush()
	}))
	defer server.Close()

	client := New(server.URL)

	var records []models.StreamRecord
	err := client.StreamDetect(context.Background(), "vid-1", models.DetectionRequest{ConfidenceThreshold: 0.5}, func(r models.StreamRecord) error {
		records = append(records, r)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, models.StreamTypeMetadata, records[0].Type)
	assert.Equal(t, 30.0, records[0].FPS)
	assert.Equal(t, 100, records[0].FrameCount)
	assert.Equal(t, models.StreamTypeComplete, records[1].Type)
}

func TestStreamDetectStopsOnErrorRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "{\"type\":\"metadata\",\"fps\":25}\n")
		fmt.Fprint(w, "{\"error\":\"Could not open video file\"}\n")
		fmt.Fprint(w, "{\"type\":\"frame_result\",\"frame_number\":1}\n")
	}))
	defer server.Close()

	client := New(server.URL)

	var records []models.StreamRecord
	err := client.StreamDetect(context.Background(), "vid-2", models.DetectionRequest{}, func(r models.StreamRecord) error {
		records = append(records, r)
		return nil
	})

	var streamErr *StreamError
	require.ErrorAs(t, err, &streamErr)
	assert.Equal(t, "Could not open video file", streamErr.Message)
	// Nothing after the error record is delivered
	require.Len(t, records, 1)
	assert.Equal(t, models.StreamTypeMetadata, records[0].Type)
}

func TestStreamDetectSkipsMalformedLines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "{\"type\":\"metadata\",\"fps\":30}\n")
		fmt.Fprint(w, "{not valid json}\n")
		fmt.Fprint(w, "{\"type\":\"frame_result\",\"frame_number\":4,\"timestamp\":0.13}\n")
		fmt.Fprint(w, "{\"type\":\"complete\"}\n")
	}))
	defer server.Close()

	client := New(server.URL)

	var types []string
	err := client.StreamDetect(context.Background(), "vid-3", models.DetectionRequest{}, func(r models.StreamRecord) error {
		types = append(types, r.Type)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"metadata", "frame_result", "complete"}, types)
}

func TestStreamDetectNormalizesDetections(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Detection with no bounding_box, no severity, no label
		fmt.Fprint(w, "{\"type\":\"frame_result\",\"frame_number\":1,\"detections\":[{\"id\":\"d1\",\"confidence\":0.9}]}\n")
		fmt.Fprint(w, "{\"type\":\"complete\"}\n")
	}))
	defer server.Close()

	client := New(server.URL)

	var frame *models.StreamRecord
	err := client.StreamDetect(context.Background(), "vid-4", models.DetectionRequest{}, func(r models.StreamRecord) error {
		if r.Type == models.StreamTypeFrameResult {
			rec := r
			frame = &rec
		}
		return nil
	})
	require.NoError(t, err)

	require.NotNil(t, frame)
	require.Len(t, frame.Detections, 1)
	d := frame.Detections[0]
	assert.Equal(t, "Unknown", d.Label)
	assert.Equal(t, models.DetectionSeverityMedium, d.Severity)
	assert.Equal(t, models.BoundingBox{}, d.BoundingBox)
}

func TestStreamDetectHonorsCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "{\"type\":\"metadata\",\"fps\":30}\n")
		flusher.Flush()
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := New(server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	err := client.StreamDetect(ctx, "vid-5", models.DetectionRequest{}, func(r models.StreamRecord) error {
		cancel()
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetectVideoBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/detect/video/vid-9", r.URL.Path)

		var req models.DetectionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 0.6, req.ConfidenceThreshold)

		json.NewEncoder(w).Encode(models.DetectionResponse{
			Detections: []models.Detection{
				{ID: "d1", Label: "person", Confidence: 0.91, Severity: models.DetectionSeverityHigh},
				{ID: "d2", Confidence: 0.75},
			},
			ModelUsed: "facebook/detr-resnet-50",
		})
	}))
	defer server.Close()

	client := New(server.URL)

	resp, err := client.DetectVideo(context.Background(), "vid-9", models.DetectionRequest{ConfidenceThreshold: 0.6})
	require.NoError(t, err)

	require.Len(t, resp.Detections, 2)
	assert.Equal(t, "person", resp.Detections[0].Label)
	// Defaults applied on decode
	assert.Equal(t, "Unknown", resp.Detections[1].Label)
	assert.Equal(t, models.DetectionSeverityMedium, resp.Detections[1].Severity)
}

func TestDetectVideoNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Video file not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL)

	_, err := client.DetectVideo(context.Background(), "missing", models.DetectionRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestUploadVideoReturnsVideoID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "clip.mp4", header.Filename)

		json.NewEncoder(w).Encode(models.VideoUploadResponse{VideoID: "vid-42", Status: "uploaded"})
	}))
	defer server.Close()

	client := New(server.URL)

	id, err := client.UploadVideo(context.Background(), "clip.mp4", bytes.NewReader([]byte("fake video bytes")))
	require.NoError(t, err)
	assert.Equal(t, "vid-42", id)
}

func TestUploadVideoPartContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "video/webm", header.Header.Get("Content-Type"))

		json.NewEncoder(w).Encode(models.VideoUploadResponse{VideoID: "vid-7", Status: "uploaded"})
	}))
	defer server.Close()

	client := New(server.URL)

	id, err := client.UploadVideo(context.Background(), "clip.webm", bytes.NewReader([]byte("fake video bytes")))
	require.NoError(t, err)
	assert.Equal(t, "vid-7", id)
}

func TestClassifyVideo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/classify/video/vid-8", r.URL.Path)

		var req models.ClassificationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 3, req.TopK)

		json.NewEncoder(w).Encode(models.ClassificationResponse{
			Classifications: []models.Classification{
				{Label: "urban", Confidence: 0.82, Category: "scene"},
				{Label: "daytime", Confidence: 0.77, Category: "lighting"},
			},
			ModelUsed: "microsoft/resnet-50",
		})
	}))
	defer server.Close()

	client := New(server.URL)

	resp, err := client.ClassifyVideo(context.Background(), "vid-8", models.ClassificationRequest{TopK: 3})
	require.NoError(t, err)

	require.Len(t, resp.Classifications, 2)
	assert.Equal(t, "urban", resp.Classifications[0].Label)
	assert.Equal(t, "microsoft/resnet-50", resp.ModelUsed)
}

func TestClassifyVideoNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Video file not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL)

	_, err := client.ClassifyVideo(context.Background(), "missing", models.ClassificationRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestUploadVideoMissingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "{}")
	}))
	defer server.Close()

	client := New(server.URL)

	_, err := client.UploadVideo(context.Background(), "clip.mp4", bytes.NewReader(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "video_id")
}
