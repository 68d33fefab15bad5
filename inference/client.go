// Package inference is the HTTP client for the external AI inference
// service. The service is opaque to this backend: it accepts uploaded
// video, runs detection models, and reports results either in one batch
// response or as a newline-delimited JSON stream.
package inference

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"github.com/skywatch/backend/models"
)

// Client talks to the inference service
type Client struct {
	baseURL string
	http    *http.Client
	// streaming responses stay open for the length of the video, so the
	// stream client carries no overall timeout; cancellation comes from
	// the request context
	stream *http.Client
}

// New creates a client for the given base URL (e.g. http://localhost:8000)
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
		stream: &http.Client{},
	}
}

// StreamError is a failure reported by the service inside the stream
// body rather than via HTTP status. The message is surfaced to the
// dashboard verbatim.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return e.Message
}

// DetectVideo runs batch detection for an uploaded video. One POST, one
// full response, no retry.
func (c *Client) DetectVideo(ctx context.Context, videoID string, req models.DetectionRequest) (*models.DetectionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/detect/video/%s", c.baseURL, videoID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("detection request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("detection failed: %s: %s", resp.Status, respBody)
	}

	var result models.DetectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	for i := range result.Detections {
		result.Detections[i].Normalize()
	}
	return &result, nil
}

// ClassifyVideo runs whole-video classification. Same contract as
// DetectVideo: one POST, one full response, no retry.
func (c *Client) ClassifyVideo(ctx context.Context, videoID string, req models.ClassificationRequest) (*models.ClassificationResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/classify/video/%s", c.baseURL, videoID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("classification request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("classification failed: %s: %s", resp.Status, respBody)
	}

	var result models.ClassificationResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

// StreamDetect runs streaming detection and invokes fn for every decoded
// record, in arrival order. Lines are buffered across reads so records
// split over multiple network chunks still decode whole; malformed lines
// are logged and skipped without aborting the stream. Processing stops on
// a "complete" record, on a record carrying an error field (returned as
// *StreamError), on a callback error, or on context cancellation.
func (c *Client) StreamDetect(ctx context.Context, videoID string, req models.DetectionRequest, fn func(models.StreamRecord) error) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/detect/video/%s/stream", c.baseURL, videoID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.stream.Do(httpReq)
	if err != nil {
		return fmt.Errorf("stream request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("stream failed: %s: %s", resp.Status, respBody)
	}

	reader := bufio.NewReader(resp.Body)
	for {
		line, readErr := reader.ReadString('\n')

		if trimmed := strings.TrimSpace(line); trimmed != "" {
			var record models.StreamRecord
			if err := json.Unmarshal([]byte(trimmed), &record); err != nil {
				// Skip the bad line, keep the stream alive
				log.Printf("⚠️ Skipping malformed stream line for video %s: %v", videoID, err)
			} else {
				if record.Error != "" {
					return &StreamError{Message: record.Error}
				}

				for i := range record.Detections {
					record.Detections[i].Normalize()
				}

				if err := fn(record); err != nil {
					return err
				}

				if record.Type == models.StreamTypeComplete {
					return nil
				}
			}
		}

		if readErr != nil {
			if readErr == io.EOF {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read stream: %w", readErr)
		}
	}
}

// videoContentTypes covers the common container extensions; unlisted ones
// fall through to the system MIME table
var videoContentTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
}

// partContentType derives the multipart part Content-Type from the filename
func partContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := videoContentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "video/mp4"
}

// UploadVideo relays a video file to the inference service and returns
// the opaque video identifier it assigns. The multipart body is piped so
// the relay never holds a whole video in memory.
func (c *Client) UploadVideo(ctx context.Context, filename string, file io.Reader) (string, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
		h.Set("Content-Type", partContentType(filename))

		part, err := writer.CreatePart(h)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	url := c.baseURL + "/api/v1/video/upload"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("upload failed: %s: %s", resp.Status, respBody)
	}

	var result models.VideoUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if result.VideoID == "" {
		return "", fmt.Errorf("upload response missing video_id")
	}
	return result.VideoID, nil
}

// ModelInfo describes a detection model offered by the inference service
type ModelInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Accuracy    string `json:"accuracy"`
	Speed       string `json:"speed"`
}

// ListModels fetches the available detection models
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/detect/models", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("models request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("models request failed: %s", resp.Status)
	}

	var result struct {
		Models []ModelInfo `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return result.Models, nil
}
