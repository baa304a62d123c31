// Package detector invokes the external object detection service and
// renders annotated overlays.
package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/signumlab/signum/internal/domain"
)

// Client runs inference through an HTTP model service. One image is
// posted per request; the service answers with detected boxes and its
// label vocabulary.
type Client struct {
	endpoint   string
	healthPath string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a detection client for the given service endpoint.
func NewClient(endpoint, healthPath string, timeout time.Duration, logger *slog.Logger) *Client {
	if healthPath == "" {
		healthPath = "/health"
	}
	return &Client{
		endpoint:   endpoint,
		healthPath: healthPath,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "detector"),
	}
}

// inferenceResponse is the wire format of the model service.
type inferenceResponse struct {
	Boxes []struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
		X0         int     `json:"x0"`
		Y0         int     `json:"y0"`
		X1         int     `json:"x1"`
		Y1         int     `json:"y1"`
	} `json:"boxes"`
	Names []string `json:"names"`
}

// Detect runs the model on one image and reduces the result to
// per-class flags plus a rendered overlay. Errors here abort the whole
// batch run.
func (c *Client) Detect(ctx context.Context, path string) (*domain.Detection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.InferenceError{Path: path, Err: err}
	}

	inference, err := c.infer(ctx, filepath.Base(path), data)
	if err != nil {
		return nil, &domain.InferenceError{Path: path, Err: err}
	}

	overlay, err := renderOverlay(data, inference.Boxes)
	if err != nil {
		return nil, &domain.InferenceError{Path: path, Err: err}
	}

	c.logger.Debug("inference complete",
		"path", path, "boxes", len(inference.Boxes))

	return &domain.Detection{
		Flags:   domain.FlagsFromBoxes(inference.Boxes),
		Overlay: overlay,
	}, nil
}

// infer posts the image to the model service and decodes the response.
func (c *Client) infer(ctx context.Context, filename string, data []byte) (*domain.Inference, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference failed with status: %d", resp.StatusCode)
	}

	var wire inferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	inference := &domain.Inference{
		Boxes: make([]domain.Box, 0, len(wire.Boxes)),
		Names: wire.Names,
	}
	for _, b := range wire.Boxes {
		inference.Boxes = append(inference.Boxes, domain.Box{
			Label:      b.Label,
			Confidence: b.Confidence,
			X0:         b.X0,
			Y0:         b.Y0,
			X1:         b.X1,
			Y1:         b.Y1,
		})
	}
	return inference, nil
}

// CheckHealth probes the model service.
func (c *Client) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+c.healthPath, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model service unhealthy: %d", resp.StatusCode)
	}
	return nil
}
