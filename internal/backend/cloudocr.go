package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"log/slog"
	"net/http"
	"time"

	"github.com/libriscan/libriscan/internal/frame"
	"github.com/libriscan/libriscan/internal/isbn"
)

// The OCR signal arrives pre-filtered through ISBN validation, so few false
// positives survive; the constant reflects that.
const cloudOCRConfidence = 0.9

// DefaultCloudOCRTimeout bounds one annotate round-trip so a slow endpoint
// contributes a nil candidate instead of stalling the whole arbitration.
const DefaultCloudOCRTimeout = 4 * time.Second

// CloudOCRConfig configures the optional remote text-recognition backend.
// The backend stays disabled unless both Endpoint and APIKey are set.
type CloudOCRConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// CloudOCR posts the frame to a Vision-style annotate endpoint and filters
// the returned text annotations for ISBN-shaped strings. It is one more
// backend, never required for correctness.
type CloudOCR struct {
	cfg    CloudOCRConfig
	client *http.Client
}

// NewCloudOCR returns the cloud OCR backend. A nil httpClient uses
// http.DefaultClient; per-request deadlines come from the configured timeout.
func NewCloudOCR(cfg CloudOCRConfig, httpClient *http.Client) *CloudOCR {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCloudOCRTimeout
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &CloudOCR{cfg: cfg, client: httpClient}
}

func (c *CloudOCR) Name() string { return MethodCloudOCR.String() }

// Enabled reports whether the backend has credentials to work with.
func (c *CloudOCR) Enabled() bool {
	return c.cfg.Endpoint != "" && c.cfg.APIKey != ""
}

type annotateRequest struct {
	Requests []annotateRequestEntry `json:"requests"`
}

type annotateRequestEntry struct {
	Image    annotateImage     `json:"image"`
	Features []annotateFeature `json:"features"`
}

type annotateImage struct {
	Content string `json:"content"`
}

type annotateFeature struct {
	Type string `json:"type"`
}

type annotateResponse struct {
	Responses []struct {
		TextAnnotations []struct {
			Description string `json:"description"`
		} `json:"textAnnotations"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

func (c *CloudOCR) Attempt(ctx context.Context, f *frame.Frame) *Candidate {
	if !c.Enabled() {
		return nil
	}
	return attemptSafely(c.Name(), func() *Candidate {
		ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		text, err := c.annotate(ctx, f)
		if err != nil {
			slog.Debug("cloud OCR attempt failed", "error", err)
			return nil
		}
		found := isbn.Extract(text)
		if len(found) == 0 {
			return nil
		}
		return &Candidate{
			Text:       found[0],
			Format:     "OCR",
			Confidence: cloudOCRConfidence,
			Method:     MethodCloudOCR,
		}
	})
}

func (c *CloudOCR) annotate(ctx context.Context, f *frame.Frame) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, f.Image()); err != nil {
		return "", fmt.Errorf("encode frame: %w", err)
	}

	payload, err := json.Marshal(annotateRequest{
		Requests: []annotateRequestEntry{{
			Image:    annotateImage{Content: base64.StdEncoding.EncodeToString(buf.Bytes())},
			Features: []annotateFeature{{Type: "TEXT_DETECTION"}},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal annotate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.Endpoint+"?key="+c.cfg.APIKey, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build annotate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("annotate request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("annotate endpoint returned status %d", resp.StatusCode)
	}

	var decoded annotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode annotate response: %w", err)
	}
	if len(decoded.Responses) == 0 {
		return "", nil
	}
	r := decoded.Responses[0]
	if r.Error != nil {
		return "", fmt.Errorf("annotate endpoint error: %s", r.Error.Message)
	}

	var all bytes.Buffer
	for _, ann := range r.TextAnnotations {
		all.WriteString(ann.Description)
		all.WriteByte('\n')
	}
	return all.String(), nil
}
