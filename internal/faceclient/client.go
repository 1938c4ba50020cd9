// Package faceclient is the HTTP client for the external biometric
// verification service. The service enrolls per-user photo sets and
// recognizes probe images against them; Cardea treats its responses as
// untrusted input and never grants access on an ambiguous answer.
package faceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cardea-project/cardea/internal/cardea/types"
)

// ErrUnavailable covers every outcome where the service could not give a
// usable answer: connection failure, timeout, non-2xx on recognize, or a
// malformed body. Callers must treat it as "no decision", never as a match.
var ErrUnavailable = errors.New("verification service unavailable")

// EnrollReason classifies an enrollment rejection.
type EnrollReason string

const (
	ReasonNoFaceDetected EnrollReason = "no-face-detected"
	ReasonDecodeError    EnrollReason = "decode-error"
	ReasonInternal       EnrollReason = "internal"
)

// EnrollError is a rejection from the enroll endpoint with the service's
// stated reason, so the user can be told which photo to retake.
type EnrollError struct {
	Label   types.PhotoLabel
	Reason  EnrollReason
	Message string
}

func (e *EnrollError) Error() string {
	return fmt.Sprintf("enroll %s photo rejected (%s): %s", e.Label, e.Reason, e.Message)
}

// maxResponseBody caps how much of a service response is read. The
// recognize body is a short JSON id list; anything bigger is malformed.
const maxResponseBody = 1 << 20

type Config struct {
	// BaseURL of the verification service, e.g. "http://faces:8000".
	BaseURL string

	// Timeout for a single enroll or recognize call. The face model is
	// slow; default 15s.
	Timeout time.Duration

	// RequestsPerSecond throttles outbound calls. The model saturates a
	// core per request, so uncapped concurrent probes take the service
	// down. 0 disables throttling.
	RequestsPerSecond float64
	Burst             int
}

type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	limit := rate.Inf
	burst := cfg.Burst
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		if burst <= 0 {
			burst = 1
		}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Enroll uploads one photo angle for the given user. The label becomes the
// stored filename ("front.png" etc), which is how the service keys the
// angle within the user's enrollment set.
func (c *Client) Enroll(ctx context.Context, userID string, label types.PhotoLabel, image []byte) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	url := fmt.Sprintf("%s/enroll/%s", c.baseURL, userID)
	resp, err := c.postImage(ctx, url, string(label)+".png", image)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%w: read enroll response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusBadRequest:
		return &EnrollError{
			Label:   label,
			Reason:  classifyEnrollDetail(body),
			Message: errorDetail(body),
		}
	default:
		return &EnrollError{
			Label:   label,
			Reason:  ReasonInternal,
			Message: errorDetail(body),
		}
	}
}

// Recognize submits a probe image and returns the ids the service matched.
// An empty slice is a valid answer (no face confidently identified); only
// transport or protocol failures return an error.
func (c *Client) Recognize(ctx context.Context, image []byte) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := c.postImage(ctx, c.baseURL+"/recognize", "probe.png", image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: recognize returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed struct {
		RecognizedIDs []string `json:"recognized_ids"`
	}
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody))
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed recognize response: %v", ErrUnavailable, err)
	}

	return parsed.RecognizedIDs, nil
}

func (c *Client) postImage(ctx context.Context, url, filename string, image []byte) (*http.Response, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(image); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.http.Do(req)
}

// errorDetail pulls the human-readable message out of the service's error
// body, which is shaped {"detail": "..."}.
func errorDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Detail == "" {
		return strings.TrimSpace(string(body))
	}
	return parsed.Detail
}

func classifyEnrollDetail(body []byte) EnrollReason {
	detail := strings.ToLower(errorDetail(body))
	switch {
	case strings.Contains(detail, "invalid image"):
		return ReasonDecodeError
	case strings.Contains(detail, "face"):
		return ReasonNoFaceDetected
	default:
		return ReasonInternal
	}
}
