package tripapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"rally/trips"
)

const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultTimeout = 45 * time.Second
)

// APIError is returned when the trip service answers with a status >= 400.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API %d: %s", e.StatusCode, e.Message)
}

// Client talks to the remote trip service. Every trip it returns has been
// through trips.Normalize.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// VoiceAudio is a recorded voice command.
type VoiceAudio struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type voiceIntentPayload struct {
	Transcript   string              `json:"transcript"`
	Decision     trips.VoiceDecision `json:"decision"`
	AgentMessage string              `json:"agent_message"`
	Trip         json.RawMessage     `json:"trip"`
}

// CreateTrip normalizes and validates the form inputs, then asks the service
// to generate a trip.
func (c *Client) CreateTrip(ctx context.Context, inputs trips.TripFormInputs) (trips.TripPlan, error) {
	inputs = inputs.Normalize()
	if err := inputs.Validate(); err != nil {
		return trips.TripPlan{}, err
	}
	return c.doTrip(ctx, http.MethodPost, "/v1/trips", inputs)
}

func (c *Client) GetTrip(ctx context.Context, tripID string) (trips.TripPlan, error) {
	return c.doTrip(ctx, http.MethodGet, tripPath(tripID), nil)
}

func (c *Client) SkipBlock(ctx context.Context, tripID, blockID string) (trips.TripPlan, error) {
	return c.doTrip(ctx, http.MethodPost, blockPath(tripID, blockID, "skip"), nil)
}

func (c *Client) ChangeBlock(ctx context.Context, tripID, blockID string, payload trips.ChangeBlockPayload) (trips.TripPlan, error) {
	if err := payload.Validate(); err != nil {
		return trips.TripPlan{}, err
	}
	return c.doTrip(ctx, http.MethodPost, blockPath(tripID, blockID, "change"), payload)
}

// VoiceIntent uploads a voice command for a trip. The trip embedded in the
// answer is normalized like any other trip response.
func (c *Client) VoiceIntent(ctx context.Context, tripID string, audio VoiceAudio) (trips.VoiceIntentResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("trip_id", tripID); err != nil {
		return trips.VoiceIntentResponse{}, err
	}

	filename := audio.Filename
	if filename == "" {
		filename = "audio.webm"
	}
	contentType := audio.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return trips.VoiceIntentResponse{}, err
	}
	if audio.Body != nil {
		if _, err := io.Copy(part, audio.Body); err != nil {
			return trips.VoiceIntentResponse{}, err
		}
	}
	if err := writer.Close(); err != nil {
		return trips.VoiceIntentResponse{}, err
	}

	data, err := c.do(ctx, http.MethodPost, "/v1/voice/intent", writer.FormDataContentType(), &body)
	if err != nil {
		return trips.VoiceIntentResponse{}, err
	}

	var payload voiceIntentPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return trips.VoiceIntentResponse{}, fmt.Errorf("%w: %s", trips.ErrInvalidResponseShape, err)
	}

	plan, err := trips.ParseTripPlan(payload.Trip)
	if err != nil {
		return trips.VoiceIntentResponse{}, err
	}

	return trips.VoiceIntentResponse{
		Transcript:   payload.Transcript,
		Decision:     payload.Decision,
		AgentMessage: payload.AgentMessage,
		Trip:         plan,
	}, nil
}

// DownloadCalendar returns the service's iCalendar export of a trip.
func (c *Client) DownloadCalendar(ctx context.Context, tripID string) ([]byte, error) {
	data, err := c.do(ctx, http.MethodGet, tripPath(tripID)+"/calendar.ics", "", nil)
	if err != nil {
		return nil, fmt.Errorf("calendar download failed: %w", err)
	}
	return data, nil
}

func (c *Client) doTrip(ctx context.Context, method, path string, payload interface{}) (trips.TripPlan, error) {
	var body io.Reader
	contentType := ""
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return trips.TripPlan{}, err
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	data, err := c.do(ctx, method, path, contentType, body)
	if err != nil {
		return trips.TripPlan{}, err
	}
	return trips.ParseTripPlan(data)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, parseAPIError(resp)
	}

	return io.ReadAll(resp.Body)
}

func parseAPIError(resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	text := strings.TrimSpace(string(data))
	if err != nil || text == "" {
		return &APIError{StatusCode: resp.StatusCode, Message: statusText(resp)}
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: text}
	}

	if msg, ok := payload["error"].(string); ok && msg != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if errField, ok := payload["error"].(map[string]interface{}); ok {
		if msg, ok := errField["message"].(string); ok && msg != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: msg}
		}
	}
	if msg, ok := payload["detail"].(string); ok && msg != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	return &APIError{StatusCode: resp.StatusCode, Message: text}
}

func statusText(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}

func tripPath(tripID string) string {
	return "/v1/trips/" + url.PathEscape(tripID)
}

func blockPath(tripID, blockID, action string) string {
	return tripPath(tripID) + "/blocks/" + url.PathEscape(blockID) + "/" + action
}

// IsNotFound reports whether err is a 404 from the trip service.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
