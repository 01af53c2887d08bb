package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vinitafleet/driveops/internal/client/models"
)

// HTTPGateway implements Gateway over net/http against a single endpoint URL.
type HTTPGateway struct {
	endpointURL string
	client      *http.Client
}

// NewHTTPGateway returns a gateway with a bounded request timeout. The
// timeout caps every call, so a hung request cannot stall the single-flight
// drain indefinitely.
func NewHTTPGateway(endpointURL string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		endpointURL: endpointURL,
		client:      &http.Client{Timeout: timeout},
	}
}

// envelope is the synchronous-path response shape.
type envelope struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Error    string `json:"error"`
	ID       string `json:"id"`
	RecordID string `json:"recordId"`
}

func (e *envelope) reason() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

func (e *envelope) serverID() string {
	if e.RecordID != "" {
		return e.RecordID
	}
	return e.ID
}

func (g *HTTPGateway) Submit(ctx context.Context, kind models.ActionKind, payload json.RawMessage, idempotencyKey, token string) (*Ack, error) {
	body, err := buildBody(kind, payload, idempotencyKey)
	if err != nil {
		return nil, err
	}

	raw, err := g.post(ctx, body, token)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("malformed response: %w", err)}
	}
	if !env.Success {
		return nil, &ValidationError{Message: env.reason()}
	}
	return &Ack{ServerID: env.serverID(), Message: env.Message}, nil
}

func (g *HTTPGateway) Query(ctx context.Context, kind models.ActionKind, reqBody any, token string, out any) error {
	body, err := buildQueryBody(kind, reqBody)
	if err != nil {
		return err
	}

	raw, err := g.post(ctx, body, token)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &NetworkError{Err: fmt.Errorf("malformed response: %w", err)}
	}
	if !env.Success {
		return &ValidationError{Message: env.reason()}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &NetworkError{Err: fmt.Errorf("malformed response: %w", err)}
	}
	return nil
}

func (g *HTTPGateway) Download(ctx context.Context, kind models.ActionKind, reqBody any, token string) ([]byte, error) {
	body, err := buildQueryBody(kind, reqBody)
	if err != nil {
		return nil, err
	}
	return g.post(ctx, body, token)
}

func (g *HTTPGateway) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpointURL, nil)
	if err != nil {
		return err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// post sends the prepared body and classifies the transport outcome.
func (g *HTTPGateway) post(ctx context.Context, body []byte, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpointURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, &NetworkError{Err: fmt.Errorf("remote returned %s", resp.Status)}
	case resp.StatusCode == http.StatusConflict:
		return nil, &ConflictError{Message: string(raw)}
	case resp.StatusCode >= 400:
		return nil, &ValidationError{Message: fmt.Sprintf("%s: %s", resp.Status, raw)}
	}
	return raw, nil
}

// buildBody flattens the kind-specific payload fields into the wire object
// next to the action tag and the idempotency key.
func buildBody(kind models.ActionKind, payload json.RawMessage, idempotencyKey string) ([]byte, error) {
	m := map[string]any{}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, fmt.Errorf("building %s request: %w", kind, err)
		}
	}
	m["action"] = string(kind)
	if idempotencyKey != "" {
		m["idempotencyKey"] = idempotencyKey
	}
	return json.Marshal(m)
}

func buildQueryBody(kind models.ActionKind, reqBody any) ([]byte, error) {
	if reqBody == nil {
		return json.Marshal(map[string]any{"action": string(kind)})
	}
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", kind, err)
	}
	return buildBody(kind, raw, "")
}
