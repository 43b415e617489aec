package player

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"

	"github.com/statsgames/statscore/internal/platform/errors"
)

const tracerName = "github.com/statsgames/statscore/internal/services/player"

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the upstream stats API. It carries no caching; the Service
// layers the cache on top.
type Client struct {
	baseURL    string
	httpClient httpDoer
}

// NewClient constructs an upstream client for the configured base URL.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	doer := httpDoer(http.DefaultClient)
	if httpClient != nil {
		doer = httpClient
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: doer,
	}
}

// upstreamErrorBody is the JSON error shape the stats API returns on non-2xx.
type upstreamErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// FetchPlayer retrieves raw player statistics for a tag.
//
// The tag is percent-encoded into the query string as-is; normalization for
// cache identity is the cache layer's concern, not the wire's.
func (c *Client) FetchPlayer(ctx context.Context, tag string) (json.RawMessage, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "player.FetchPlayer")
	defer span.End()
	span.SetAttributes(attribute.String("upstream.base_url", c.baseURL))

	endpoint := c.baseURL + "/player?tag=" + url.QueryEscape(tag)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build player request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "upstream unreachable")
		return nil, errors.Wrap(errors.CodeUpstreamUnreachable, "upstream stats API unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Best-effort parse of the error body; a malformed body still
		// yields a status-coded error.
		var body upstreamErrorBody
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)
		message := body.Error
		if message == "" {
			message = fmt.Sprintf("HTTP error %d", resp.StatusCode)
		}
		span.SetStatus(otelcodes.Error, message)
		return nil, errors.WithMetadata(errors.CodeUpstreamStatus, message, map[string]string{
			"status":  strconv.Itoa(resp.StatusCode),
			"details": body.Details,
		})
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(errors.CodeUpstreamUnreachable, "read upstream response", err)
	}
	if !json.Valid(payload) {
		return nil, errors.New(errors.CodeUpstreamStatus, "upstream returned malformed JSON")
	}

	return json.RawMessage(payload), nil
}

// CheckHealth issues a lightweight request to the upstream root endpoint.
//
// It reports availability instead of failing: a network error is captured in
// the returned error alongside available=false.
func (c *Client) CheckHealth(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return false, fmt.Errorf("build health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, errors.Wrap(errors.CodeUpstreamUnreachable, "cannot reach upstream stats API", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return resp.StatusCode >= 200 && resp.StatusCode <= 299, nil
}
