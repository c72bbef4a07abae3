// Package kontur implements the vendor API ports over the portal's
// private REST endpoints. Requests ride on sessions handed out by the
// session provider; the adapter itself holds no credential state.
package kontur

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

// DefaultBaseURL is the production portal.
const DefaultBaseURL = "https://mk.kontur.ru"

// maxResponseBytes bounds how much of a portal response is read. Label
// files are the largest payloads and stay well under this.
const maxResponseBytes = 32 << 20

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the portal base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(baseURL, "/") }
}

// WithLogger attaches a logger for request-level diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetricsRecorder attaches a recorder for vendor request metrics.
func WithMetricsRecorder(recorder ports.MetricsRecorder) Option {
	return func(c *Client) { c.metrics = recorder }
}

// Client talks to the portal's codes-order, codes-introduction and CRPT
// auth endpoints. One client serves one organization and warehouse.
type Client struct {
	baseURL        string
	organizationID string
	warehouseID    string
	sessions       ports.SessionProvider
	logger         *zap.Logger
	metrics        ports.MetricsRecorder
}

// NewClient creates a portal client scoped to an organization and
// warehouse.
func NewClient(sessions ports.SessionProvider, organizationID, warehouseID string, opts ...Option) *Client {
	c := &Client{
		baseURL:        DefaultBaseURL,
		organizationID: organizationID,
		warehouseID:    warehouseID,
		sessions:       sessions,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// portalResponse is one decoded-enough portal reply.
type portalResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// send performs one portal request. Vendor errors come back already
// classified; the caller only decodes successful bodies.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any) (*portalResponse, error) {
	sess, err := c.sessions.Session(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, domain.VendorError("encode request payload", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return nil, domain.VendorError("build portal request", err)
	}
	for k, v := range domain.BrowserHeaders() {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := sess.Client().Do(req)
	if err != nil {
		c.recordRequest(method, path, 0)
		return nil, domain.VendorError(fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.recordRequest(method, path, resp.StatusCode)
		return nil, domain.VendorError(fmt.Sprintf("read %s %s response", method, path), err)
	}

	c.recordRequest(method, path, resp.StatusCode)
	if c.logger != nil {
		c.logger.Debug("portal request",
			zap.String("method", method),
			zap.String("path", metricPath(path)),
			zap.Int("status", resp.StatusCode),
			zap.Duration("took", time.Since(start)))
	}

	if resp.StatusCode >= 400 {
		return nil, statusError(method, path, resp.StatusCode, data)
	}
	return &portalResponse{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// call performs a request and decodes the JSON response into out.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	resp, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return domain.VendorError(fmt.Sprintf("decode %s %s response", method, path), err)
	}
	return nil
}

// statusError classifies a portal error response. Session rejection
// means the harvested cookies died; 4xx on a document is the portal
// refusing the submission; everything else is unexpected.
func statusError(method, path string, status int, body []byte) error {
	detail := strings.TrimSpace(string(body))
	if len(detail) > 500 {
		detail = detail[:500]
	}
	msg := fmt.Sprintf("%s %s: HTTP %d", method, path, status)
	if detail != "" {
		msg += ": " + detail
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.CredentialError("portal rejected the session: "+msg, nil)
	case status >= 400 && status < 500:
		return domain.SubmissionError(msg, nil)
	default:
		return domain.VendorError(msg, nil)
	}
}

func (c *Client) recordRequest(method, path string, status int) {
	if c.metrics != nil {
		c.metrics.RecordVendorRequest(method+" "+metricPath(path), status)
	}
}

// metricPath collapses document ids out of a path so metric labels stay
// low-cardinality.
func metricPath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if looksLikeID(s) {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

func looksLikeID(s string) bool {
	if _, err := uuid.Parse(s); err == nil {
		return true
	}
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// warehouseQuery scopes a request to the client's warehouse.
func (c *Client) warehouseQuery() url.Values {
	return url.Values{"warehouseId": {c.warehouseID}}
}

// organizationQuery scopes a request to the client's organization.
func (c *Client) organizationQuery() url.Values {
	return url.Values{"organizationId": {c.organizationID}}
}

// extractID pulls a document id out of a create response. The portal is
// inconsistent here: some endpoints return {"id": ...}, some a bare
// JSON string, some only a Location header.
func extractID(resp *portalResponse) (string, error) {
	if id := idFromJSON(resp.Body); id != "" {
		return id, nil
	}
	if loc := resp.Header.Get("Location"); loc != "" {
		trimmed := strings.TrimSuffix(loc, "/")
		if i := strings.LastIndex(trimmed, "/"); i >= 0 && i+1 < len(trimmed) {
			return trimmed[i+1:], nil
		}
	}
	return "", domain.VendorError("cannot determine document id from create response", nil)
}

func idFromJSON(data []byte) string {
	var obj struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err == nil && len(obj.ID) > 0 {
		if id := scalarString(obj.ID); id != "" {
			return id
		}
	}
	return scalarString(data)
}

// scalarString renders a JSON string or number scalar as a plain string.
func scalarString(data []byte) string {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		return n.String()
	}
	return ""
}

// Interface guards: one client implements every vendor API port.
var (
	_ ports.OrderAPI       = (*Client)(nil)
	_ ports.CirculationAPI = (*Client)(nil)
	_ ports.AuthAPI        = (*Client)(nil)
	_ ports.CodesFileAPI   = (*Client)(nil)
)
