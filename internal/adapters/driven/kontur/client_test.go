//go:build unit

package kontur

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
)

const (
	testOrgID       = "5cda50fa-523f-4bb5-85b6-66d7241b23cd"
	testWarehouseID = "59739360-7d62-434b-ad13-4617c87a6d13"
)

// staticSessions hands out one prebuilt session.
type staticSessions struct {
	session *domain.Session
	err     error
}

func (s *staticSessions) Session(ctx context.Context) (*domain.Session, error) {
	return s.session, s.err
}

func (s *staticSessions) TriggerRefresh() {}

// recordedRequest captures what the portal handler saw.
type recordedRequest struct {
	Method string
	Path   string
	Query  map[string]string
	Body   []byte
	Header http.Header
}

// portalRecorder is an httptest handler that records requests and
// replays scripted responses keyed by "METHOD path".
type portalRecorder struct {
	mu        sync.Mutex
	requests  []recordedRequest
	responses map[string]func(w http.ResponseWriter)
}

func newPortalRecorder() *portalRecorder {
	return &portalRecorder{responses: make(map[string]func(w http.ResponseWriter))}
}

func (p *portalRecorder) respond(method, path string, fn func(w http.ResponseWriter)) {
	p.responses[method+" "+path] = fn
}

func (p *portalRecorder) respondJSON(method, path string, status int, body string) {
	p.respond(method, path, func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	})
}

func (p *portalRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	query := make(map[string]string)
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			query[k] = vs[0]
		}
	}
	p.mu.Lock()
	p.requests = append(p.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  query,
		Body:   body,
		Header: r.Header.Clone(),
	})
	fn := p.responses[r.Method+" "+r.URL.Path]
	p.mu.Unlock()

	if fn == nil {
		http.NotFound(w, r)
		return
	}
	fn(w)
}

func (p *portalRecorder) last(t *testing.T) recordedRequest {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.requests) == 0 {
		t.Fatal("no requests recorded")
	}
	return p.requests[len(p.requests)-1]
}

// newTestClient wires a Client against an in-process portal.
func newTestClient(t *testing.T, portal *portalRecorder) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(portal)
	t.Cleanup(server.Close)

	creds := domain.NewCredentialSet(map[string]string{"auth.sid": "test-token"}, time.Now())
	sess, err := domain.NewSession(server.URL, creds, []string{"auth.sid"}, 5*time.Second, time.Now())
	if err != nil {
		t.Fatalf("build session: %v", err)
	}

	client := NewClient(&staticSessions{session: sess}, testOrgID, testWarehouseID,
		WithBaseURL(server.URL))
	return client, server
}

func TestCreateOrder_SingleShot(t *testing.T) {
	portal := newPortalRecorder()
	portal.respondJSON(http.MethodPost, "/api/v1/codes-order", http.StatusOK, `{"id": "order-123"}`)
	client, _ := newTestClient(t, portal)

	draft := domain.OrderDraft{
		DocumentNumber:    "DOC-1",
		ProductGroup:      "wheelChairs",
		ReleaseMethodType: "production",
		FillingMethod:     "productsCatalog",
		CisType:           "unit",
		Positions: []domain.Position{
			{GTIN: "04660537612754", Name: "Gloves", TNVEDCode: "4015120009", Quantity: 90},
		},
	}

	id, err := client.CreateOrder(context.Background(), draft)
	if err != nil {
		t.Fatalf("CreateOrder() failed: %v", err)
	}
	if id != "order-123" {
		t.Errorf("id = %q, want order-123", id)
	}

	req := portal.last(t)
	if req.Query["warehouseId"] != testWarehouseID {
		t.Errorf("warehouseId = %q, want %q", req.Query["warehouseId"], testWarehouseID)
	}

	// The wire payload must carry the vendor's exact field names.
	var sent map[string]any
	if err := json.Unmarshal(req.Body, &sent); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	for _, key := range []string{"documentNumber", "comment", "productGroup", "releaseMethodType", "fillingMethod", "cisType", "positions"} {
		if _, ok := sent[key]; !ok {
			t.Errorf("request body missing field %q", key)
		}
	}
}

func TestCreateOrder_InvalidDraftRejectedLocally(t *testing.T) {
	portal := newPortalRecorder()
	client, _ := newTestClient(t, portal)

	_, err := client.CreateOrder(context.Background(), domain.OrderDraft{})
	var appErr *domain.AppError
	if !errors.As(err, &appErr) || appErr.Code != domain.ErrCodeSubmission {
		t.Fatalf("want submission_error, got %v", err)
	}

	portal.mu.Lock()
	defer portal.mu.Unlock()
	if len(portal.requests) != 0 {
		t.Error("invalid draft must not reach the portal")
	}
}

func TestCreateOrderStub_IDFromBareString(t *testing.T) {
	portal := newPortalRecorder()
	portal.respondJSON(http.MethodPost, "/api/v1/codes-order", http.StatusOK, `"bare-id-456"`)
	client, _ := newTestClient(t, portal)

	id, err := client.CreateOrderStub(context.Background(), domain.OrderStub{ReleaseMethodType: "production"})
	if err != nil {
		t.Fatalf("CreateOrderStub() failed: %v", err)
	}
	if id != "bare-id-456" {
		t.Errorf("id = %q, want bare-id-456", id)
	}
}

func TestCreateOrderStub_IDFromLocationHeader(t *testing.T) {
	portal := newPortalRecorder()
	portal.respond(http.MethodPost, "/api/v1/codes-order", func(w http.ResponseWriter) {
		w.Header().Set("Location", "/api/v1/codes-order/loc-789/")
		w.WriteHeader(http.StatusCreated)
	})
	client, _ := newTestClient(t, portal)

	id, err := client.CreateOrderStub(context.Background(), domain.OrderStub{})
	if err != nil {
		t.Fatalf("CreateOrderStub() failed: %v", err)
	}
	if id != "loc-789" {
		t.Errorf("id = %q, want loc-789", id)
	}
}

func TestMultistepOrderFlow(t *testing.T) {
	portal := newPortalRecorder()
	portal.respondJSON(http.MethodPost, "/api/v1/codes-order", http.StatusOK, `{"id": "order-1"}`)
	portal.respondJSON(http.MethodPut, "/api/v1/codes-order/order-1", http.StatusOK, `{}`)
	portal.respondJSON(http.MethodPost, "/api/v1/codes-order/order-1/positions/position", http.StatusOK, `{"id": 17}`)
	portal.respondJSON(http.MethodPatch, "/api/v1/codes-order/order-1/positions/17", http.StatusOK, `{}`)
	client, _ := newTestClient(t, portal)
	ctx := context.Background()

	id, err := client.CreateOrderStub(ctx, domain.OrderStub{ReleaseMethodType: "production", ProductGroup: "wheelChairs"})
	if err != nil {
		t.Fatalf("CreateOrderStub() failed: %v", err)
	}

	update := domain.OrderUpdate{
		DocumentNumber: "DOC-2",
		FillingMethod:  "productsCatalog",
		PaymentType:    domain.PaymentTypeUponApplication,
		CisType:        "unit",
	}
	if err := client.UpdateOrder(ctx, id, update); err != nil {
		t.Fatalf("UpdateOrder() failed: %v", err)
	}

	posID, err := client.AddPosition(ctx, id, domain.PositionDraft{GTIN: "04660537612754", Name: "Gloves", TNVEDCode: "4015120009"})
	if err != nil {
		t.Fatalf("AddPosition() failed: %v", err)
	}
	// Numeric position ids come back as their decimal form.
	if posID != "17" {
		t.Errorf("position id = %q, want 17", posID)
	}

	if err := client.UpdatePosition(ctx, id, posID, domain.PositionPatch{Name: "Gloves", Quantity: 90, TNVEDCode: "4015120009"}); err != nil {
		t.Fatalf("UpdatePosition() failed: %v", err)
	}

	req := portal.last(t)
	var patch map[string]any
	if err := json.Unmarshal(req.Body, &patch); err != nil {
		t.Fatalf("patch body is not JSON: %v", err)
	}
	if patch["quantity"] != float64(90) {
		t.Errorf("patch quantity = %v, want 90", patch["quantity"])
	}
}

func TestGetOrder_StatusAndIDFallback(t *testing.T) {
	portal := newPortalRecorder()
	portal.respondJSON(http.MethodGet, "/api/v1/codes-order/order-9", http.StatusOK, `{"status": "available", "documentNumber": "DOC-9"}`)
	client, _ := newTestClient(t, portal)

	order, err := client.GetOrder(context.Background(), "order-9")
	if err != nil {
		t.Fatalf("GetOrder() failed: %v", err)
	}
	if order.Status != domain.StatusAvailable {
		t.Errorf("Status = %q, want available", order.Status)
	}
	if order.ID != "order-9" {
		t.Errorf("ID = %q, want order-9 (filled from request)", order.ID)
	}
}

func TestDocumentsToSignAndSubmit(t *testing.T) {
	portal := newPortalRecorder()
	portal.respondJSON(http.MethodGet, "/api/v1/codes-order/order-1/documents-to-sign", http.StatusOK,
		`[{"uuid": "u1", "base64Data": "AAAA"}, {"uuid": "u2", "base64Data": "BBBB"}]`)
	portal.respondJSON(http.MethodPost, "/api/v1/codes-order/order-1/documents-to-sign", http.StatusOK, ``)
	client, _ := newTestClient(t, portal)
	ctx := context.Background()

	signables, err := client.DocumentsToSign(ctx, "order-1")
	if err != nil {
		t.Fatalf("DocumentsToSign() failed: %v", err)
	}
	if len(signables) != 2 || signables[0].ID != "u1" || signables[0].Base64Content != "AAAA" {
		t.Errorf("unexpected signables: %+v", signables)
	}

	items := []domain.SignedItem{{ID: "u1", Signature: "sig1"}, {ID: "u2", Signature: "sig2"}}
	if err := client.SubmitSignatures(ctx, "order-1", items); err != nil {
		t.Fatalf("SubmitSignatures() failed: %v", err)
	}

	var sent []map[string]string
	if err := json.Unmarshal(portal.last(t).Body, &sent); err != nil {
		t.Fatalf("submit body is not JSON: %v", err)
	}
	if sent[0]["uuid"] != "u1" || sent[0]["base64Data"] != "sig1" {
		t.Errorf("submitted items use wrong field names: %+v", sent)
	}
}

func TestStatusErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantCode domain.ErrorCode
	}{
		{"unauthorized", http.StatusUnauthorized, domain.ErrCodeCredential},
		{"forbidden", http.StatusForbidden, domain.ErrCodeCredential},
		{"bad request", http.StatusBadRequest, domain.ErrCodeSubmission},
		{"unprocessable", http.StatusUnprocessableEntity, domain.ErrCodeSubmission},
		{"server error", http.StatusBadGateway, domain.ErrCodeVendor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			portal := newPortalRecorder()
			portal.respondJSON(http.MethodGet, "/api/v1/codes-order/x", tt.status, `{"error": "nope"}`)
			client, _ := newTestClient(t, portal)

			_, err := client.GetOrder(context.Background(), "x")
			var appErr *domain.AppError
			if !errors.As(err, &appErr) || appErr.Code != tt.wantCode {
				t.Errorf("HTTP %d: got %v, want code %s", tt.status, err, tt.wantCode)
			}
		})
	}
}

func TestSessionErrorPassesThrough(t *testing.T) {
	wantErr := domain.CredentialError("no tokens", nil)
	client := NewClient(&staticSessions{err: wantErr}, testOrgID, testWarehouseID)

	_, err := client.GetOrder(context.Background(), "x")
	if !errors.Is(err, wantErr) {
		t.Errorf("session error not passed through: %v", err)
	}
}

func TestBrowserHeadersApplied(t *testing.T) {
	portal := newPortalRecorder()
	portal.respondJSON(http.MethodGet, "/api/v1/codes-order/x", http.StatusOK, `{"status": "created"}`)
	client, _ := newTestClient(t, portal)

	if _, err := client.GetOrder(context.Background(), "x"); err != nil {
		t.Fatalf("GetOrder() failed: %v", err)
	}

	header := portal.last(t).Header
	if ua := header.Get("User-Agent"); ua == "" || ua == "Go-http-client/1.1" {
		t.Errorf("User-Agent = %q, want browser-like", ua)
	}
	if accept := header.Get("Accept"); accept != "application/json, text/plain, */*" {
		t.Errorf("Accept = %q", accept)
	}
	if cookie := header.Get("Cookie"); cookie == "" {
		t.Error("session cookies missing from request")
	}
}

func TestMetricPath_CollapsesIDs(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/codes-order", "/api/v1/codes-order"},
		{"/api/v1/codes-order/5cda50fa-523f-4bb5-85b6-66d7241b23cd", "/api/v1/codes-order/{id}"},
		{"/api/v1/codes-order/17/positions/42", "/api/v1/codes-order/{id}/positions/{id}"},
		{"/api/v1/crpt/auth", "/api/v1/crpt/auth"},
	}
	for _, tt := range tests {
		if got := metricPath(tt.path); got != tt.want {
			t.Errorf("metricPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
