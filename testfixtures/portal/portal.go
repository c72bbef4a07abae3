// Package portal provides a scriptable in-memory marking portal for
// integration testing. It speaks the REST surface the production portal
// does, gated by the auth.sid session cookie, and records everything the
// client submits so tests can inspect it.
package portal

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Position is one product line as the portal stores it.
type Position struct {
	GTIN      string `json:"gtin"`
	Name      string `json:"name"`
	TNVEDCode string `json:"tnvedCode"`
	Quantity  int    `json:"quantity"`
}

// SignedItem is one submitted signature.
type SignedItem struct {
	UUID       string `json:"uuid"`
	Base64Data string `json:"base64Data"`
}

// Challenge is one pending CRPT authentication challenge.
type Challenge struct {
	UUID         string `json:"uuid"`
	ProductGroup string `json:"productGroup"`
	Base64Data   string `json:"base64Data"`
}

// OrderRecord is the portal-side state of a codes order.
type OrderRecord struct {
	ID                string
	DocumentNumber    string
	Comment           string
	ProductGroup      string
	ReleaseMethodType string
	FillingMethod     string
	CisType           string
	PaymentType       string
	Positions         []Position
	WarehouseID       string
}

// IntroductionRecord is the portal-side state of an introduction document.
type IntroductionRecord struct {
	ID          string
	Production  map[string]any
	Rows        []map[string]any
	Sent        bool
	SentToTSD   bool
	WarehouseID string
}

type orderState struct {
	record    OrderRecord
	plan      []string
	planIdx   int
	signables []SignedItem
	submitted []SignedItem
	file      []byte
	positions int
}

type introState struct {
	record IntroductionRecord
}

// Portal is a fake mk.kontur.ru for tests. Create one with New, point
// the client at BaseURL and script behavior through the setters. All
// methods are safe for concurrent use.
type Portal struct {
	server *httptest.Server

	mu            sync.Mutex
	cookieValue   string
	defaultPlan   []string
	signablePlan  []string
	planSignables bool
	nextOrder     int
	nextIntro     int
	orders        map[string]*orderState
	intros        map[string]*introState
	challenges    []Challenge
	answers       []SignedItem
	answerGroups  []string
	certs         []map[string]string
	requests      []string
}

// New starts a fake portal. It accepts any non-empty auth.sid cookie
// until RequireSession narrows it. Call Close when done.
func New(t testing.TB) *Portal {
	t.Helper()

	p := NewStandalone()
	p.server = httptest.NewServer(p.Handler())
	return p
}

// NewStandalone builds a portal without starting a server, for callers
// outside the test harness (see cmd/fakeportal). Serve Handler yourself;
// BaseURL and Close are only meaningful for portals made with New.
func NewStandalone() *Portal {
	return &Portal{
		defaultPlan: []string{"available", "processing", "released"},
		orders:      make(map[string]*orderState),
		intros:      make(map[string]*introState),
	}
}

// Handler returns the portal's HTTP handler.
func (p *Portal) Handler() http.Handler {
	return http.HandlerFunc(p.handle)
}

// Close shuts the fake portal down.
func (p *Portal) Close() {
	if p.server != nil {
		p.server.Close()
	}
}

// BaseURL returns the portal root to configure the client with.
func (p *Portal) BaseURL() string {
	return p.server.URL
}

// RequireSession rejects requests whose auth.sid cookie differs from
// value with 401, the way the production portal drops stale sessions.
func (p *Portal) RequireSession(value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cookieValue = value
}

// PlanStatuses sets the status sequence new orders walk through, one
// step per status poll. The last status repeats.
func (p *Portal) PlanStatuses(statuses ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defaultPlan = statuses
}

// ScriptStatuses replaces the remaining status plan of one order.
func (p *Portal) ScriptStatuses(orderID string, statuses ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if state, ok := p.orders[orderID]; ok {
		state.plan = statuses
		state.planIdx = 0
	}
}

// PlanSignables sets the signing payloads newly created orders hand out
// instead of deriving one per position. No arguments means new orders
// report nothing to sign.
func (p *Portal) PlanSignables(contents ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signablePlan = contents
	p.planSignables = true
}

// ScriptSignables replaces the payloads an order hands out for signing.
// No arguments means the portal reports nothing to sign.
func (p *Portal) ScriptSignables(orderID string, contents ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	state, ok := p.orders[orderID]
	if !ok {
		return
	}
	state.signables = make([]SignedItem, 0, len(contents))
	for i, content := range contents {
		state.signables = append(state.signables, SignedItem{
			UUID:       fmt.Sprintf("%s-doc-%d", orderID, i+1),
			Base64Data: base64.StdEncoding.EncodeToString([]byte(content)),
		})
	}
}

// AddChallenge queues a CRPT authentication challenge.
func (p *Portal) AddChallenge(uuid, productGroup, content string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.challenges = append(p.challenges, Challenge{
		UUID:         uuid,
		ProductGroup: productGroup,
		Base64Data:   base64.StdEncoding.EncodeToString([]byte(content)),
	})
}

// RegisterCertificate adds a certificate to the organization's list.
func (p *Portal) RegisterCertificate(thumbprint, owner string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.certs = append(p.certs, map[string]string{
		"thumbprint": thumbprint,
		"owner":      owner,
	})
}

// SetCodesFile sets the label file an order serves once released.
func (p *Portal) SetCodesFile(orderID string, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if state, ok := p.orders[orderID]; ok {
		state.file = data
	}
}

// Order returns the recorded state of an order.
func (p *Portal) Order(orderID string) (OrderRecord, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	state, ok := p.orders[orderID]
	if !ok {
		return OrderRecord{}, false
	}
	return state.record, true
}

// Introduction returns the recorded state of an introduction document.
func (p *Portal) Introduction(docID string) (IntroductionRecord, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	state, ok := p.intros[docID]
	if !ok {
		return IntroductionRecord{}, false
	}
	return state.record, true
}

// SubmittedSignatures returns the signatures an order received.
func (p *Portal) SubmittedSignatures(orderID string) []SignedItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	state, ok := p.orders[orderID]
	if !ok {
		return nil
	}
	items := make([]SignedItem, len(state.submitted))
	copy(items, state.submitted)
	return items
}

// AuthAnswers returns the signed challenge answers the portal received.
func (p *Portal) AuthAnswers() []SignedItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	answers := make([]SignedItem, len(p.answers))
	copy(answers, p.answers)
	return answers
}

// AnsweredGroups returns the product groups of the answered challenges.
func (p *Portal) AnsweredGroups() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	groups := make([]string, len(p.answerGroups))
	copy(groups, p.answerGroups)
	return groups
}

// Requests returns "METHOD /path" for every request served, in order.
func (p *Portal) Requests() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	reqs := make([]string, len(p.requests))
	copy(reqs, p.requests)
	return reqs
}

func (p *Portal) handle(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.requests = append(p.requests, r.Method+" "+r.URL.Path)
	p.mu.Unlock()

	if !p.authorized(r) {
		http.Error(w, `{"error":"session expired"}`, http.StatusUnauthorized)
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1"), "/")
	segs := strings.Split(path, "/")
	switch segs[0] {
	case "codes-order":
		p.handleOrder(w, r, segs[1:])
	case "codes-introduction":
		p.handleIntroduction(w, r, segs[1:])
	case "crpt":
		p.handleAuth(w, r)
	case "certificates":
		p.handleCertificates(w, r)
	default:
		http.NotFound(w, r)
	}
}

// authorized checks the session cookie the way the portal does: any
// non-empty auth.sid unless a specific value was required.
func (p *Portal) authorized(r *http.Request) bool {
	cookie, err := r.Cookie("auth.sid")
	if err != nil || cookie.Value == "" {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cookieValue == "" || cookie.Value == p.cookieValue
}

func (p *Portal) handleOrder(w http.ResponseWriter, r *http.Request, segs []string) {
	switch {
	case len(segs) == 0 && r.Method == http.MethodPost:
		p.createOrder(w, r)
	case len(segs) == 1 && r.Method == http.MethodGet:
		p.getOrder(w, segs[0])
	case len(segs) == 1 && r.Method == http.MethodPut:
		p.updateOrder(w, r, segs[0])
	case len(segs) == 3 && segs[1] == "positions" && segs[2] == "position" && r.Method == http.MethodPost:
		p.addPosition(w, r, segs[0])
	case len(segs) == 3 && segs[1] == "positions" && r.Method == http.MethodPatch:
		p.updatePosition(w, r, segs[0], segs[2])
	case len(segs) == 2 && segs[1] == "documents-to-sign" && r.Method == http.MethodGet:
		p.documentsToSign(w, segs[0])
	case len(segs) == 2 && segs[1] == "documents-to-sign" && r.Method == http.MethodPost:
		p.submitSignatures(w, r, segs[0])
	case len(segs) == 2 && segs[1] == "file" && r.Method == http.MethodGet:
		p.downloadFile(w, r, segs[0])
	default:
		http.NotFound(w, r)
	}
}

func (p *Portal) createOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DocumentNumber    string     `json:"documentNumber"`
		Comment           string     `json:"comment"`
		ProductGroup      string     `json:"productGroup"`
		ReleaseMethodType string     `json:"releaseMethodType"`
		FillingMethod     string     `json:"fillingMethod"`
		CisType           string     `json:"cisType"`
		Positions         []Position `json:"positions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	p.nextOrder++
	numeric := 77000 + p.nextOrder
	id := fmt.Sprintf("%d", numeric)
	state := &orderState{
		record: OrderRecord{
			ID:                id,
			DocumentNumber:    body.DocumentNumber,
			Comment:           body.Comment,
			ProductGroup:      body.ProductGroup,
			ReleaseMethodType: body.ReleaseMethodType,
			FillingMethod:     body.FillingMethod,
			CisType:           body.CisType,
			Positions:         body.Positions,
			WarehouseID:       r.URL.Query().Get("warehouseId"),
		},
		plan: append([]string(nil), p.defaultPlan...),
	}
	if p.planSignables {
		for i, content := range p.signablePlan {
			state.signables = append(state.signables, SignedItem{
				UUID:       fmt.Sprintf("%s-doc-%d", id, i+1),
				Base64Data: base64.StdEncoding.EncodeToString([]byte(content)),
			})
		}
	} else {
		// Default signables: one payload per position, at least one.
		count := len(body.Positions)
		if count == 0 {
			count = 1
		}
		for i := 0; i < count; i++ {
			state.signables = append(state.signables, SignedItem{
				UUID:       fmt.Sprintf("%s-doc-%d", id, i+1),
				Base64Data: base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("order %s payload %d", id, i+1))),
			})
		}
	}
	p.orders[id] = state
	p.mu.Unlock()

	// The portal returns numeric order ids.
	writeJSON(w, map[string]any{"id": numeric})
}

func (p *Portal) getOrder(w http.ResponseWriter, orderID string) {
	p.mu.Lock()
	state, ok := p.orders[orderID]
	if !ok {
		p.mu.Unlock()
		http.Error(w, `{"error":"order not found"}`, http.StatusNotFound)
		return
	}
	status := "created"
	if len(state.plan) > 0 {
		status = state.plan[state.planIdx]
		if state.planIdx < len(state.plan)-1 {
			state.planIdx++
		}
	}
	record := state.record
	p.mu.Unlock()

	writeJSON(w, map[string]any{
		"id":             record.ID,
		"documentNumber": record.DocumentNumber,
		"status":         status,
	})
}

func (p *Portal) updateOrder(w http.ResponseWriter, r *http.Request, orderID string) {
	var body struct {
		DocumentNumber string `json:"documentNumber"`
		Comment        string `json:"comment"`
		FillingMethod  string `json:"fillingMethod"`
		PaymentType    string `json:"paymentType"`
		CisType        string `json:"cisType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	state, ok := p.orders[orderID]
	if !ok {
		http.NotFound(w, r)
		return
	}
	state.record.DocumentNumber = body.DocumentNumber
	state.record.Comment = body.Comment
	state.record.FillingMethod = body.FillingMethod
	state.record.PaymentType = body.PaymentType
	state.record.CisType = body.CisType
	w.WriteHeader(http.StatusOK)
}

func (p *Portal) addPosition(w http.ResponseWriter, r *http.Request, orderID string) {
	var body Position
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	state, ok := p.orders[orderID]
	if !ok {
		p.mu.Unlock()
		http.NotFound(w, r)
		return
	}
	state.positions++
	posID := fmt.Sprintf("%s-pos-%d", orderID, state.positions)
	state.record.Positions = append(state.record.Positions, body)
	p.mu.Unlock()

	writeJSON(w, map[string]any{"id": posID})
}

func (p *Portal) updatePosition(w http.ResponseWriter, r *http.Request, orderID, positionID string) {
	var body Position
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	state, ok := p.orders[orderID]
	if !ok {
		http.NotFound(w, r)
		return
	}
	idx := -1
	for i := range state.record.Positions {
		if fmt.Sprintf("%s-pos-%d", orderID, i+1) == positionID {
			idx = i
		}
	}
	if idx < 0 {
		http.NotFound(w, r)
		return
	}
	state.record.Positions[idx].Name = body.Name
	state.record.Positions[idx].Quantity = body.Quantity
	state.record.Positions[idx].TNVEDCode = body.TNVEDCode
	w.WriteHeader(http.StatusOK)
}

func (p *Portal) documentsToSign(w http.ResponseWriter, orderID string) {
	p.mu.Lock()
	state, ok := p.orders[orderID]
	if !ok {
		p.mu.Unlock()
		http.Error(w, `{"error":"order not found"}`, http.StatusNotFound)
		return
	}
	items := make([]SignedItem, len(state.signables))
	copy(items, state.signables)
	p.mu.Unlock()

	writeJSON(w, items)
}

func (p *Portal) submitSignatures(w http.ResponseWriter, r *http.Request, orderID string) {
	var items []SignedItem
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	state, ok := p.orders[orderID]
	if !ok {
		http.NotFound(w, r)
		return
	}
	for _, item := range items {
		if item.Base64Data == "" {
			http.Error(w, `{"error":"empty signature"}`, http.StatusBadRequest)
			return
		}
	}
	state.submitted = append(state.submitted, items...)
	w.WriteHeader(http.StatusOK)
}

func (p *Portal) downloadFile(w http.ResponseWriter, r *http.Request, orderID string) {
	fileType := r.URL.Query().Get("fileType")

	p.mu.Lock()
	state, ok := p.orders[orderID]
	var file []byte
	if ok {
		file = state.file
	}
	p.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if file == nil {
		file = []byte(fmt.Sprintf("codes for order %s as %s\n", orderID, fileType))
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(file)
}

func (p *Portal) handleIntroduction(w http.ResponseWriter, r *http.Request, segs []string) {
	switch {
	case len(segs) == 0 && r.Method == http.MethodPost:
		p.mu.Lock()
		p.nextIntro++
		id := fmt.Sprintf("intro-%d", p.nextIntro)
		p.intros[id] = &introState{record: IntroductionRecord{
			ID:          id,
			WarehouseID: r.URL.Query().Get("warehouseId"),
		}}
		p.mu.Unlock()

		// Introduction creates answer with a bare quoted id.
		writeJSON(w, id)
	case len(segs) == 2 && segs[1] == "production" && r.Method == http.MethodPatch:
		var production map[string]any
		if err := json.NewDecoder(r.Body).Decode(&production); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p.withIntro(w, segs[0], func(state *introState) {
			state.record.Production = production
		})
	case len(segs) == 2 && segs[1] == "positions" && r.Method == http.MethodPost:
		var body struct {
			Rows []map[string]any `json:"rows"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p.withIntro(w, segs[0], func(state *introState) {
			state.record.Rows = append(state.record.Rows, body.Rows...)
		})
	case len(segs) == 2 && segs[1] == "send" && r.Method == http.MethodPost:
		p.withIntro(w, segs[0], func(state *introState) {
			state.record.Sent = true
		})
	case len(segs) == 2 && segs[1] == "send-to-tsd" && r.Method == http.MethodPost:
		p.withIntro(w, segs[0], func(state *introState) {
			state.record.Sent = true
			state.record.SentToTSD = true
		})
	case len(segs) == 1 && r.Method == http.MethodGet:
		p.mu.Lock()
		state, ok := p.intros[segs[0]]
		var record IntroductionRecord
		if ok {
			record = state.record
		}
		p.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		status := "created"
		if record.Sent {
			status = "processing"
		}
		writeJSON(w, map[string]any{"id": record.ID, "status": status})
	default:
		http.NotFound(w, r)
	}
}

func (p *Portal) withIntro(w http.ResponseWriter, docID string, fn func(*introState)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	state, ok := p.intros[docID]
	if !ok {
		http.Error(w, `{"error":"document not found"}`, http.StatusNotFound)
		return
	}
	fn(state)
	w.WriteHeader(http.StatusOK)
}

func (p *Portal) handleAuth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("organizationId") == "" {
		http.Error(w, `{"error":"organizationId is required"}`, http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		p.mu.Lock()
		challenges := make([]Challenge, len(p.challenges))
		copy(challenges, p.challenges)
		p.mu.Unlock()
		writeJSON(w, challenges)
	case http.MethodPost:
		var answers []struct {
			UUID         string `json:"uuid"`
			ProductGroup string `json:"productGroup"`
			Base64Data   string `json:"base64Data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&answers); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p.mu.Lock()
		for _, a := range answers {
			p.answers = append(p.answers, SignedItem{UUID: a.UUID, Base64Data: a.Base64Data})
			p.answerGroups = append(p.answerGroups, a.ProductGroup)
			for i, c := range p.challenges {
				if c.UUID == a.UUID {
					p.challenges = append(p.challenges[:i], p.challenges[i+1:]...)
					break
				}
			}
		}
		p.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	default:
		http.NotFound(w, r)
	}
}

func (p *Portal) handleCertificates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet || r.URL.Query().Get("organizationId") == "" {
		http.Error(w, `{"error":"organizationId is required"}`, http.StatusBadRequest)
		return
	}
	p.mu.Lock()
	certs := make([]map[string]string, len(p.certs))
	copy(certs, p.certs)
	p.mu.Unlock()
	writeJSON(w, certs)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
