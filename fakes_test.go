//go:build unit

package konturapi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

// testThumbprint matches the certificate NewFakeSigner registers.
const testThumbprint = "aabbccddeeff00112233445566778899aabbccdd"

// fakePortal scripts the vendor API ports for workflow tests. Every call
// records its method name so tests can assert ordering and absence.
type fakePortal struct {
	mu    sync.Mutex
	calls []string

	orderID      string
	createErr    error
	draft        domain.OrderDraft
	stub         domain.OrderStub
	update       domain.OrderUpdate
	posDrafts    []domain.PositionDraft
	posPatches   map[string]domain.PositionPatch
	statuses     []domain.Status
	statusIdx    int
	getOrderErr  error
	signables    []domain.Signable
	signablesErr error
	submitted    []domain.SignedItem
	submitErr    error

	registered    []domain.RegisteredCertificate
	registeredErr error
	challenges    []domain.AuthChallenge
	challengesErr error
	answers       []domain.AuthAnswer
	answersErr    error

	introID    string
	introErr   error
	production domain.IntroductionProduction
	rows       []domain.IntroductionPosition
	rowsErr    error
	sendErr    error
	tsdErr     error
}

func newFakePortal() *fakePortal {
	return &fakePortal{
		orderID:    "ord-1",
		introID:    "intro-1",
		posPatches: make(map[string]domain.PositionPatch),
	}
}

func (f *fakePortal) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

// called reports whether a method was invoked at least once.
func (f *fakePortal) called(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == name {
			return true
		}
	}
	return false
}

func (f *fakePortal) callNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.calls))
	copy(names, f.calls)
	return names
}

// nextStatus consumes the scripted status sequence; the last one repeats.
func (f *fakePortal) nextStatus() domain.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) == 0 {
		return domain.StatusAvailable
	}
	status := f.statuses[f.statusIdx]
	if f.statusIdx < len(f.statuses)-1 {
		f.statusIdx++
	}
	return status
}

func (f *fakePortal) CreateOrder(ctx context.Context, draft domain.OrderDraft) (string, error) {
	f.record("CreateOrder")
	if f.createErr != nil {
		return "", f.createErr
	}
	f.mu.Lock()
	f.draft = draft
	f.mu.Unlock()
	return f.orderID, nil
}

func (f *fakePortal) CreateOrderStub(ctx context.Context, stub domain.OrderStub) (string, error) {
	f.record("CreateOrderStub")
	if f.createErr != nil {
		return "", f.createErr
	}
	f.mu.Lock()
	f.stub = stub
	f.mu.Unlock()
	return f.orderID, nil
}

func (f *fakePortal) UpdateOrder(ctx context.Context, orderID string, update domain.OrderUpdate) error {
	f.record("UpdateOrder")
	f.mu.Lock()
	f.update = update
	f.mu.Unlock()
	return nil
}

func (f *fakePortal) AddPosition(ctx context.Context, orderID string, draft domain.PositionDraft) (string, error) {
	f.record("AddPosition")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posDrafts = append(f.posDrafts, draft)
	return fmt.Sprintf("pos-%d", len(f.posDrafts)), nil
}

func (f *fakePortal) UpdatePosition(ctx context.Context, orderID, positionID string, patch domain.PositionPatch) error {
	f.record("UpdatePosition")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posPatches[positionID] = patch
	return nil
}

func (f *fakePortal) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	f.record("GetOrder")
	if f.getOrderErr != nil {
		return domain.Order{}, f.getOrderErr
	}
	return domain.Order{ID: orderID, Status: f.nextStatus()}, nil
}

func (f *fakePortal) DocumentsToSign(ctx context.Context, orderID string) ([]domain.Signable, error) {
	f.record("DocumentsToSign")
	if f.signablesErr != nil {
		return nil, f.signablesErr
	}
	return f.signables, nil
}

func (f *fakePortal) SubmitSignatures(ctx context.Context, orderID string, items []domain.SignedItem) error {
	f.record("SubmitSignatures")
	if f.submitErr != nil {
		return f.submitErr
	}
	f.mu.Lock()
	f.submitted = append(f.submitted, items...)
	f.mu.Unlock()
	return nil
}

func (f *fakePortal) RegisteredCertificates(ctx context.Context) ([]domain.RegisteredCertificate, error) {
	f.record("RegisteredCertificates")
	if f.registeredErr != nil {
		return nil, f.registeredErr
	}
	return f.registered, nil
}

func (f *fakePortal) AuthChallenges(ctx context.Context) ([]domain.AuthChallenge, error) {
	f.record("AuthChallenges")
	if f.challengesErr != nil {
		return nil, f.challengesErr
	}
	return f.challenges, nil
}

func (f *fakePortal) SubmitAuthAnswers(ctx context.Context, answers []domain.AuthAnswer) error {
	f.record("SubmitAuthAnswers")
	if f.answersErr != nil {
		return f.answersErr
	}
	f.mu.Lock()
	f.answers = append(f.answers, answers...)
	f.mu.Unlock()
	return nil
}

func (f *fakePortal) CreateIntroduction(ctx context.Context) (string, error) {
	f.record("CreateIntroduction")
	if f.introErr != nil {
		return "", f.introErr
	}
	return f.introID, nil
}

func (f *fakePortal) SetProduction(ctx context.Context, docID string, production domain.IntroductionProduction) error {
	f.record("SetProduction")
	f.mu.Lock()
	f.production = production
	f.mu.Unlock()
	return nil
}

func (f *fakePortal) AddIntroductionRows(ctx context.Context, docID string, rows domain.IntroductionRows) error {
	f.record("AddIntroductionRows")
	if f.rowsErr != nil {
		return f.rowsErr
	}
	f.mu.Lock()
	f.rows = append(f.rows, rows.Rows...)
	f.mu.Unlock()
	return nil
}

func (f *fakePortal) Send(ctx context.Context, docID string) error {
	f.record("Send")
	return f.sendErr
}

func (f *fakePortal) SendToTSD(ctx context.Context, docID string) error {
	f.record("SendToTSD")
	return f.tsdErr
}

func (f *fakePortal) GetIntroduction(ctx context.Context, docID string) (domain.Introduction, error) {
	f.record("GetIntroduction")
	return domain.Introduction{ID: docID, Status: f.nextStatus()}, nil
}

// failAfterSigner delegates to a real signer and fails once budget
// signatures have been produced.
type failAfterSigner struct {
	ports.Signer
	mu     sync.Mutex
	budget int
	err    error
}

func (s *failAfterSigner) Sign(ctx context.Context, cert domain.Certificate, base64Content string, detached bool) (string, error) {
	s.mu.Lock()
	if s.budget <= 0 {
		err := s.err
		s.mu.Unlock()
		return "", err
	}
	s.budget--
	s.mu.Unlock()
	return s.Signer.Sign(ctx, cert, base64Content, detached)
}

// testOrderConfig returns a workflow config matched to the fake signer's
// certificate, with a poll interval short enough for tests.
func testOrderConfig() OrderServiceConfig {
	return OrderServiceConfig{
		OrganizationID:     "org-1",
		Thumbprint:         testThumbprint,
		ProductGroup:       "milk",
		ReleaseMethodType:  "production",
		CisType:            "unit",
		FillingMethod:      "manually",
		DetachedSignatures: true,
		CheckRegistration:  true,
		PollInterval:       time.Millisecond,
	}
}

var (
	_ ports.OrderAPI       = (*fakePortal)(nil)
	_ ports.AuthAPI        = (*fakePortal)(nil)
	_ ports.CirculationAPI = (*fakePortal)(nil)
)
