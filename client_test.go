//go:build unit

package konturapi

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

// stubSessions satisfies the session port without a live portal.
type stubSessions struct {
	mu        sync.Mutex
	refreshes int
}

func (s *stubSessions) Session(ctx context.Context) (*domain.Session, error) {
	return nil, errors.New("no live portal in tests")
}

func (s *stubSessions) TriggerRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
}

func (s *stubSessions) refreshCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes
}

var _ ports.SessionProvider = (*stubSessions)(nil)

func newTestClient(t *testing.T, cfg Config, opts ...ClientOption) *Client {
	t.Helper()
	base := []ClientOption{
		WithSessionProvider(&stubSessions{}),
		WithSigner(NewFakeSigner()),
		WithHistoryStore(NewInMemoryHistory()),
	}
	client, err := New(cfg, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v, want nil", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNew_ValidatesConfig(t *testing.T) {
	_, err := New(Config{})

	var appErr *domain.AppError
	if !errors.As(err, &appErr) || appErr.Code != domain.ErrCodeConfigMissing {
		t.Fatalf("New() error = %v, want config_missing", err)
	}
}

func TestNew_RequiresCredentialSource(t *testing.T) {
	cfg := validTestConfig()

	_, err := New(cfg)

	var appErr *domain.AppError
	if !errors.As(err, &appErr) || appErr.Code != domain.ErrCodeConfigMissing {
		t.Fatalf("New() error = %v, want config_missing", err)
	}
	if got := appErr.Message; got != "cookie_file or cookie_command is required" {
		t.Errorf("Message = %q, want the cookie source hint", got)
	}
}

func TestNew_WiresServices(t *testing.T) {
	client := newTestClient(t, validTestConfig())

	if client.Orders() == nil {
		t.Error("Orders() = nil")
	}
	if client.Circulation() == nil {
		t.Error("Circulation() = nil")
	}
	if client.Auth() == nil {
		t.Error("Auth() = nil")
	}
	if client.History() == nil {
		t.Error("History() = nil")
	}
	if client.Catalog() != nil {
		t.Error("Catalog() != nil without a catalog_file")
	}
}

func TestClient_TriggerSessionRefresh(t *testing.T) {
	sessions := &stubSessions{}
	client := newTestClient(t, validTestConfig(), WithSessionProvider(sessions))

	client.TriggerSessionRefresh()
	client.TriggerSessionRefresh()

	if got := sessions.refreshCount(); got != 2 {
		t.Errorf("provider saw %d refresh triggers, want 2", got)
	}
}

func TestClient_SessionInfo_PlainProviderReportsZero(t *testing.T) {
	client := newTestClient(t, validTestConfig())

	info := client.SessionInfo()
	if info.HasSession || info.Age != 0 {
		t.Errorf("SessionInfo() = %+v, want zero value for a plain provider", info)
	}
}

func TestClient_CloseLeavesInjectedProviderRunning(t *testing.T) {
	sessions := &stubSessions{}
	cfg := validTestConfig()
	client, err := New(cfg,
		WithSessionProvider(sessions),
		WithSigner(NewFakeSigner()),
		WithHistoryStore(NewInMemoryHistory()))
	if err != nil {
		t.Fatalf("New() error = %v, want nil", err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v, want nil", err)
	}

	// The injected provider is still the caller's to use.
	sessions.TriggerRefresh()
	if got := sessions.refreshCount(); got != 1 {
		t.Errorf("provider saw %d refresh triggers after Close, want 1", got)
	}
}

func TestNew_LoadsCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")
	content := "name,gtin,tnved\nПерчатки смотровые,04650075195017,4015120009\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v, want nil", err)
	}

	cfg := validTestConfig()
	cfg.CatalogFile = path
	client := newTestClient(t, cfg)

	if client.Catalog() == nil {
		t.Fatal("Catalog() = nil, want loaded catalog")
	}
	product, err := client.Catalog().Lookup("04650075195017")
	if err != nil {
		t.Fatalf("Lookup() error = %v, want nil", err)
	}
	if product.Name != "Перчатки смотровые" {
		t.Errorf("product name = %q, want %q", product.Name, "Перчатки смотровые")
	}
}

func TestNew_MissingCatalogFileFails(t *testing.T) {
	cfg := validTestConfig()
	cfg.CatalogFile = filepath.Join(t.TempDir(), "absent.csv")

	_, err := New(cfg,
		WithSessionProvider(&stubSessions{}),
		WithSigner(NewFakeSigner()),
		WithHistoryStore(NewInMemoryHistory()))

	var appErr *domain.AppError
	if !errors.As(err, &appErr) || appErr.Code != domain.ErrCodeConfigMissing {
		t.Fatalf("New() error = %v, want config_missing", err)
	}
}

func TestNewClientForTest_ReadyToUse(t *testing.T) {
	client := NewClientForTest(validTestConfig(), &stubSessions{}, NewFakeSigner(), nil, nil)

	if client.Orders() == nil || client.Circulation() == nil || client.Auth() == nil {
		t.Fatal("NewClientForTest() left a service nil")
	}
	if client.History() == nil {
		t.Error("History() = nil, want in-memory fallback")
	}
}
