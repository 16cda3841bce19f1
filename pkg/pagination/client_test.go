package pagination

import (
	"context"
	"net/http"
	"testing"

	"github.com/Sternrassler/gh-user-sync/internal/testutil"
	"github.com/Sternrassler/gh-user-sync/pkg/cache"
	"github.com/Sternrassler/gh-user-sync/pkg/client"
)

func newTestClient(t *testing.T, baseURL string) *client.Client {
	t.Helper()
	cfg := client.DefaultConfig("usersync-test/1.0")
	cfg.BaseURL = baseURL
	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}
	return c
}

func TestSynchronizer_PagesThroughMockGitHub(t *testing.T) {
	mock := testutil.NewMockGitHub(45)
	defer mock.Close()

	store := cache.NewStore(cache.NewMemoryBackend(), cache.DefaultKey)
	s := New(newTestClient(t, mock.URL()), store)
	ctx := context.Background()

	wantCursors := []int64{20, 40, 45, 45}
	for i, want := range wantCursors {
		res, err := s.LoadNext(ctx)
		if err != nil {
			t.Fatalf("page %d: LoadNext() error = %v", i, err)
		}
		if res.Cursor != want {
			t.Errorf("page %d: cursor = %d, want %d", i, res.Cursor, want)
		}
	}

	if s.Len() != 45 {
		t.Errorf("Len() = %d, want 45", s.Len())
	}
	if mock.GetLastQuery()["since"] != "45" {
		t.Errorf("last since = %q, want 45", mock.GetLastQuery()["since"])
	}

	cached, ok := store.Load(ctx)
	if !ok || len(cached) != 45 {
		t.Errorf("cached %d users (ok=%v), want 45", len(cached), ok)
	}
}

func TestSynchronizer_ServerErrorFromMockGitHub(t *testing.T) {
	mock := testutil.NewMockGitHub(45)
	defer mock.Close()

	s := New(newTestClient(t, mock.URL()), cache.NewStore(cache.NewMemoryBackend(), cache.DefaultKey))
	ctx := context.Background()

	if _, err := s.LoadNext(ctx); err != nil {
		t.Fatalf("LoadNext() error = %v", err)
	}

	mock.SetResponse("/users", testutil.NewServerErrorResponse())
	_, err := s.LoadNext(ctx)
	if client.StatusCode(err) != http.StatusInternalServerError {
		t.Fatalf("LoadNext() error = %v, want status 500", err)
	}
	if s.Len() != 20 || s.Cursor() != 20 {
		t.Errorf("Len() = %d, Cursor() = %d, want 20, 20", s.Len(), s.Cursor())
	}

	mock.ClearHandler("/users")
	if _, err := s.LoadNext(ctx); err != nil {
		t.Fatalf("LoadNext() after recovery error = %v", err)
	}
	if s.Len() != 40 {
		t.Errorf("Len() = %d, want 40", s.Len())
	}
}
