package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/Sternrassler/gh-user-sync/pkg/client"
)

func testUsers(ids ...int64) []client.User {
	users := make([]client.User, 0, len(ids))
	for _, id := range ids {
		users = append(users, client.User{
			ID:        id,
			Login:     "user",
			AvatarURL: "url",
			Type:      "User",
			SiteAdmin: id%2 == 0,
			HTMLURL:   "html",
		})
	}
	return users
}

// failingBackend fails every operation.
type failingBackend struct{}

var errBackendDown = errors.New("backend down")

func (failingBackend) Name() string { return "failing" }
func (failingBackend) Get(context.Context, string) ([]byte, error) {
	return nil, errBackendDown
}
func (failingBackend) Set(context.Context, string, []byte) error { return errBackendDown }
func (failingBackend) Delete(context.Context, string) error      { return errBackendDown }
func (failingBackend) Close() error                              { return nil }

func TestNewStore_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewStore should panic with nil backend")
		}
	}()
	NewStore(nil, DefaultKey)
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryBackend(), DefaultKey)
	users := testUsers(1, 5, 3, 5)

	store.Save(ctx, users)
	got, ok := store.Load(ctx)
	if !ok {
		t.Fatal("Load() ok = false after Save")
	}
	assertUsersEqual(t, got, users)
}

func TestStore_LoadAbsent(t *testing.T) {
	store := NewStore(NewMemoryBackend(), DefaultKey)

	users, ok := store.Load(context.Background())
	if ok {
		t.Errorf("Load() ok = true on empty backend, users = %v", users)
	}
}

func TestStore_SaveEmptyListIsPresent(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryBackend(), DefaultKey)

	store.Save(ctx, nil)
	users, ok := store.Load(ctx)
	if !ok {
		t.Fatal("Load() ok = false after saving an empty list")
	}
	if len(users) != 0 {
		t.Errorf("len(users) = %d, want 0", len(users))
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryBackend(), DefaultKey)

	store.Save(ctx, testUsers(1, 2, 3))
	store.Save(ctx, testUsers(7))

	got, ok := store.Load(ctx)
	if !ok {
		t.Fatal("Load() ok = false")
	}
	assertUsersEqual(t, got, testUsers(7))
}

func TestStore_CorruptValueReadsAsAbsent(t *testing.T) {
	ctx := context.Background()

	for name, raw := range map[string]string{
		"garbage": "not json",
		"object":  `{"id": 1}`,
		"null":    "null",
	} {
		t.Run(name, func(t *testing.T) {
			backend := NewMemoryBackend()
			backend.Set(ctx, DefaultKey.String(), []byte(raw))

			store := NewStore(backend, DefaultKey)
			if users, ok := store.Load(ctx); ok {
				t.Errorf("Load() ok = true for %q, users = %v", raw, users)
			}
		})
	}
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryBackend(), DefaultKey)

	store.Save(ctx, testUsers(1))
	store.Clear(ctx)

	if _, ok := store.Load(ctx); ok {
		t.Error("Load() ok = true after Clear")
	}

	// Clearing twice is harmless.
	store.Clear(ctx)
}

func TestStore_KeysAreIsolated(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	a := NewStore(backend, DefaultKey.WithNamespace("a"))
	b := NewStore(backend, DefaultKey.WithNamespace("b"))

	a.Save(ctx, testUsers(1))

	if _, ok := b.Load(ctx); ok {
		t.Error("store b should not see store a's list")
	}
}

func TestStore_BackendFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	store := NewStore(failingBackend{}, DefaultKey)

	store.Save(ctx, testUsers(1, 2))
	store.Clear(ctx)

	if users, ok := store.Load(ctx); ok {
		t.Errorf("Load() ok = true on failing backend, users = %v", users)
	}
}

func assertUsersEqual(t *testing.T, got, want []client.User) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("users[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}
