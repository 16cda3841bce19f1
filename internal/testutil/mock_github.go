// Package testutil provides testing utilities for the GitHub users client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/gh-user-sync/pkg/client"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockGitHub is a configurable mock of the GitHub users API.
//
// By default it serves a collection of Total users with IDs 1..Total and
// logins "user<id>", honoring the since and per_page query parameters.
type MockGitHub struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	total    int64

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
	LastQuery         map[string]string
}

// NewMockGitHub creates a mock server holding total users.
func NewMockGitHub(total int64) *MockGitHub {
	mock := &MockGitHub{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		total:    total,
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.LastQuery = map[string]string{}
		for k := range r.URL.Query() {
			mock.LastQuery[k] = r.URL.Query().Get(k)
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockGitHub) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockGitHub) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockGitHub) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestHeader = nil
	m.LastQuery = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockGitHub) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// ClearHandler removes a custom handler, restoring the default behavior.
func (m *MockGitHub) ClearHandler(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, path)
}

// SetResponse configures a simple response for a path.
func (m *MockGitHub) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockGitHub) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetLastQuery returns the query parameters of the last request.
func (m *MockGitHub) GetLastQuery() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastQuery
}

// GetLastRequestHeader returns the headers of the last request.
func (m *MockGitHub) GetLastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestHeader
}

func (m *MockGitHub) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-RateLimit-Limit", "60")
	w.Header().Set("X-RateLimit-Remaining", "59")
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))

	switch {
	case r.URL.Path == "/users":
		since, _ := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)
		perPage, err := strconv.Atoi(r.URL.Query().Get("per_page"))
		if err != nil || perPage <= 0 {
			perPage = 30
		}
		writeJSON(w, MakeUsers(since+1, min(int64(perPage), max(m.total-since, 0))))

	case strings.HasPrefix(r.URL.Path, "/users/"):
		login := strings.TrimPrefix(r.URL.Path, "/users/")
		id, ok := parseLogin(login)
		if !ok || id > m.total {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		writeJSON(w, MakeDetail(id))

	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found"}`))
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func parseLogin(login string) (int64, bool) {
	if !strings.HasPrefix(login, "user") {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(login, "user"), 10, 64)
	return id, err == nil && id > 0
}

// MakeUser builds the user the mock serves for id.
func MakeUser(id int64) client.User {
	login := fmt.Sprintf("user%d", id)
	return client.User{
		ID:        id,
		Login:     login,
		AvatarURL: fmt.Sprintf("https://avatars.githubusercontent.com/u/%d?v=4", id),
		Type:      "User",
		SiteAdmin: false,
		HTMLURL:   "https://github.com/" + login,
	}
}

// MakeUsers builds count consecutive users starting at firstID.
func MakeUsers(firstID, count int64) []client.User {
	users := make([]client.User, 0, count)
	for i := int64(0); i < count; i++ {
		users = append(users, MakeUser(firstID+i))
	}
	return users
}

// MakeDetail builds the detail record the mock serves for id.
// Users with an even id have no bio and no blog.
func MakeDetail(id int64) client.UserDetail {
	u := MakeUser(id)
	name := fmt.Sprintf("User %d", id)
	d := client.UserDetail{
		ID:          id,
		Login:       u.Login,
		AvatarURL:   u.AvatarURL,
		Name:        &name,
		PublicRepos: int(id % 50),
		Followers:   int(id * 3),
		Following:   int(id % 7),
		CreatedAt:   "2008-01-14T04:33:35Z",
		Company:     "",
	}
	if id%2 == 1 {
		bio := "Odd user"
		blog := "https://example.com/" + u.Login
		d.Bio = &bio
		d.Blog = &blog
	}
	return d
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"message": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 403 response with an exhausted rate limit.
func NewRateLimitResponse(resetIn time.Duration) MockResponse {
	return MockResponse{
		StatusCode: http.StatusForbidden,
		Body:       `{"message": "API rate limit exceeded"}`,
		Headers: map[string]string{
			"Content-Type":          "application/json; charset=utf-8",
			"X-RateLimit-Limit":     "60",
			"X-RateLimit-Remaining": "0",
			"X-RateLimit-Used":      "60",
			"X-RateLimit-Reset":     strconv.FormatInt(time.Now().Add(resetIn).Unix(), 10),
		},
	}
}

// NewJSONResponse creates a 200 OK response with the given raw body.
func NewJSONResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}
