// Package testserver runs an in-process fake of the construction API for
// tests: login, tenant selection, the resource routes, and knobs for
// failures and token expiry.
package testserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/ganot/sitesync/internal/transport"
	"github.com/go-chi/chi/v5"
)

// Account is a user the fake accepts at /auth/login.
type Account struct {
	Password string
	// User is the raw user object returned with every token.
	User string
	// Tenants lists the tenant ids the user may select.
	Tenants []int
}

type TestServer struct {
	Server *httptest.Server

	mu       sync.Mutex
	accounts map[string]Account
	tokens   map[string]tokenInfo
	fixtures map[string]string
	failures map[string]int
	calls    map[string]int
	bodies   map[string][]byte
	issued   int
}

type tokenInfo struct {
	email    string
	tenantID int
}

// New starts a fake server that is closed when the test ends.
func New(t *testing.T) *TestServer {
	t.Helper()

	ts := &TestServer{
		accounts: make(map[string]Account),
		tokens:   make(map[string]tokenInfo),
		fixtures: make(map[string]string),
		failures: make(map[string]int),
		calls:    make(map[string]int),
		bodies:   make(map[string][]byte),
	}
	ts.Server = httptest.NewServer(ts.routes())
	t.Cleanup(ts.Server.Close)
	return ts
}

// URL is the base URL to point a transport.Client at.
func (ts *TestServer) URL() string {
	return ts.Server.URL
}

func (ts *TestServer) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(ts.countCalls)

	r.Post("/auth/login", ts.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(ts.requireToken(false))
		r.Post("/auth/select-tenant", ts.handleSelectTenant)
	})

	r.Group(func(r chi.Router) {
		r.Use(ts.requireToken(true))
		r.Get("/projects", ts.handleFixture)
		r.Get("/drawings", ts.handleFixture)
		r.Get("/rfis", ts.handleFixture)
		r.Get("/forms/accessible", ts.handleFixture)
		r.Get("/forms/submissions", ts.handleFixture)
		r.Get("/documents", ts.handleFixture)
		r.Post("/notifications/register-device", ts.handleRecord)
		r.Put("/forms/submissions/{id}", ts.handleRecord)
	})

	return r
}

// AddAccount registers a user.
func (ts *TestServer) AddAccount(email string, account Account) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.accounts[email] = account
}

// SetFixture sets the body returned for path and projectID. Use projectID 0
// for /projects.
func (ts *TestServer) SetFixture(path string, projectID int, body string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.fixtures[fixtureKey(path, projectID)] = body
}

// FailWith makes every request to path answer with status. Status 0 clears it.
func (ts *TestServer) FailWith(path string, status int) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if status == 0 {
		delete(ts.failures, path)
		return
	}
	ts.failures[path] = status
}

// ExpireTokens invalidates every issued token.
func (ts *TestServer) ExpireTokens() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.tokens = make(map[string]tokenInfo)
}

// Calls returns how many requests reached path.
func (ts *TestServer) Calls(path string) int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.calls[path]
}

// LastBody returns the last request body received on path.
func (ts *TestServer) LastBody(path string) []byte {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.bodies[path]
}

func fixtureKey(path string, projectID int) string {
	return path + "?" + strconv.Itoa(projectID)
}

func (ts *TestServer) countCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		ts.calls[r.URL.Path]++
		status := ts.failures[r.URL.Path]
		ts.mu.Unlock()

		if status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (ts *TestServer) requireToken(tenantScoped bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ts.mu.Lock()
			info, ok := ts.tokens[transport.BearerToken(r)]
			ts.mu.Unlock()

			if !ok || (tenantScoped && info.tenantID == 0) {
				http.Error(w, "token expired", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (ts *TestServer) issue(email string, tenantID int) string {
	ts.issued++
	token := fmt.Sprintf("tok-%d-%d", tenantID, ts.issued)
	ts.tokens[token] = tokenInfo{email: email, tenantID: tenantID}
	return token
}

func (ts *TestServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	ts.mu.Lock()
	account, ok := ts.accounts[req.Email]
	if !ok || account.Password != req.Password {
		ts.mu.Unlock()
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	token := ts.issue(req.Email, 0)
	ts.mu.Unlock()

	writeAuth(w, token, account.User)
}

func (ts *TestServer) handleSelectTenant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TenantID int `json:"tenantId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	ts.mu.Lock()
	info := ts.tokens[transport.BearerToken(r)]
	account := ts.accounts[info.email]
	allowed := false
	for _, id := range account.Tenants {
		if id == req.TenantID {
			allowed = true
		}
	}
	if !allowed {
		ts.mu.Unlock()
		http.Error(w, "tenant not allowed", http.StatusBadRequest)
		return
	}
	token := ts.issue(info.email, req.TenantID)
	ts.mu.Unlock()

	writeAuth(w, token, account.User)
}

func (ts *TestServer) handleFixture(w http.ResponseWriter, r *http.Request) {
	projectID, _ := strconv.Atoi(r.URL.Query().Get("projectId"))

	ts.mu.Lock()
	body, ok := ts.fixtures[fixtureKey(r.URL.Path, projectID)]
	ts.mu.Unlock()

	if !ok {
		body = emptyBody(r.URL.Path)
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

func (ts *TestServer) handleRecord(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	ts.mu.Lock()
	ts.bodies[r.URL.Path] = body
	ts.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func emptyBody(path string) string {
	switch path {
	case "/drawings":
		return `{"drawings":[]}`
	case "/rfis":
		return `{"rfis":[]}`
	default:
		return `[]`
	}
}

func writeAuth(w http.ResponseWriter, token, user string) {
	if user == "" {
		user = "null"
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Token string          `json:"token"`
		User  json.RawMessage `json:"user"`
	}{Token: token, User: json.RawMessage(user)})
}
