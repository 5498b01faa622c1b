// Package authtest runs an in-process fake of the taskboard backend for
// tests. It issues and verifies real HS256 JWTs and checks bcrypt password
// hashes, so the client's refresh protocol is exercised against token
// behavior that matches the production service.
package authtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/jrsteele09/taskboard-client/users"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// RecordedRequest captures one request the fake backend served.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
}

type userRecord struct {
	user         users.User
	passwordHash []byte
}

// Server is a fake taskboard backend.
type Server struct {
	httpServer *httptest.Server
	secret     []byte
	accessTTL  time.Duration

	mu               sync.Mutex
	usersByEmail     map[string]*userRecord
	tenantsByKey     map[string]bool
	nextUserID       int
	accessGeneration int
	refreshCalls     int
	failLogout       bool
	failRefresh      bool
	requests         []RecordedRequest
}

// New starts a fake backend. It is shut down with the test.
func New(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		secret:       []byte("authtest-signing-secret"),
		accessTTL:    time.Minute,
		usersByEmail: make(map[string]*userRecord),
		tenantsByKey: map[string]bool{"acme": true},
		nextUserID:   1,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/register", s.handleRegister)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/auth/refresh", s.handleRefresh)
	mux.HandleFunc("/api/auth/logout", s.handleLogout)
	mux.HandleFunc("/api/auth/me", s.handleMe)
	mux.HandleFunc("/api/projects", s.handleProjects)

	s.httpServer = httptest.NewServer(s.record(mux))
	t.Cleanup(s.httpServer.Close)
	return s
}

// BaseURL is the backend API root for client configuration.
func (s *Server) BaseURL() string {
	return s.httpServer.URL + "/api"
}

// AddUser registers a user with the given credentials and role.
func (s *Server) AddUser(t *testing.T, email, password string, role users.Role) users.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	user := users.User{
		ID:       s.nextUserID,
		Email:    email,
		Role:     role,
		IsActive: true,
	}
	s.nextUserID++
	s.usersByEmail[email] = &userRecord{user: user, passwordHash: hash}
	return user
}

// RefreshCalls reports how many times /auth/refresh was hit.
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// RevokeAccessTokens invalidates issued access tokens but keeps refresh
// tokens valid, simulating ordinary access-token expiry.
func (s *Server) RevokeAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessGeneration++
}

// FailRefresh makes /auth/refresh reject all refresh tokens.
func (s *Server) FailRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = true
}

// FailLogout makes /auth/logout return a server error.
func (s *Server) FailLogout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLogout = true
}

// Requests returns every request served so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request for path, or nil.
func (s *Server) LastRequest(path string) *RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Path == path {
			req := s.requests[i]
			return &req
		}
	}
	return nil
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method: r.Method,
			Path:   strings.TrimPrefix(r.URL.Path, "/api"),
			Header: r.Header.Clone(),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string `json:"name"`
		Subdomain      string `json:"subdomain"`
		AdminEmail     string `json:"admin_email"`
		AdminPassword  string `json:"admin_password"`
		AdminFirstName string `json:"admin_first_name"`
		AdminLastName  string `json:"admin_last_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Name == "" || req.Subdomain == "" || req.AdminEmail == "" || req.AdminPassword == "" {
		writeError(w, http.StatusBadRequest, "missing required field")
		return
	}

	s.mu.Lock()
	if s.tenantsByKey[req.Subdomain] {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "Subdomain already taken")
		return
	}
	s.tenantsByKey[req.Subdomain] = true
	s.mu.Unlock()

	hash, _ := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), bcrypt.MinCost)
	s.mu.Lock()
	admin := users.User{
		ID:        s.nextUserID,
		Email:     req.AdminEmail,
		FirstName: req.AdminFirstName,
		LastName:  req.AdminLastName,
		Role:      users.RoleAdmin,
		IsActive:  true,
	}
	s.nextUserID++
	s.usersByEmail[req.AdminEmail] = &userRecord{user: admin, passwordHash: hash}
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Tenant created successfully",
		"tenant": map[string]any{
			"id":        1,
			"name":      req.Name,
			"subdomain": req.Subdomain,
			"is_active": true,
		},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.requireTenant(w, r) {
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	record, ok := s.usersByEmail[req.Email]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(record.passwordHash, []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  s.mintToken(record.user.ID, tokenTypeAccess, s.accessTTL),
		"refresh_token": s.mintToken(record.user.ID, tokenTypeRefresh, 24*time.Hour),
		"user":          record.user,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.refreshCalls++
	fail := s.failRefresh
	s.mu.Unlock()

	if fail {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	userID, ok := s.verifyBearer(r, tokenTypeRefresh)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": s.mintToken(userID, tokenTypeAccess, s.accessTTL),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	fail := s.failLogout
	s.mu.Unlock()
	if fail {
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": []any{}, "total": 0})
}

// authenticate verifies the access token and resolves the user, writing a
// 401 when either fails.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*users.User, bool) {
	userID, ok := s.verifyBearer(r, tokenTypeAccess)
	if !ok {
		writeError(w, http.StatusUnauthorized, "token expired")
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.usersByEmail {
		if record.user.ID == userID {
			user := record.user
			return &user, true
		}
	}
	writeError(w, http.StatusUnauthorized, "user not found")
	return nil, false
}

func (s *Server) requireTenant(w http.ResponseWriter, r *http.Request) bool {
	subdomain := r.Header.Get("X-Tenant-Subdomain")
	if subdomain == "" {
		writeError(w, http.StatusBadRequest, "Tenant subdomain is required")
		return false
	}
	s.mu.Lock()
	known := s.tenantsByKey[subdomain]
	s.mu.Unlock()
	if !known {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Tenant not found: %s", subdomain))
		return false
	}
	return true
}

func (s *Server) mintToken(userID int, tokenType string, ttl time.Duration) string {
	s.mu.Lock()
	generation := s.accessGeneration
	s.mu.Unlock()

	claims := jwt.MapClaims{
		"sub": strconv.Itoa(userID),
		"typ": tokenType,
		"exp": jwt.NewNumericDate(time.Now().Add(ttl)),
		"iat": jwt.NewNumericDate(time.Now()),
	}
	if tokenType == tokenTypeAccess {
		claims["gen"] = generation
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return token
}

func (s *Server) verifyBearer(r *http.Request, wantType string) (int, bool) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return 0, false
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["typ"] != wantType {
		return 0, false
	}

	if wantType == tokenTypeAccess {
		s.mu.Lock()
		currentGeneration := s.accessGeneration
		s.mu.Unlock()
		if gen, ok := claims["gen"].(float64); !ok || int(gen) != currentGeneration {
			return 0, false
		}
	}

	sub, _ := claims["sub"].(string)
	userID, err := strconv.Atoi(sub)
	if err != nil {
		return 0, false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
