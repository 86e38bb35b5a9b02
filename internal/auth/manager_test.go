package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/chatwire/internal/config"
	"github.com/yourusername/chatwire/internal/store"
	"github.com/yourusername/chatwire/internal/token"
)

type stubUserStore struct {
	byEmail    map[string]*store.User
	createErr  error
	lastName   string
	lastEmail  string
	lastHashed string
}

func (s *stubUserStore) Create(ctx context.Context, name, email, hashedPassword string) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.lastName = name
	s.lastEmail = email
	s.lastHashed = hashedPassword
	return nil
}

func (s *stubUserStore) FindByEmail(ctx context.Context, email string) (*store.User, error) {
	return s.byEmail[email], nil
}

func testConfig() *config.Config {
	return &config.Config{
		Port:          "5000",
		GinMode:       gin.TestMode,
		SessionSecret: "session-secret",
		JWTSecret:     "jwt-secret",
	}
}

func newTestRouter(m *Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	sessionStore := cookie.NewStore([]byte("session-secret"))
	router.Use(sessions.Sessions(SessionCookieName, sessionStore))

	router.POST("/api/signup", m.Signup)
	router.POST("/api/login", m.Login)
	router.POST("/api/logout", m.VerifyCSRF(), m.Logout)
	router.GET("/api/csrf-token", m.CSRFToken)
	router.GET("/api/protected", m.RequireAuth(), m.VerifyCSRF(), m.Protected)
	router.POST("/mutate", m.RequireAuth(), m.VerifyCSRF(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"name": c.GetString(ContextUserKey)})
	})
	return router
}

func newManager(users *stubUserStore) *Manager {
	return NewManager(testConfig(), users, token.NewService("jwt-secret"))
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func copyCookies(req *http.Request, rec *httptest.ResponseRecorder) {
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSignupHashesPassword(t *testing.T) {
	users := &stubUserStore{}
	router := newTestRouter(newManager(users))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, jsonRequest(http.MethodPost, "/api/signup", gin.H{
		"name":     "alice",
		"email":    "a@x.com",
		"password": "pw1",
	}))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if users.lastName != "alice" || users.lastEmail != "a@x.com" {
		t.Fatalf("unexpected created identity: %q / %q", users.lastName, users.lastEmail)
	}
	if users.lastHashed == "pw1" {
		t.Fatal("password was stored without hashing")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(users.lastHashed), []byte("pw1")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestSignupDuplicateIdentity(t *testing.T) {
	users := &stubUserStore{createErr: store.ErrDuplicateIdentity}
	router := newTestRouter(newManager(users))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, jsonRequest(http.MethodPost, "/api/signup", gin.H{
		"name":     "alice",
		"email":    "a@x.com",
		"password": "pw1",
	}))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestSignupMissingFields(t *testing.T) {
	router := newTestRouter(newManager(&stubUserStore{}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, jsonRequest(http.MethodPost, "/api/signup", gin.H{"name": "alice"}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func loginStore(t *testing.T, password string) *stubUserStore {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return &stubUserStore{byEmail: map[string]*store.User{
		"a@x.com": {Name: "alice", Email: "a@x.com", Password: string(hashed)},
	}}
}

func TestLoginSuccess(t *testing.T) {
	router := newTestRouter(newManager(loginStore(t, "pw1")))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, jsonRequest(http.MethodPost, "/api/login", gin.H{
		"email":    "a@x.com",
		"password": "pw1",
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Name != "alice" {
		t.Fatalf("name = %q, want %q", body.Name, "alice")
	}

	tokenCookie := findCookie(rec, TokenCookieName)
	if tokenCookie == nil {
		t.Fatal("token cookie was not set")
	}
	if !tokenCookie.HttpOnly {
		t.Fatal("token cookie must be http-only")
	}
	claims, err := token.NewService("jwt-secret").Verify(tokenCookie.Value)
	if err != nil {
		t.Fatalf("token cookie does not verify: %v", err)
	}
	if claims.Name != "alice" {
		t.Fatalf("claims.Name = %q, want %q", claims.Name, "alice")
	}
	if claims.SessionID == "" {
		t.Fatal("claims.SessionID is empty")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	router := newTestRouter(newManager(loginStore(t, "pw1")))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, jsonRequest(http.MethodPost, "/api/login", gin.H{
		"email":    "a@x.com",
		"password": "wrong",
	}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if findCookie(rec, TokenCookieName) != nil {
		t.Fatal("token cookie must not be set on failed login")
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	router := newTestRouter(newManager(&stubUserStore{byEmail: map[string]*store.User{}}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, jsonRequest(http.MethodPost, "/api/login", gin.H{
		"email":    "nobody@x.com",
		"password": "pw1",
	}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestRequireAuthMissingToken(t *testing.T) {
	router := newTestRouter(newManager(&stubUserStore{}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/protected", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	router := newTestRouter(newManager(&stubUserStore{}))

	req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: "not-a-token"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestRequireAuthValidToken(t *testing.T) {
	router := newTestRouter(newManager(&stubUserStore{}))

	signed, err := token.NewService("jwt-secret").Issue("alice", "session-1")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: signed})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("alice")) {
		t.Fatalf("body does not carry authenticated name: %s", rec.Body.String())
	}
}

func fetchCSRF(t *testing.T, router *gin.Engine) (string, *httptest.ResponseRecorder) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("csrf-token status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body struct {
		CSRFToken string `json:"csrfToken"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode csrf body: %v", err)
	}
	if body.CSRFToken == "" {
		t.Fatal("csrfToken is empty")
	}
	return body.CSRFToken, rec
}

func TestCSRFTokenMirroredIntoReadableCookie(t *testing.T) {
	router := newTestRouter(newManager(&stubUserStore{}))

	csrfToken, rec := fetchCSRF(t, router)
	mirror := findCookie(rec, csrfCookie)
	if mirror == nil {
		t.Fatal("csrf cookie was not set")
	}
	if mirror.Value != csrfToken {
		t.Fatalf("csrf cookie = %q, want %q", mirror.Value, csrfToken)
	}
	if mirror.HttpOnly {
		t.Fatal("csrf cookie must be readable by client script")
	}
}

func TestCSRFTokenIdempotent(t *testing.T) {
	router := newTestRouter(newManager(&stubUserStore{}))

	first, firstRec := fetchCSRF(t, router)

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	copyCookies(req, firstRec)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body struct {
		CSRFToken string `json:"csrfToken"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode csrf body: %v", err)
	}
	if body.CSRFToken != first {
		t.Fatalf("second fetch returned a different token: %q != %q", body.CSRFToken, first)
	}
}

func TestMutationWithoutCSRFHeader(t *testing.T) {
	router := newTestRouter(newManager(&stubUserStore{}))

	signed, err := token.NewService("jwt-secret").Issue("alice", "session-1")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	_, csrfRec := fetchCSRF(t, router)

	req := jsonRequest(http.MethodPost, "/mutate", gin.H{})
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: signed})
	copyCookies(req, csrfRec)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestMutationWithMismatchedCSRFHeader(t *testing.T) {
	router := newTestRouter(newManager(&stubUserStore{}))

	signed, err := token.NewService("jwt-secret").Issue("alice", "session-1")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	_, csrfRec := fetchCSRF(t, router)

	req := jsonRequest(http.MethodPost, "/mutate", gin.H{})
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: signed})
	req.Header.Set(csrfHeader, "forged-token")
	copyCookies(req, csrfRec)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestMutationWithValidCSRFHeader(t *testing.T) {
	router := newTestRouter(newManager(&stubUserStore{}))

	signed, err := token.NewService("jwt-secret").Issue("alice", "session-1")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	csrfToken, csrfRec := fetchCSRF(t, router)

	req := jsonRequest(http.MethodPost, "/mutate", gin.H{})
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: signed})
	req.Header.Set(csrfHeader, csrfToken)
	copyCookies(req, csrfRec)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestMutationInFreshSessionFails(t *testing.T) {
	router := newTestRouter(newManager(&stubUserStore{}))

	signed, err := token.NewService("jwt-secret").Issue("alice", "session-1")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	req := jsonRequest(http.MethodPost, "/mutate", gin.H{})
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: signed})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestLogoutClearsTokenCookie(t *testing.T) {
	router := newTestRouter(newManager(&stubUserStore{}))

	csrfToken, csrfRec := fetchCSRF(t, router)

	req := jsonRequest(http.MethodPost, "/api/logout", gin.H{})
	req.Header.Set(csrfHeader, csrfToken)
	copyCookies(req, csrfRec)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	cleared := findCookie(rec, TokenCookieName)
	if cleared == nil {
		t.Fatal("token cookie was not cleared")
	}
	if cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Fatalf("token cookie not expired: value=%q maxAge=%d", cleared.Value, cleared.MaxAge)
	}
}
