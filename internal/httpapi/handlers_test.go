package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"booking-platform/internal/audit"
	"booking-platform/internal/auth"
	"booking-platform/internal/config"
	"booking-platform/internal/otp"
	"booking-platform/internal/principal"
	"booking-platform/internal/refresh"
	"booking-platform/internal/register"
	"booking-platform/internal/token"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		AdminSecrets:    config.SecretSet{Access: "adm-acc", Refresh: "adm-ref", Stage: "adm-stg"},
		CustomerSecrets: config.SecretSet{Access: "cus-acc", Refresh: "cus-ref", Stage: "cus-stg"},
		Issuer:          "booking-platform-test",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 30 * 24 * time.Hour,
		StageTokenTTL:   10 * time.Minute,
		OTPCodeTTL:      5 * time.Minute,
	}
}

// memRepo is an in-memory principal.Repository for handler tests.
type memRepo struct {
	mu   sync.Mutex
	rows map[string]principal.Principal
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[string]principal.Principal)}
}

func (r *memRepo) FindByIdentity(_ context.Context, identity string) (*principal.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.Identity == identity {
			out := p
			return &out, nil
		}
	}
	return nil, principal.ErrNotFound
}

func (r *memRepo) FindByID(_ context.Context, id string) (*principal.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, principal.ErrNotFound
	}
	out := p
	return &out, nil
}

func (r *memRepo) Create(_ context.Context, p *principal.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	r.rows[p.ID] = *p
	return nil
}

func (r *memRepo) UpdateSecret(_ context.Context, id, secretHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return principal.ErrNotFound
	}
	p.SecretHash = secretHash
	r.rows[id] = p
	return nil
}

// captureNotifier records the last code it was asked to deliver.
type captureNotifier struct {
	mu       sync.Mutex
	identity string
	code     string
}

func (n *captureNotifier) SendCode(_ context.Context, identity, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.identity = identity
	n.code = code
	return nil
}

func (n *captureNotifier) last() (string, string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.identity, n.code
}

type testEnv struct {
	router    http.Handler
	tokens    *token.Manager
	admins    *memRepo
	customers *memRepo
	refresh   *refresh.MemoryStore
	pending   *register.MemoryStore
	notifier  *captureNotifier
	auditRepo *audit.MemoryRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	tokens, err := token.NewManager(testAuthConfig())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	env := &testEnv{
		tokens:    tokens,
		admins:    newMemRepo(),
		customers: newMemRepo(),
		refresh:   refresh.NewMemoryStore(),
		pending:   register.NewMemoryStore(),
		notifier:  &captureNotifier{},
		auditRepo: audit.NewMemoryRepo(),
	}

	h := &Handlers{
		Tokens:    tokens,
		Refresh:   env.refresh,
		Pending:   env.pending,
		Admins:    env.admins,
		Customers: env.customers,
		Codes:     otp.NewStore(rdb),
		Notifier:  env.notifier,
		Audit:     audit.NewService(env.auditRepo),
		Cookies:   auth.CookieWriter{},
		CodeTTL:   5 * time.Minute,
	}

	r := gin.New()
	Mount(r, RouterDeps{
		Handlers: h,
		Tokens:   tokens,
		Auth:     auth.NewAuthenticator(tokens, env.refresh),
	})
	env.router = r
	return env
}

func (e *testEnv) seedCustomer(t *testing.T, identity, password string) *principal.Principal {
	t.Helper()
	hash, err := principal.HashSecret(password)
	if err != nil {
		t.Fatalf("HashSecret: %v", err)
	}
	p := &principal.Principal{
		ID:         uuid.NewString(),
		Identity:   identity,
		Name:       "Test Customer",
		SecretHash: hash,
		Verified:   true,
	}
	if err := e.customers.Create(context.Background(), p); err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return p
}

func (e *testEnv) postJSON(t *testing.T, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func cookieNamed(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, ck := range w.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	t.Fatalf("cookie %q not set; got %v", name, w.Result().Cookies())
	return nil
}

func hasCookie(w *httptest.ResponseRecorder, name string) bool {
	for _, ck := range w.Result().Cookies() {
		if ck.Name == name && ck.Value != "" {
			return true
		}
	}
	return false
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v (%s)", err, w.Body.String())
	}
	return out.Data
}

func TestLoginFlowIssuesSessionAfterCode(t *testing.T) {
	env := newTestEnv(t)
	env.seedCustomer(t, "ada@example.com", "s3cret-pw")

	w := env.postJSON(t, "/v1/auth/customer/login", map[string]any{
		"identity": "ada@example.com",
		"password": "s3cret-pw",
		"remember": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}
	stageCk := cookieNamed(t, w, "customer_verify_stage")
	if hasCookie(w, auth.CookieAccess) || hasCookie(w, auth.CookieRefresh) {
		t.Fatal("full credentials issued before code verification")
	}

	identity, code := env.notifier.last()
	if identity != "ada@example.com" || code == "" {
		t.Fatalf("code not dispatched: identity=%q code=%q", identity, code)
	}

	w = env.postJSON(t, "/v1/auth/customer/login/verify", map[string]any{"code": code}, stageCk)
	if w.Code != http.StatusOK {
		t.Fatalf("verify status = %d, body %s", w.Code, w.Body.String())
	}
	data := decodeData(t, w)
	access, _ := data["accessToken"].(string)
	refreshVal, _ := data["refreshToken"].(string)
	if access == "" || refreshVal == "" {
		t.Fatalf("tokens missing from payload: %v", data)
	}
	if !hasCookie(w, auth.CookieAccess) || !hasCookie(w, auth.CookieRefresh) {
		t.Fatal("credential cookies not set")
	}
	if env.refresh.Len() != 1 {
		t.Fatalf("refresh rows = %d, want 1", env.refresh.Len())
	}

	// Remember was chosen at the password step; the refresh cookie must
	// be persistent.
	refreshCk := cookieNamed(t, w, auth.CookieRefresh)
	if refreshCk.MaxAge <= 0 {
		t.Fatalf("refresh cookie MaxAge = %d, want persistent", refreshCk.MaxAge)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.seedCustomer(t, "ada@example.com", "s3cret-pw")

	for _, body := range []map[string]any{
		{"identity": "ada@example.com", "password": "wrong"},
		{"identity": "nobody@example.com", "password": "whatever"},
	} {
		w := env.postJSON(t, "/v1/auth/customer/login", body)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("login(%v) status = %d, want 401", body, w.Code)
		}
		if hasCookie(w, "customer_verify_stage") {
			t.Fatal("stage cookie issued on failed login")
		}
	}

	events := env.auditRepo.Events()
	if len(events) != 2 {
		t.Fatalf("audit events = %d, want 2", len(events))
	}
	for _, e := range events {
		if e.Type != audit.EventTypeLoginFailure {
			t.Fatalf("event type = %s, want login_failure", e.Type)
		}
	}
}

func TestLoginVerifyRequiresStage(t *testing.T) {
	env := newTestEnv(t)
	w := env.postJSON(t, "/v1/auth/customer/login/verify", map[string]any{"code": "123456"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestLoginCodeIsSingleUse(t *testing.T) {
	env := newTestEnv(t)
	env.seedCustomer(t, "ada@example.com", "s3cret-pw")

	w := env.postJSON(t, "/v1/auth/customer/login", map[string]any{
		"identity": "ada@example.com", "password": "s3cret-pw",
	})
	stageCk := cookieNamed(t, w, "customer_verify_stage")
	_, code := env.notifier.last()

	// Wrong code does not consume the stored one.
	w = env.postJSON(t, "/v1/auth/customer/login/verify", map[string]any{"code": "000000"}, stageCk)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong code status = %d, want 401", w.Code)
	}

	w = env.postJSON(t, "/v1/auth/customer/login/verify", map[string]any{"code": code}, stageCk)
	if w.Code != http.StatusOK {
		t.Fatalf("correct code status = %d, body %s", w.Code, w.Body.String())
	}

	// Spent. A replay with the same stage cookie must fail.
	w = env.postJSON(t, "/v1/auth/customer/login/verify", map[string]any{"code": code}, stageCk)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("replay status = %d, want 401", w.Code)
	}
}

func TestLoginResendReplacesCode(t *testing.T) {
	env := newTestEnv(t)
	env.seedCustomer(t, "ada@example.com", "s3cret-pw")

	w := env.postJSON(t, "/v1/auth/customer/login", map[string]any{
		"identity": "ada@example.com", "password": "s3cret-pw",
	})
	stageCk := cookieNamed(t, w, "customer_verify_stage")
	_, first := env.notifier.last()

	w = env.postJSON(t, "/v1/auth/customer/login/resend", nil, stageCk)
	if w.Code != http.StatusOK {
		t.Fatalf("resend status = %d", w.Code)
	}
	_, second := env.notifier.last()

	// The first code is dead once a new one is stored.
	if first != second {
		w = env.postJSON(t, "/v1/auth/customer/login/verify", map[string]any{"code": first}, stageCk)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("stale code status = %d, want 401", w.Code)
		}
	}
	w = env.postJSON(t, "/v1/auth/customer/login/verify", map[string]any{"code": second}, stageCk)
	if w.Code != http.StatusOK {
		t.Fatalf("fresh code status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestRegisterFlowPromotesPending(t *testing.T) {
	env := newTestEnv(t)

	w := env.postJSON(t, "/v1/auth/customer/register", map[string]any{
		"identity": "new@example.com",
		"name":     "New Customer",
		"password": "fresh-pw",
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("register status = %d, body %s", w.Code, w.Body.String())
	}
	if env.pending.Len() != 1 {
		t.Fatalf("pending rows = %d, want 1", env.pending.Len())
	}
	_, code := env.notifier.last()

	w = env.postJSON(t, "/v1/auth/customer/register/verify", map[string]any{
		"identity": "new@example.com", "code": code,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("verify status = %d, body %s", w.Code, w.Body.String())
	}
	if env.pending.Len() != 0 {
		t.Fatalf("pending rows = %d after promotion, want 0", env.pending.Len())
	}

	p, err := env.customers.FindByIdentity(context.Background(), "new@example.com")
	if err != nil {
		t.Fatalf("promoted customer missing: %v", err)
	}
	if !p.Verified {
		t.Fatal("promoted customer not marked verified")
	}
	if !principal.VerifySecret("fresh-pw", p.SecretHash) {
		t.Fatal("promoted customer has wrong secret hash")
	}

	// Verification doubles as the first login.
	if !hasCookie(w, auth.CookieAccess) || !hasCookie(w, auth.CookieRefresh) {
		t.Fatal("credential cookies not set after promotion")
	}
	if env.refresh.Len() != 1 {
		t.Fatalf("refresh rows = %d after promotion, want 1", env.refresh.Len())
	}
}

func TestRegisterRejectsExistingCustomer(t *testing.T) {
	env := newTestEnv(t)
	env.seedCustomer(t, "ada@example.com", "s3cret-pw")

	w := env.postJSON(t, "/v1/auth/customer/register", map[string]any{
		"identity": "ada@example.com", "password": "other-pw",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if env.pending.Len() != 0 {
		t.Fatal("pending row created for existing identity")
	}
}

func TestRegisterVerifyRejectsWrongCode(t *testing.T) {
	env := newTestEnv(t)

	env.postJSON(t, "/v1/auth/customer/register", map[string]any{
		"identity": "new@example.com", "password": "fresh-pw",
	})

	w := env.postJSON(t, "/v1/auth/customer/register/verify", map[string]any{
		"identity": "new@example.com", "code": "000000",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if env.pending.Len() != 1 {
		t.Fatal("pending row removed on failed verification")
	}
}

func TestForgotFlowResetsPasswordAndRevokesSessions(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedCustomer(t, "ada@example.com", "old-pw")

	// A live session that must die with the password.
	refreshTok, ttl, err := env.tokens.Issue(time.Now(), token.TypeCustomer, token.ClassRefresh, token.Subject{ID: p.ID, Identity: p.Identity})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	err = env.refresh.Create(context.Background(), refresh.Token{
		Token: refreshTok, PrincipalID: p.ID, PrincipalType: "customer", ExpiresAt: time.Now().Add(ttl),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	w := env.postJSON(t, "/v1/auth/customer/forgot", map[string]any{"identity": "ada@example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("forgot status = %d", w.Code)
	}
	stageCk := cookieNamed(t, w, "customer_verify_stage")
	_, code := env.notifier.last()

	w = env.postJSON(t, "/v1/auth/customer/forgot/verify", map[string]any{"code": code}, stageCk)
	if w.Code != http.StatusOK {
		t.Fatalf("forgot/verify status = %d, body %s", w.Code, w.Body.String())
	}

	w = env.postJSON(t, "/v1/auth/customer/forgot/reset", map[string]any{"password": "new-pw"}, stageCk)
	if w.Code != http.StatusOK {
		t.Fatalf("forgot/reset status = %d, body %s", w.Code, w.Body.String())
	}

	got, err := env.customers.FindByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if !principal.VerifySecret("new-pw", got.SecretHash) {
		t.Fatal("password not updated")
	}
	if principal.VerifySecret("old-pw", got.SecretHash) {
		t.Fatal("old password still valid")
	}
	if env.refresh.Len() != 0 {
		t.Fatalf("refresh rows = %d after reset, want 0", env.refresh.Len())
	}
}

func TestForgotResetRequiresVerifiedCode(t *testing.T) {
	env := newTestEnv(t)
	env.seedCustomer(t, "ada@example.com", "old-pw")

	// Stage cookie straight from /forgot, skipping /forgot/verify.
	w := env.postJSON(t, "/v1/auth/customer/forgot", map[string]any{"identity": "ada@example.com"})
	stageCk := cookieNamed(t, w, "customer_verify_stage")

	w = env.postJSON(t, "/v1/auth/customer/forgot/reset", map[string]any{"password": "hijacked"}, stageCk)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	got, _ := env.customers.FindByIdentity(context.Background(), "ada@example.com")
	if !principal.VerifySecret("old-pw", got.SecretHash) {
		t.Fatal("password changed without code verification")
	}
}

func TestForgotDoesNotRevealUnknownIdentity(t *testing.T) {
	env := newTestEnv(t)

	w := env.postJSON(t, "/v1/auth/customer/forgot", map[string]any{"identity": "ghost@example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	data := decodeData(t, w)
	if data["sent"] != true {
		t.Fatalf("payload = %v, want sent:true", data)
	}
	if hasCookie(w, "customer_verify_stage") {
		t.Fatal("stage cookie issued for unknown identity")
	}
	if _, code := env.notifier.last(); code != "" {
		t.Fatal("code dispatched for unknown identity")
	}
}

func TestLogoutDeletesRefreshRow(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedCustomer(t, "ada@example.com", "s3cret-pw")

	refreshTok, ttl, err := env.tokens.Issue(time.Now(), token.TypeCustomer, token.ClassRefresh, token.Subject{ID: p.ID, Identity: p.Identity})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	err = env.refresh.Create(context.Background(), refresh.Token{
		Token: refreshTok, PrincipalID: p.ID, PrincipalType: "customer", ExpiresAt: time.Now().Add(ttl),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	w := env.postJSON(t, "/v1/auth/customer/logout", nil, &http.Cookie{Name: auth.CookieRefresh, Value: refreshTok})
	if w.Code != http.StatusOK {
		t.Fatalf("logout status = %d", w.Code)
	}
	if env.refresh.Len() != 0 {
		t.Fatalf("refresh rows = %d after logout, want 0", env.refresh.Len())
	}
	for _, ck := range w.Result().Cookies() {
		if (ck.Name == auth.CookieAccess || ck.Name == auth.CookieRefresh) && ck.MaxAge >= 0 {
			t.Fatalf("cookie %s not cleared", ck.Name)
		}
	}
}

func TestMeEchoesIdentity(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedCustomer(t, "ada@example.com", "s3cret-pw")

	now := time.Now()
	subj := token.Subject{ID: p.ID, Identity: p.Identity}
	access, _, err := env.tokens.Issue(now, token.TypeCustomer, token.ClassAccess, subj)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	refreshTok, ttl, err := env.tokens.Issue(now, token.TypeCustomer, token.ClassRefresh, subj)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	err = env.refresh.Create(context.Background(), refresh.Token{
		Token: refreshTok, PrincipalID: p.ID, PrincipalType: "customer", ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/customer/me", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieAccess, Value: access})
	req.AddCookie(&http.Cookie{Name: auth.CookieRefresh, Value: refreshTok})
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d, body %s", w.Code, w.Body.String())
	}
	data := decodeData(t, w)
	user, _ := data["user"].(map[string]any)
	if user["identity"] != "ada@example.com" {
		t.Fatalf("identity = %v", user["identity"])
	}
}
