package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/authz"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/middleware"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/utils"
)

type seen struct {
	path    string
	headers http.Header
	body    string
}

// echoBackend records the last request it served
func echoBackend(t *testing.T, status int) (*httptest.Server, *seen) {
	t.Helper()
	last := &seen{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		last.path = r.URL.RequestURI()
		last.headers = r.Header.Clone()
		last.body = string(body)
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv, last
}

type harness struct {
	router  *gin.Engine
	issuer  *utils.TokenIssuer
	clients *ServiceClients
}

func newHarness(t *testing.T, auth, tenant, maintenance, audit string) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	issuer, err := utils.NewTokenIssuer("gateway-test-secret-value", "cmms", time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	clients := &ServiceClients{
		Auth:        NewServiceClient("auth", auth),
		Tenant:      NewServiceClient("tenant", tenant),
		Maintenance: NewServiceClient("maintenance", maintenance),
		Audit:       NewServiceClient("audit", audit),
	}
	router := gin.New()
	setupRoutes(router, clients, middleware.NewAuthMiddleware(tokenAuthenticator{issuer: issuer}))
	return &harness{router: router, issuer: issuer, clients: clients}
}

func (h *harness) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-User-Role", "super_admin")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func TestProxyForwardsIdentity(t *testing.T) {
	backend, last := echoBackend(t, http.StatusOK)
	h := newHarness(t, backend.URL, backend.URL, backend.URL, backend.URL)

	if w := h.do(t, http.MethodPost, "/auth/login", "", `{"email":"a@b.c"}`); w.Code != http.StatusOK {
		t.Fatalf("login: %d", w.Code)
	}
	if last.path != "/auth/login" || last.body != `{"email":"a@b.c"}` {
		t.Fatalf("forwarded %s %q", last.path, last.body)
	}
	if role := last.headers.Get("X-User-Role"); role != "" {
		t.Fatalf("client supplied role leaked upstream: %q", role)
	}

	if w := h.do(t, http.MethodGet, "/work-orders", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: %d", w.Code)
	}

	actor := authz.Actor{ID: uuid.New(), TenantID: uuid.New(), Role: authz.RoleMaintainer}
	token, _, _ := h.issuer.Issue(actor)
	w := h.do(t, http.MethodPost, "/work-orders/"+uuid.NewString()+"/start?x=1", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("proxied: %d %s", w.Code, w.Body.String())
	}
	if !strings.HasSuffix(last.path, "/start?x=1") {
		t.Fatalf("path = %s", last.path)
	}
	if last.headers.Get("X-User-ID") != actor.ID.String() ||
		last.headers.Get("X-Tenant-ID") != actor.TenantID.String() ||
		last.headers.Get("X-User-Role") != string(authz.RoleMaintainer) {
		t.Fatalf("identity headers = %v", last.headers)
	}
	if last.headers.Get("Authorization") != "Bearer "+token {
		t.Fatal("authorization header not forwarded")
	}
	if last.headers.Get(middleware.RequestIDHeader) == "" {
		t.Fatal("request id not forwarded")
	}
}

func TestBreakerOpensOnFailingService(t *testing.T) {
	failing, _ := echoBackend(t, http.StatusInternalServerError)
	ok, _ := echoBackend(t, http.StatusOK)
	h := newHarness(t, ok.URL, ok.URL, ok.URL, failing.URL)

	token, _, _ := h.issuer.Issue(authz.Actor{ID: uuid.New(), TenantID: uuid.New(), Role: authz.RoleGeneralSupervisor})
	for i := 0; i < 5; i++ {
		if w := h.do(t, http.MethodGet, "/audit/work-orders/"+uuid.NewString(), token, ""); w.Code != http.StatusInternalServerError {
			t.Fatalf("call %d: %d", i, w.Code)
		}
	}
	if w := h.do(t, http.MethodGet, "/audit/work-orders/"+uuid.NewString(), token, ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("open breaker: %d", w.Code)
	}
	if h.clients.Audit.breaker.GetState() != utils.StateOpen {
		t.Fatalf("breaker = %s", h.clients.Audit.breaker.GetState())
	}

	// other services are unaffected
	if w := h.do(t, http.MethodGet, "/machines", token, ""); w.Code != http.StatusOK {
		t.Fatalf("machines: %d", w.Code)
	}
}

func TestServiceStatus(t *testing.T) {
	ok, _ := echoBackend(t, http.StatusOK)
	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()
	h := newHarness(t, ok.URL, ok.URL, ok.URL, down.URL)

	w := h.do(t, http.MethodGet, "/health/services", "", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status code = %d", w.Code)
	}
	var body struct {
		Data map[string]ServiceStatus `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Data["maintenance"].Healthy || body.Data["audit"].Healthy || body.Data["audit"].Error == "" {
		t.Fatalf("status = %+v", body.Data)
	}
}
