package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/accounts"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/authz"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/dbtest"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/middleware"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/repository"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/utils"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(t)
	issuer, err := utils.NewTokenIssuer("auth-service-test-secret", "cmms", time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	global := repository.NewGlobal(db)
	directory := accounts.NewTenantDirectory(global, utils.NewCache(nil, "tenants"))

	store := repository.NewGormStore(db)
	router := gin.New()
	setupRoutes(router,
		accounts.NewSessionService(global, store, issuer),
		middleware.NewAuthMiddleware(accounts.NewAuthenticator(issuer, directory, store)))
	return router
}

func post(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSignupLoginVerify(t *testing.T) {
	router := newTestRouter(t)

	w := post(t, router, "/auth/signup", map[string]string{
		"tenant_name": "Acme",
		"tenant_slug": "acme",
		"name":        "Gina",
		"email":       "gina@acme.test",
		"password":    "long-enough",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: %d %s", w.Code, w.Body.String())
	}

	w = post(t, router, "/auth/login", map[string]string{
		"tenant_slug": "acme",
		"email":       "gina@acme.test",
		"password":    "long-enough",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	var login struct {
		Data accounts.Session `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer "+login.Data.Token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify: %d %s", rec.Code, rec.Body.String())
	}
	var verify struct {
		Data VerifyResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &verify); err != nil {
		t.Fatalf("decode verify: %v", err)
	}
	if verify.Data.Actor.Role != authz.RoleGeneralSupervisor || len(verify.Data.Permissions) == 0 {
		t.Fatalf("verify = %+v", verify.Data)
	}
}

func TestLoginRejections(t *testing.T) {
	router := newTestRouter(t)

	if w := post(t, router, "/auth/login", map[string]string{"tenant_slug": "nobody", "email": "a@b.c", "password": "whatever1"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown tenant: %d", w.Code)
	}
	if w := post(t, router, "/auth/signup", map[string]string{"tenant_name": "Acme", "tenant_slug": "Not A Slug!", "name": "G", "email": "g@acme.test", "password": "long-enough"}); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid slug: %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: %d", rec.Code)
	}
}
