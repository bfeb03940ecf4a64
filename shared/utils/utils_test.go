package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/authz"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/errs"
)

func TestTokenIssuer(t *testing.T) {
	issuer, err := NewTokenIssuer("0123456789abcdef0123", "cmms", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	actor := authz.Actor{ID: uuid.New(), TenantID: uuid.New(), Role: authz.RoleMaintainer}

	token, expires, err := issuer.Issue(actor)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatal("token already expired")
	}

	got, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if *got != actor {
		t.Fatalf("verify = %+v, want %+v", got, actor)
	}

	other, _ := NewTokenIssuer("another-secret-of-length", "cmms", time.Hour)
	if _, err := other.Verify(token); err == nil {
		t.Fatal("token verified with the wrong secret")
	}

	expired, _ := NewTokenIssuer("0123456789abcdef0123", "cmms", -time.Minute)
	stale, _, _ := expired.Issue(actor)
	if _, err := issuer.Verify(stale); err == nil {
		t.Fatal("expired token accepted")
	}

	if _, err := NewTokenIssuer("short", "cmms", time.Hour); err == nil {
		t.Fatal("short secret accepted")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Fatal("matching password rejected")
	}
	if CheckPassword(hash, "battery staple") {
		t.Fatal("wrong password accepted")
	}
	if _, err := HashPassword("short"); err == nil {
		t.Fatal("short password accepted")
	}
}

func TestCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	cache := NewCache(client, "tenants")

	if _, err := cache.Get(ctx, "acme"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("got %v, want ErrCacheMiss", err)
	}
	if err := cache.Set(ctx, "acme", []byte(`{"id":"1"}`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("tenants:acme") {
		t.Fatal("key not namespaced")
	}
	val, err := cache.Get(ctx, "acme")
	if err != nil || string(val) != `{"id":"1"}` {
		t.Fatalf("get = %q, %v", val, err)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := cache.Get(ctx, "acme"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expired key: got %v", err)
	}

	_ = cache.Set(ctx, "globex", []byte("x"), time.Minute)
	if err := cache.Delete(ctx, "globex"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("tenants:globex") {
		t.Fatal("key survived delete")
	}
}

func TestDisabledCacheMisses(t *testing.T) {
	cache := NewCache(nil, "x")
	if cache.Enabled() {
		t.Fatal("nil client should disable the cache")
	}
	if err := cache.Set(context.Background(), "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set on disabled cache: %v", err)
	}
	if _, err := cache.Get(context.Background(), "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("got %v", err)
	}
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		body   string
	}{
		{errs.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{fmt.Errorf("assign: %w", errs.ErrForbidden), http.StatusForbidden, "Insufficient privilege"},
		{errs.ErrNotFound, http.StatusNotFound, "Not found"},
		{errs.Invalid("priority", "unknown value"), http.StatusBadRequest, `"field":"priority"`},
		{errors.New("db exploded"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Set("request_id", "req-42")

		RespondError(c, tc.err)

		if w.Code != tc.status {
			t.Errorf("%v: status = %d, want %d", tc.err, w.Code, tc.status)
		}
		if !strings.Contains(w.Body.String(), tc.body) {
			t.Errorf("%v: body %s missing %q", tc.err, w.Body.String(), tc.body)
		}
		var resp APIResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Success || resp.RequestID != "req-42" {
			t.Errorf("%v: bad envelope %s", tc.err, w.Body.String())
		}
		if strings.Contains(w.Body.String(), "db exploded") {
			t.Error("internal error detail leaked to client")
		}
	}
}
