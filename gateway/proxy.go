package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/logging"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/middleware"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/utils"
)

// hop-by-hop headers are never forwarded
var hopHeaders = map[string]bool{
	"Connection":        true,
	"Keep-Alive":        true,
	"Transfer-Encoding": true,
	"Upgrade":           true,
	"Te":                true,
	"Trailer":           true,
}

// ServiceClient handles HTTP communication with one backend service
type ServiceClient struct {
	name       string
	baseURL    string
	httpClient *http.Client
	breaker    *utils.CircuitBreaker
}

// ServiceClients holds all service clients
type ServiceClients struct {
	Auth        *ServiceClient
	Tenant      *ServiceClient
	Maintenance *ServiceClient
	Audit       *ServiceClient
}

// NewServiceClient creates a client for the service at baseURL.
// Five consecutive transport failures or 5xx answers open its breaker for 30 seconds.
func NewServiceClient(name, baseURL string) *ServiceClient {
	return &ServiceClient{
		name:    name,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		breaker: utils.NewCircuitBreaker(name, 5, 30*time.Second),
	}
}

type upstreamError struct {
	status int
}

func (e upstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.status)
}

// ProxyRequest forwards the request to the service under the same path
func (sc *ServiceClient) ProxyRequest(c *gin.Context) {
	targetURL := sc.baseURL + c.Request.URL.Path
	if c.Request.URL.RawQuery != "" {
		targetURL += "?" + c.Request.URL.RawQuery
	}

	var body io.Reader
	if c.Request.Body != nil {
		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			utils.BadRequestResponse(c, "Failed to read request body")
			return
		}
		body = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, targetURL, body)
	if err != nil {
		utils.InternalServerErrorResponse(c, "Failed to create request")
		return
	}
	copyHeaders(req.Header, c.Request.Header)

	// identity headers are always rewritten from the verified token
	for _, h := range []string{"X-User-ID", "X-Tenant-ID", "X-User-Role"} {
		req.Header.Del(h)
	}
	if actor := middleware.ActorFromContext(c); actor != nil {
		req.Header.Set("X-User-ID", actor.ID.String())
		req.Header.Set("X-Tenant-ID", actor.TenantID.String())
		req.Header.Set("X-User-Role", string(actor.Role))
	}
	if id := c.GetString("request_id"); id != "" {
		req.Header.Set(middleware.RequestIDHeader, id)
	}

	var resp *http.Response
	err = sc.breaker.Call(func() error {
		var callErr error
		resp, callErr = sc.httpClient.Do(req)
		if callErr != nil {
			return callErr
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return upstreamError{status: resp.StatusCode}
		}
		return nil
	})
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if _, ok := err.(upstreamError); !ok {
			logging.FromContext(c.Request.Context()).WithError(err).
				WithField("service", sc.name).Warn("Upstream call failed")
			utils.ErrorResponse(c, http.StatusServiceUnavailable, "Service temporarily unavailable")
			return
		}
	}

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadGateway, "Failed to read response")
		return
	}

	for key, values := range resp.Header {
		if hopHeaders[key] || key == "Content-Length" {
			continue
		}
		for _, value := range values {
			c.Writer.Header().Add(key, value)
		}
	}
	c.Data(resp.StatusCode, resp.Header.Get("Content-Type"), responseBody)
}

func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		if hopHeaders[key] {
			continue
		}
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}

// HealthCheck checks if a service is healthy
func (sc *ServiceClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sc.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := sc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service returned status %d", resp.StatusCode)
	}
	return nil
}

// ServiceStatus is the health of one backend as seen by the gateway
type ServiceStatus struct {
	Healthy bool               `json:"healthy"`
	Breaker utils.CircuitState `json:"breaker"`
	Error   string             `json:"error,omitempty"`
}

func (scs *ServiceClients) all() []*ServiceClient {
	return []*ServiceClient{scs.Auth, scs.Tenant, scs.Maintenance, scs.Audit}
}

// GetServiceStatus returns the status of all services and whether every one is healthy
func (scs *ServiceClients) GetServiceStatus(ctx context.Context) (map[string]ServiceStatus, bool) {
	status := make(map[string]ServiceStatus)
	healthy := true
	for _, sc := range scs.all() {
		s := ServiceStatus{Healthy: true, Breaker: sc.breaker.GetState()}
		if err := sc.HealthCheck(ctx); err != nil {
			s.Healthy = false
			s.Error = err.Error()
			healthy = false
		}
		status[sc.name] = s
	}
	return status, healthy
}
