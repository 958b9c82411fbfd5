package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"anggaran/internal/middleware"
	"anggaran/internal/services"
	appvalidator "anggaran/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	appvalidator.Register()
}

const testActor = "bendahara"

// injectActor stands in for AuthMiddleware.
func injectActor(actor string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ActorKey, actor)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body: %v (%s)", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	if success, _ := result["success"].(bool); success {
		t.Errorf("expected success=false, got %v", result)
	}
	if got, _ := result["code"].(string); got != code {
		t.Errorf("expected error code %s, got %v", code, result["code"])
	}
}

// data returns the envelope payload as an object.
func data(t *testing.T, result map[string]interface{}) map[string]interface{} {
	t.Helper()
	if success, _ := result["success"].(bool); !success {
		t.Fatalf("expected success=true, got %v", result)
	}
	obj, ok := result["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected object data, got %T", result["data"])
	}
	return obj
}

// --- mock audit service ---

type auditCall struct {
	Actor, Action, ResourceType, ResourceID string
}

type mockAuditService struct {
	mu    sync.Mutex
	calls []auditCall
}

func (m *mockAuditService) Log(actor, action, resourceType, resourceID, _ string, _ map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, auditCall{actor, action, resourceType, resourceID})
}

func (m *mockAuditService) assertLogged(t *testing.T, action, resourceID string) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.calls {
		if c.Action == action && c.ResourceID == resourceID {
			if c.Actor != testActor {
				t.Errorf("%s logged by %q, want %q", action, c.Actor, testActor)
			}
			return
		}
	}
	t.Errorf("expected audit %s for %s, got %+v", action, resourceID, m.calls)
}

func (m *mockAuditService) assertNothingLogged(t *testing.T) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) != 0 {
		t.Errorf("expected no audit entries, got %+v", m.calls)
	}
}

var _ services.AuditServicer = (*mockAuditService)(nil)
