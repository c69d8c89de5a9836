package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"famledger/internal/auth"
	apperrors "famledger/internal/errors"
	"famledger/internal/middleware"
	"famledger/internal/models"
	"famledger/internal/pagination"
	"famledger/internal/services"
	"famledger/internal/validator"
)

// --- mock services ---

type mockUserService struct {
	createUserFn func(chatID int64, name, familyID string) (*models.User, error)
	listUsersFn  func(page pagination.PageRequest) (*pagination.PageResponse[models.User], error)
}

func (m *mockUserService) CreateUser(_ context.Context, chatID int64, name, familyID string) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(chatID, name, familyID)
	}
	return &models.User{ChatID: chatID, Name: name, FamilyID: familyID}, nil
}

func (m *mockUserService) FindByChatID(_ context.Context, _ int64) (*models.User, error) {
	return nil, apperrors.ErrNotFound
}

func (m *mockUserService) ListUsers(_ context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.User], error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(page)
	}
	resp := pagination.NewPageResponse([]models.User{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockUserService) ListAuthorized(_ context.Context) ([]models.User, error) {
	return nil, nil
}

var _ services.UserServicer = (*mockUserService)(nil)

type mockAuthorizer struct {
	refreshErr error
	refreshes  int
	size       int
}

func (m *mockAuthorizer) Authorize(_ context.Context, _ int64) (*models.User, error) {
	return nil, apperrors.ErrUnauthorized
}

func (m *mockAuthorizer) ForceRefresh(_ context.Context) error {
	m.refreshes++
	return m.refreshErr
}

func (m *mockAuthorizer) Len() int { return m.size }

var _ auth.Authorizer = (*mockAuthorizer)(nil)

type mockAuditService struct {
	mu      sync.Mutex
	actions []string
}

func (m *mockAuditService) Log(_ context.Context, _ int64, _, action, _ string, _ map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, action)
}

// --- test helpers ---

const testAPIKey = "admin-secret"

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func setupAdminRouter(h *AdminHandler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	h.Register(r, middleware.AdminAuth(testAPIKey))
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

// --- tests ---

func TestAdminHandler_Health(t *testing.T) {
	h := NewAdminHandler(&mockUserService{}, &mockAuthorizer{size: 3}, &mockAuditService{})
	r := setupAdminRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/health", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without an API key, got %d", rec.Code)
	}
	body := parseJSON(t, rec)
	if body["status"] != "ok" || body["authorized_users"] != float64(3) {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestAdminHandler_RefreshAuth(t *testing.T) {
	t.Run("returns 200 and audits", func(t *testing.T) {
		authz := &mockAuthorizer{size: 2}
		audit := &mockAuditService{}
		r := setupAdminRouter(NewAdminHandler(&mockUserService{}, authz, audit))

		rec := doRequest(r, http.MethodPost, "/api/v1/admin/auth/refresh", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if authz.refreshes != 1 {
			t.Errorf("expected one refresh, got %d", authz.refreshes)
		}
		if len(audit.actions) != 1 || audit.actions[0] != services.AuditActionRefresh {
			t.Errorf("expected refresh audit entry, got %v", audit.actions)
		}
	})

	t.Run("store failure is 500", func(t *testing.T) {
		authz := &mockAuthorizer{refreshErr: apperrors.Wrap(apperrors.ErrStoreFailure, errors.New("db down"))}
		audit := &mockAuditService{}
		r := setupAdminRouter(NewAdminHandler(&mockUserService{}, authz, audit))

		rec := doRequest(r, http.MethodPost, "/api/v1/admin/auth/refresh", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "STORE_FAILURE")
		if len(audit.actions) != 0 {
			t.Errorf("failed refresh should not be audited, got %v", audit.actions)
		}
	})

	t.Run("requires api key", func(t *testing.T) {
		r := setupAdminRouter(NewAdminHandler(&mockUserService{}, &mockAuthorizer{}, &mockAuditService{}))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/auth/refresh", http.NoBody)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_API_KEY")
	})
}

func TestAdminHandler_ListUsers(t *testing.T) {
	t.Run("passes pagination through", func(t *testing.T) {
		var got pagination.PageRequest
		users := &mockUserService{
			listUsersFn: func(page pagination.PageRequest) (*pagination.PageResponse[models.User], error) {
				got = page
				resp := pagination.NewPageResponse([]models.User{{ChatID: 1001, Name: "Alice", FamilyID: "smiths"}}, 2, 5, 6)
				return &resp, nil
			},
		}
		r := setupAdminRouter(NewAdminHandler(users, &mockAuthorizer{}, &mockAuditService{}))

		rec := doRequest(r, http.MethodGet, "/api/v1/admin/users?page=2&page_size=5", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Page != 2 || got.PageSize != 5 {
			t.Errorf("expected page 2 size 5, got %+v", got)
		}
		body := parseJSON(t, rec)
		if body["total_pages"] != float64(2) {
			t.Errorf("expected 2 total pages, got %v", body["total_pages"])
		}
		data, _ := body["data"].([]interface{})
		if len(data) != 1 {
			t.Fatalf("expected one user, got %v", body["data"])
		}
		if user := data[0].(map[string]interface{}); user["chat_id"] != float64(1001) {
			t.Errorf("unexpected user %v", user)
		}
	})

	t.Run("rejects oversized page", func(t *testing.T) {
		r := setupAdminRouter(NewAdminHandler(&mockUserService{}, &mockAuthorizer{}, &mockAuditService{}))

		rec := doRequest(r, http.MethodGet, "/api/v1/admin/users?page_size=500", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestAdminHandler_CreateUser(t *testing.T) {
	t.Run("returns 201, audits and refreshes", func(t *testing.T) {
		authz := &mockAuthorizer{}
		audit := &mockAuditService{}
		r := setupAdminRouter(NewAdminHandler(&mockUserService{}, authz, audit))

		rec := doRequest(r, http.MethodPost, "/api/v1/admin/users",
			`{"chat_id": -1001234, "name": "Family Group", "family_id": "smiths"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		user, _ := parseJSON(t, rec)["user"].(map[string]interface{})
		if user["chat_id"] != float64(-1001234) || user["family_id"] != "smiths" {
			t.Errorf("unexpected user %v", user)
		}
		if authz.refreshes != 1 {
			t.Errorf("expected the authorizer to be refreshed, got %d", authz.refreshes)
		}
		if len(audit.actions) != 1 || audit.actions[0] != services.AuditActionUserCreated {
			t.Errorf("expected user_created audit entry, got %v", audit.actions)
		}
	})

	t.Run("refresh failure still returns 201", func(t *testing.T) {
		authz := &mockAuthorizer{refreshErr: apperrors.ErrStoreFailure}
		r := setupAdminRouter(NewAdminHandler(&mockUserService{}, authz, &mockAuditService{}))

		rec := doRequest(r, http.MethodPost, "/api/v1/admin/users",
			`{"chat_id": 1001, "name": "Alice", "family_id": "smiths"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name string
			body string
		}{
			{"missing_chat_id", `{"name": "Alice", "family_id": "smiths"}`},
			{"missing_name", `{"chat_id": 1001, "family_id": "smiths"}`},
			{"bad_family_id", `{"chat_id": 1001, "name": "Alice", "family_id": "the smiths"}`},
			{"not_json", `chat_id=1001`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				r := setupAdminRouter(NewAdminHandler(&mockUserService{}, &mockAuthorizer{}, &mockAuditService{}))

				rec := doRequest(r, http.MethodPost, "/api/v1/admin/users", tt.body)

				if rec.Code != http.StatusBadRequest {
					t.Fatalf("expected 400, got %d", rec.Code)
				}
				assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
			})
		}
	})

	t.Run("duplicate is 409", func(t *testing.T) {
		users := &mockUserService{
			createUserFn: func(_ int64, _, _ string) (*models.User, error) {
				return nil, apperrors.ErrDuplicateChatID
			},
		}
		audit := &mockAuditService{}
		r := setupAdminRouter(NewAdminHandler(users, &mockAuthorizer{}, audit))

		rec := doRequest(r, http.MethodPost, "/api/v1/admin/users",
			`{"chat_id": 1001, "name": "Alice", "family_id": "smiths"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_CHAT_ID")
		if len(audit.actions) != 0 {
			t.Errorf("failed creation should not be audited, got %v", audit.actions)
		}
	})
}
