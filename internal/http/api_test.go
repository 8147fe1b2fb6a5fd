package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"todo-backend/internal/domain"
	"todo-backend/internal/repository"
	"todo-backend/internal/repository/sqlite"
	"todo-backend/internal/service"
	"todo-backend/internal/storage"
)

const testSecret = "endpoint-test-secret-endpoint-test-secret"

type testServer struct {
	router *gin.Engine
	users  repository.UserRepository
	todos  repository.TodoRepository
	tokens service.TokenService
}

// fakeObjectStore is an in-memory stand-in for the S3 service.
type fakeObjectStore struct {
	objects map[string][]byte
}

func (s *fakeObjectStore) PutObject(_ context.Context, bucket, key string, body []byte, _ string) (string, error) {
	if s.objects == nil {
		s.objects = make(map[string][]byte)
	}
	s.objects[key] = body
	return "s3://" + bucket + "/" + key, nil
}

func (s *fakeObjectStore) ListObjects(_ context.Context, _, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for key, body := range s.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(body))})
		}
	}
	return out, nil
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWithStorage(t, nil)
}

func newTestServerWithStorage(t *testing.T, store storage.Service) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	privilegeRepo := sqlite.NewPrivilegeRepository(db)
	roleRepo := sqlite.NewRoleRepository(db)
	userRepo := sqlite.NewUserRepository(db)
	todoRepo := sqlite.NewTodoRepository(db)

	ctx := context.Background()
	if err := privilegeRepo.Init(ctx); err != nil {
		t.Fatalf("init privileges: %v", err)
	}
	if err := roleRepo.Init(ctx); err != nil {
		t.Fatalf("init roles: %v", err)
	}
	if err := userRepo.Init(ctx); err != nil {
		t.Fatalf("init users: %v", err)
	}
	if err := todoRepo.Init(ctx); err != nil {
		t.Fatalf("init todos: %v", err)
	}

	tokens := service.NewTokenService(testSecret, time.Hour)
	auth := service.NewAuthService(userRepo, roleRepo, privilegeRepo, tokens)
	todos := service.NewTodoService(todoRepo, userRepo)

	var exporter service.ExportService
	if store != nil {
		exporter = service.NewExportService(todoRepo, store, "backups", "todo-exports")
	}

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	router := gin.New()
	NewHandler(auth, tokens, todos, exporter, logger).RegisterRoutes(router)

	return &testServer{
		router: router,
		users:  userRepo,
		todos:  todoRepo,
		tokens: tokens,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) registerAndLogin(t *testing.T, email, password string) string {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/api/register", "", gin.H{
		"email":    email,
		"password": password,
		"role":     string(domain.RoleBasicUser),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("register %s: status %d body %s", email, rec.Code, rec.Body)
	}

	rec = s.do(t, http.MethodPost, "/api/login", "", gin.H{
		"email":    email,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, rec.Code, rec.Body)
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login returned empty token")
	}
	return resp.Token
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var envelope ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope from %s: %v", rec.Body, err)
	}
	return envelope
}

func TestRegisterLoginListFlow(t *testing.T) {
	server := newTestServer(t)

	token := server.registerAndLogin(t, "a@x.com", "pw")

	subject, err := server.tokens.Subject(token)
	if err != nil {
		t.Fatalf("subject: %v", err)
	}
	if subject != "a@x.com" {
		t.Fatalf("token subject = %q, want registered email", subject)
	}

	rec := server.do(t, http.MethodGet, "/api/todos", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d body %s", rec.Code, rec.Body)
	}
	if rec.Body.String() != "[]" {
		t.Fatalf("fresh user list = %s, want []", rec.Body)
	}
}

func TestProtectedPathWithoutToken(t *testing.T) {
	server := newTestServer(t)

	rec := server.do(t, http.MethodGet, "/api/todos", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	if envelope.Status != http.StatusUnauthorized || envelope.Message != "Unauthorized" {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
}

func TestExpiredTokenTreatedAsAnonymous(t *testing.T) {
	server := newTestServer(t)
	server.registerAndLogin(t, "a@x.com", "pw")

	expiring := service.NewTokenService(testSecret, -time.Minute)
	expired, err := expiring.Issue(&domain.Principal{UserID: 1, Email: "a@x.com"})
	if err != nil {
		t.Fatalf("issue expired token: %v", err)
	}

	rec := server.do(t, http.MethodGet, "/api/todos", expired, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestPrincipalWithoutPrivilegesForbidden(t *testing.T) {
	server := newTestServer(t)

	// user created without any role: authenticates fine, holds no privileges
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if _, err := server.users.Create(context.Background(), &domain.User{
		Email:        "svc@x.com",
		PasswordHash: string(hash),
	}); err != nil {
		t.Fatalf("create roleless user: %v", err)
	}

	rec := server.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "svc@x.com", "password": "pw"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body)
	}
	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	rec = server.do(t, http.MethodGet, "/api/todos", resp.Token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	if envelope.Message != "Forbidden" {
		t.Fatalf("message = %q, want generic Forbidden", envelope.Message)
	}
}

func TestCurrentUser(t *testing.T) {
	server := newTestServer(t)

	rec := server.do(t, http.MethodGet, "/api/me", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous me: status %d", rec.Code)
	}
	if rec.Body.String() != "null" {
		t.Fatalf("anonymous me body = %s, want null", rec.Body)
	}

	token := server.registerAndLogin(t, "a@x.com", "pw")
	rec = server.do(t, http.MethodGet, "/api/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status %d body %s", rec.Code, rec.Body)
	}

	var me userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.Email != "a@x.com" || me.UserRole != string(domain.RoleBasicUser) {
		t.Fatalf("unexpected projection: %+v", me)
	}
	want := []string{"CREATE_TODOS", "DELETE_TODOS", "UPDATE_TODOS", "VIEW_TODOS"}
	if fmt.Sprint(me.Privileges) != fmt.Sprint(want) {
		t.Fatalf("privileges = %v, want sorted %v", me.Privileges, want)
	}
}

func TestRegisterRejections(t *testing.T) {
	server := newTestServer(t)

	rec := server.do(t, http.MethodPost, "/api/register", "", gin.H{
		"email":    "boss@x.com",
		"password": "pw",
		"role":     string(domain.RoleAdmin),
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("register admin: status %d, want 400", rec.Code)
	}

	server.registerAndLogin(t, "a@x.com", "pw")
	rec = server.do(t, http.MethodPost, "/api/register", "", gin.H{
		"email":    "a@x.com",
		"password": "other",
		"role":     string(domain.RoleBasicUser),
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: status %d, want 409", rec.Code)
	}

	rec = server.do(t, http.MethodPost, "/api/register", "", gin.H{
		"email":    "b@x.com",
		"password": "pw",
		"role":     "ROLE_WIZARD",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown role: status %d, want 400", rec.Code)
	}

	// whitespace-only fields satisfy the binding layer but are still invalid
	for _, body := range []gin.H{
		{"email": "   ", "password": "pw", "role": string(domain.RoleBasicUser)},
		{"email": "c@x.com", "password": " \t ", "role": string(domain.RoleBasicUser)},
	} {
		rec = server.do(t, http.MethodPost, "/api/register", "", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("blank field %v: status %d, want 400", body, rec.Code)
		}
		envelope := decodeEnvelope(t, rec)
		if envelope.Status != http.StatusBadRequest {
			t.Fatalf("blank field %v: envelope %+v", body, envelope)
		}
	}
}

func TestLoginGenericFailure(t *testing.T) {
	server := newTestServer(t)
	server.registerAndLogin(t, "a@x.com", "pw")

	for _, body := range []gin.H{
		{"email": "a@x.com", "password": "wrong"},
		{"email": "nobody@x.com", "password": "pw"},
	} {
		rec := server.do(t, http.MethodPost, "/api/login", "", body)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("login %v: status %d, want 401", body, rec.Code)
		}
		envelope := decodeEnvelope(t, rec)
		if envelope.Message != "Invalid email or password" {
			t.Fatalf("message = %q, want the generic one", envelope.Message)
		}
	}
}

func TestTodoLifecycle(t *testing.T) {
	server := newTestServer(t)
	token := server.registerAndLogin(t, "a@x.com", "pw")

	rec := server.do(t, http.MethodPost, "/api/todo/create", token, gin.H{
		"description": "buy milk",
		"dueDate":     "2026-09-15",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body)
	}
	var created todoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID == 0 || created.DueDate == nil || *created.DueDate != "2026-09-15" {
		t.Fatalf("unexpected created todo: %+v", created)
	}

	rec = server.do(t, http.MethodPut, "/api/todo/update", token, gin.H{
		"id":             created.ID,
		"description":    "buy oat milk",
		"checkMark":      true,
		"completionDate": "2026-09-16",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", rec.Code, rec.Body)
	}
	var updated todoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	if !updated.CheckMark || updated.Description != "buy oat milk" {
		t.Fatalf("unexpected updated todo: %+v", updated)
	}

	rec = server.do(t, http.MethodDelete, "/api/todo/delete", token, gin.H{"ids": []int64{created.ID}})
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d body %s", rec.Code, rec.Body)
	}

	rec = server.do(t, http.MethodGet, "/api/todos", token, nil)
	if rec.Body.String() != "[]" {
		t.Fatalf("list after delete = %s, want []", rec.Body)
	}
}

func TestOwnershipEnforcement(t *testing.T) {
	server := newTestServer(t)
	tokenA := server.registerAndLogin(t, "a@x.com", "pw")
	tokenB := server.registerAndLogin(t, "b@x.com", "pw")

	rec := server.do(t, http.MethodPost, "/api/todo/create", tokenA, gin.H{"description": "a's todo"})
	if rec.Code != http.StatusOK {
		t.Fatalf("create: status %d", rec.Code)
	}
	var created todoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	// b holds UPDATE_TODOS, so this is an ownership denial, not privilege
	rec = server.do(t, http.MethodPut, "/api/todo/update", tokenB, gin.H{
		"id":          created.ID,
		"description": "hijacked",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign update: status %d, want 403", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	if envelope.Message != "Forbidden" {
		t.Fatalf("message = %q, want generic Forbidden", envelope.Message)
	}

	recB := server.do(t, http.MethodPost, "/api/todo/create", tokenB, gin.H{"description": "b's todo"})
	var createdB todoResponse
	if err := json.Unmarshal(recB.Body.Bytes(), &createdB); err != nil {
		t.Fatalf("decode b's todo: %v", err)
	}

	// batch naming a foreign id fails entirely; both rows survive
	rec = server.do(t, http.MethodDelete, "/api/todo/delete", tokenA, gin.H{
		"ids": []int64{created.ID, createdB.ID},
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("mixed delete: status %d, want 403", rec.Code)
	}

	rec = server.do(t, http.MethodGet, "/api/todos", tokenA, nil)
	var listA []todoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &listA); err != nil {
		t.Fatalf("decode a's list: %v", err)
	}
	if len(listA) != 1 {
		t.Fatalf("a's todo count = %d after failed batch, want 1", len(listA))
	}

	rec = server.do(t, http.MethodGet, "/api/todos", tokenB, nil)
	var listB []todoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &listB); err != nil {
		t.Fatalf("decode b's list: %v", err)
	}
	if len(listB) != 1 {
		t.Fatalf("b's todo count = %d after failed batch, want 1", len(listB))
	}
}

func TestDeleteValidation(t *testing.T) {
	server := newTestServer(t)
	token := server.registerAndLogin(t, "a@x.com", "pw")

	rec := server.do(t, http.MethodDelete, "/api/todo/delete", token, gin.H{"ids": []int64{}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty id set: status %d, want 400", rec.Code)
	}

	rec = server.do(t, http.MethodDelete, "/api/todo/delete", token, gin.H{"ids": []int64{999}})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing id: status %d, want 404", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)

	rec := server.do(t, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("health: status %d, want 202", rec.Code)
	}
}

func TestExportUnavailableWithoutStorage(t *testing.T) {
	server := newTestServer(t)
	token := server.registerAndLogin(t, "a@x.com", "pw")

	rec := server.do(t, http.MethodPost, "/api/todos/export", token, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("export without storage: status %d, want 503", rec.Code)
	}

	rec = server.do(t, http.MethodGet, "/api/todos/exports", token, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("list exports without storage: status %d, want 503", rec.Code)
	}
}

func TestExportThenListSnapshots(t *testing.T) {
	store := &fakeObjectStore{}
	server := newTestServerWithStorage(t, store)
	tokenA := server.registerAndLogin(t, "a@x.com", "pw")
	tokenB := server.registerAndLogin(t, "b@x.com", "pw")

	rec := server.do(t, http.MethodPost, "/api/todo/create", tokenA, gin.H{"description": "pack bags"})
	if rec.Code != http.StatusOK {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body)
	}

	rec = server.do(t, http.MethodPost, "/api/todos/export", tokenA, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: status %d body %s", rec.Code, rec.Body)
	}
	var exported exportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &exported); err != nil {
		t.Fatalf("decode export: %v", err)
	}

	rec = server.do(t, http.MethodGet, "/api/todos/exports", tokenA, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list exports: status %d body %s", rec.Code, rec.Body)
	}
	var exports []exportInfoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &exports); err != nil {
		t.Fatalf("decode exports: %v", err)
	}
	if len(exports) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(exports))
	}
	if exports[0].Location != exported.Location {
		t.Fatalf("listed location = %q, want %q", exports[0].Location, exported.Location)
	}
	if exports[0].Size == 0 {
		t.Fatal("listed snapshot reports zero size")
	}

	// another user sees none of them
	rec = server.do(t, http.MethodGet, "/api/todos/exports", tokenB, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list exports as other user: status %d body %s", rec.Code, rec.Body)
	}
	if rec.Body.String() != "[]" {
		t.Fatalf("other user's exports = %s, want []", rec.Body)
	}
}
