package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/maintenance-api/internal/realtime"
	"github.com/noah-isme/maintenance-api/internal/repository"
	"github.com/noah-isme/maintenance-api/internal/repository/memory"
	"github.com/noah-isme/maintenance-api/internal/service"
	"github.com/noah-isme/maintenance-api/internal/validation"
	"github.com/noah-isme/maintenance-api/pkg/storage"
)

type apiFixture struct {
	router *gin.Engine
	auth   *service.AuthService
}

func newAPI(t *testing.T, withAuth bool) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore(memory.New())
	validate := validation.New()
	logger := zap.NewNop()
	events := realtime.Discard{}

	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	attachments := service.NewAttachmentService(store.Requests, files, storage.NewSignedURLSigner("secret", time.Minute), events, service.AttachmentConfig{
		APIPrefix:    "/api/v1",
		MaxFileSize:  1 << 20,
		AllowedMIMEs: []string{"text/plain"},
	}, logger)

	h := Handlers{
		Users:       NewUserHandler(service.NewUserService(store.Users, validate, logger)),
		Teams:       NewTeamHandler(service.NewTeamService(store, validate, logger)),
		Equipment:   NewEquipmentHandler(service.NewEquipmentService(store, validate, events, nil, nil, logger)),
		Requests:    NewMaintenanceRequestHandler(service.NewMaintenanceRequestService(store, validate, events, nil, nil, "MR", logger)),
		Reports:     NewReportHandler(service.NewReportService(store, nil, logger)),
		Attachments: NewAttachmentHandler(attachments),
		Ops:         NewMetricsHandler(nil, store.Driver, store.Ping),
	}

	fx := &apiFixture{router: gin.New()}
	opts := RouteOptions{APIPrefix: "/api/v1"}
	if withAuth {
		fx.auth = service.NewAuthService(store.Users, service.AuthConfig{Secret: "test", Expiry: time.Hour}, logger)
		opts.Auth = fx.auth
	}
	RegisterRoutes(fx.router, h, opts)
	return fx
}

type envelope struct {
	Success bool                   `json:"success"`
	Data    json.RawMessage        `json:"data"`
	Message string                 `json:"message"`
	Code    string                 `json:"code"`
	Count   *int                   `json:"count"`
	Meta    map[string]interface{} `json:"meta"`
}

func (fx *apiFixture) do(t *testing.T, method, path string, body interface{}, token string) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
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
	fx.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

// create posts body and returns the new record's id.
func (fx *apiFixture) create(t *testing.T, path string, body interface{}, token string) string {
	t.Helper()
	status, env := fx.do(t, http.MethodPost, path, body, token)
	require.Equal(t, http.StatusCreated, status, env.Message)
	var rec struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	return rec.ID
}

func seedAsset(t *testing.T, fx *apiFixture, token string) (creatorID, teamID, equipmentID string) {
	t.Helper()
	creatorID = fx.create(t, "/api/v1/users", map[string]interface{}{
		"name": "Ana", "email": "Ana@Example.com", "role": "ADMIN",
	}, token)
	teamID = fx.create(t, "/api/v1/teams", map[string]interface{}{
		"name": "Mechanics Team", "specialization": "MECHANIC",
	}, token)
	equipmentID = fx.create(t, "/api/v1/equipment", map[string]interface{}{
		"name":              "Lathe",
		"serialNumber":      "LT-100",
		"category":          "Machinery",
		"department":        "Production",
		"maintenanceTeamId": teamID,
		"purchaseDate":      "2024-01-10T00:00:00Z",
		"location":          "Hall A",
	}, token)
	return creatorID, teamID, equipmentID
}

func TestHealthAndReady(t *testing.T) {
	fx := newAPI(t, false)

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"store":"memory"`)

	rec = httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUserRoutes(t *testing.T) {
	fx := newAPI(t, false)
	id := fx.create(t, "/api/v1/users", map[string]interface{}{"name": "Ana", "email": "ana@example.com", "role": "MECHANIC"}, "")

	status, env := fx.do(t, http.MethodPost, "/api/v1/users", map[string]interface{}{"name": "Dup", "email": "ANA@example.com", "role": "ADMIN"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "DUPLICATE_KEY", env.Code)
	assert.Equal(t, "email already exists", env.Message)

	status, env = fx.do(t, http.MethodGet, "/api/v1/users?role=MECHANIC", nil, "")
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)

	status, env = fx.do(t, http.MethodGet, "/api/v1/users?role=PILOT", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Message, "PILOT")

	status, env = fx.do(t, http.MethodGet, "/api/v1/users/"+id+"/permissions", nil, "")
	require.Equal(t, http.StatusOK, status)
	var perms struct {
		RoleDisplayName string          `json:"roleDisplayName"`
		Permissions     map[string]bool `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &perms))
	assert.Equal(t, "Mechanic", perms.RoleDisplayName)
	assert.True(t, perms.Permissions["canCreateRequest"])
	assert.False(t, perms.Permissions["canManageUsers"])

	status, _ = fx.do(t, http.MethodGet, "/api/v1/users/stats/roles", nil, "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = fx.do(t, http.MethodDelete, "/api/v1/users/"+id, nil, "")
	assert.Equal(t, http.StatusOK, status)
	status, env = fx.do(t, http.MethodGet, "/api/v1/users/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "user not found", env.Message)
}

func TestRequestLifecycleRoutes(t *testing.T) {
	fx := newAPI(t, false)
	creatorID, teamID, equipmentID := seedAsset(t, fx, "")

	status, env := fx.do(t, http.MethodPost, "/api/v1/requests", map[string]interface{}{
		"type": "Corrective", "subject": "Spindle noise", "equipmentId": "missing", "createdById": creatorID,
	}, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "equipment not found", env.Message)

	status, env = fx.do(t, http.MethodPost, "/api/v1/requests", map[string]interface{}{
		"type": "Corrective", "subject": "Spindle noise", "equipmentId": equipmentID, "createdById": creatorID,
	}, "")
	require.Equal(t, http.StatusCreated, status, env.Message)
	var created struct {
		ID                string `json:"id"`
		RequestNumber     string `json:"requestNumber"`
		EquipmentCategory string `json:"equipmentCategory"`
		MaintenanceTeamID string `json:"maintenanceTeamId"`
		Status            string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Machinery", created.EquipmentCategory)
	assert.Equal(t, teamID, created.MaintenanceTeamID)
	assert.Equal(t, "New", created.Status)
	assert.True(t, strings.HasPrefix(created.RequestNumber, "MR-"))

	status, env = fx.do(t, http.MethodPatch, "/api/v1/requests/"+created.ID+"/assign", map[string]interface{}{"assignedToId": creatorID}, "")
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Contains(t, string(env.Data), `"status":"In Progress"`)

	status, env = fx.do(t, http.MethodPatch, "/api/v1/requests/"+created.ID+"/status", map[string]interface{}{"status": "Repaired", "duration": 2.5}, "")
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Contains(t, string(env.Data), `"duration":2.5`)

	status, env = fx.do(t, http.MethodPatch, "/api/v1/requests/"+created.ID+"/status", map[string]interface{}{"status": "New"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_TRANSITION", env.Code)

	status, env = fx.do(t, http.MethodGet, "/api/v1/requests-kanban/all", nil, "")
	require.Equal(t, http.StatusOK, status)
	var board map[string][]json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &board))
	assert.Len(t, board, 4)
	assert.Len(t, board["Repaired"], 1)
	assert.Empty(t, board["New"])

	status, env = fx.do(t, http.MethodGet, "/api/v1/equipment/"+equipmentID+"/maintenance-count", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"count":0}`, string(env.Data))

	status, env = fx.do(t, http.MethodGet, "/api/v1/requests?status=Repaired&team="+teamID, nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, *env.Count)
}

func TestDateRangeRoute(t *testing.T) {
	fx := newAPI(t, false)
	creatorID, _, equipmentID := seedAsset(t, fx, "")
	fx.create(t, "/api/v1/requests", map[string]interface{}{
		"type": "Preventive", "subject": "Quarterly check", "equipmentId": equipmentID, "createdById": creatorID,
		"scheduledDate": "2030-06-15T08:00:00Z",
	}, "")

	status, env := fx.do(t, http.MethodGet, "/api/v1/requests/dates/range?startDate=2030-06-01&endDate=2030-06-15", nil, "")
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Equal(t, 1, *env.Count)

	status, env = fx.do(t, http.MethodGet, "/api/v1/requests/type/preventive", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, *env.Count)

	status, _ = fx.do(t, http.MethodGet, "/api/v1/requests/dates/range?startDate=June", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = fx.do(t, http.MethodGet, "/api/v1/requests/dates/range?startDate=2030-06-15", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestScrapAndReportRoutes(t *testing.T) {
	fx := newAPI(t, false)
	creatorID, _, equipmentID := seedAsset(t, fx, "")
	fx.create(t, "/api/v1/requests", map[string]interface{}{
		"type": "Corrective", "subject": "Leak", "equipmentId": equipmentID, "createdById": creatorID,
	}, "")

	status, env := fx.do(t, http.MethodGet, "/api/v1/reports/by-category", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"Machinery"`)

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/by-team?format=csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "requests-by-team-")
	assert.Contains(t, rec.Body.String(), "Mechanics Team")

	status, _ = fx.do(t, http.MethodGet, "/api/v1/reports/by-team?format=docx", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = fx.do(t, http.MethodPatch, "/api/v1/equipment/"+equipmentID+"/scrap", map[string]interface{}{"reason": "cracked frame"}, "")
	require.Equal(t, http.StatusOK, status, env.Message)
	var scrapped struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &scrapped))
	assert.Equal(t, equipmentID, scrapped.ID)
	assert.Equal(t, "Scrap", scrapped.Status)
	assert.Equal(t, float64(1), env.Meta["cascadedRequests"])

	status, env = fx.do(t, http.MethodPatch, "/api/v1/equipment/"+equipmentID+"/scrap", map[string]interface{}{"reason": "again"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "equipment is already scrapped", env.Message)

	status, env = fx.do(t, http.MethodDelete, "/api/v1/equipment/"+equipmentID, nil, "")
	assert.Equal(t, http.StatusBadRequest, status, env.Message)

	status, env = fx.do(t, http.MethodPost, "/api/v1/requests", map[string]interface{}{
		"type": "Corrective", "subject": "Again", "equipmentId": equipmentID, "createdById": creatorID,
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "equipment is scrapped", env.Message)
}

func TestTeamMembershipRoutes(t *testing.T) {
	fx := newAPI(t, false)
	userID := fx.create(t, "/api/v1/users", map[string]interface{}{"name": "Bo", "email": "bo@example.com", "role": "ELECTRICIAN"}, "")
	teamID := fx.create(t, "/api/v1/teams", map[string]interface{}{"name": "Electricians Team"}, "")

	status, env := fx.do(t, http.MethodPost, "/api/v1/teams/"+teamID+"/members", map[string]interface{}{"userId": userID}, "")
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Contains(t, string(env.Data), `"role":"Technician"`)

	status, env = fx.do(t, http.MethodDelete, "/api/v1/teams/"+teamID+"/members", map[string]interface{}{"userId": userID}, "")
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Contains(t, string(env.Data), `"members":[]`)

	status, _ = fx.do(t, http.MethodDelete, "/api/v1/teams/"+teamID, nil, "")
	require.Equal(t, http.StatusOK, status)
	_, env = fx.do(t, http.MethodGet, "/api/v1/teams", nil, "")
	assert.Equal(t, 0, *env.Count)
	_, env = fx.do(t, http.MethodGet, "/api/v1/teams?includeInactive=true", nil, "")
	assert.Equal(t, 1, *env.Count)
}

func TestAttachmentRoutes(t *testing.T) {
	fx := newAPI(t, false)
	creatorID, _, equipmentID := seedAsset(t, fx, "")
	requestID := fx.create(t, "/api/v1/requests", map[string]interface{}{
		"type": "Corrective", "subject": "Leak", "equipmentId": equipmentID, "createdById": creatorID,
	}, "")

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="file"; filename="notes.txt"`},
		"Content-Type":        {"text/plain"},
	})
	require.NoError(t, err)
	_, _ = part.Write([]byte("replaced seal"))
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/requests/"+requestID+"/attachments", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	status, env := fx.do(t, http.MethodGet, "/api/v1/requests/"+requestID+"/attachments/0/link", nil, "")
	require.Equal(t, http.StatusOK, status, env.Message)
	var link struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &link))

	rec = httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, link.URL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "replaced seal", rec.Body.String())

	status, _ = fx.do(t, http.MethodGet, "/api/v1/requests/"+requestID+"/attachments/x/link", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAuthEnabledRoutes(t *testing.T) {
	fx := newAPI(t, true)

	status, _ := fx.do(t, http.MethodGet, "/api/v1/equipment", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthEnforcesPermissions(t *testing.T) {
	// users are bootstrapped through the service since every write route is guarded
	store := repository.NewMemoryStore(memory.New())
	users := service.NewUserService(store.Users, validation.New(), zap.NewNop())
	admin, err := users.Create(context.Background(), service.CreateUserRequest{Name: "Root", Email: "root@example.com", Role: "ADMIN"})
	require.NoError(t, err)
	tech, err := users.Create(context.Background(), service.CreateUserRequest{Name: "Tech", Email: "tech@example.com", Role: "MECHANIC"})
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	auth := service.NewAuthService(store.Users, service.AuthConfig{Secret: "test", Expiry: time.Hour}, zap.NewNop())
	logger := zap.NewNop()
	router := gin.New()
	RegisterRoutes(router, Handlers{
		Users:     NewUserHandler(users),
		Teams:     NewTeamHandler(service.NewTeamService(store, nil, logger)),
		Equipment: NewEquipmentHandler(service.NewEquipmentService(store, nil, nil, nil, nil, logger)),
		Requests:  NewMaintenanceRequestHandler(service.NewMaintenanceRequestService(store, nil, nil, nil, nil, "MR", logger)),
		Reports:   NewReportHandler(service.NewReportService(store, nil, logger)),
		Ops:       NewMetricsHandler(nil, store.Driver, store.Ping),
	}, RouteOptions{APIPrefix: "/api/v1", Auth: auth})
	fx := &apiFixture{router: router, auth: auth}

	adminToken, err := auth.IssueToken(context.Background(), admin.ID)
	require.NoError(t, err)
	techToken, err := auth.IssueToken(context.Background(), tech.ID)
	require.NoError(t, err)

	status, env := fx.do(t, http.MethodPost, "/api/v1/teams", map[string]interface{}{"name": "Mechanics Team"}, techToken.Token)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "missing permission canManageTeams", env.Message)

	teamID := fx.create(t, "/api/v1/teams", map[string]interface{}{"name": "Mechanics Team"}, adminToken.Token)
	assert.NotEmpty(t, teamID)

	status, _ = fx.do(t, http.MethodGet, "/api/v1/reports/by-team", nil, techToken.Token)
	assert.Equal(t, http.StatusOK, status)

	status, _ = fx.do(t, http.MethodGet, "/api/v1/teams", nil, "forged")
	assert.Equal(t, http.StatusUnauthorized, status)
}
