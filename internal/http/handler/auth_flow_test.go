package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smallbiznis/orghub/internal/config"
	"github.com/smallbiznis/orghub/internal/domain"
	httptransport "github.com/smallbiznis/orghub/internal/http"
	"github.com/smallbiznis/orghub/internal/http/handler"
	httpmiddleware "github.com/smallbiznis/orghub/internal/http/middleware"
	"github.com/smallbiznis/orghub/internal/jwt"
	"github.com/smallbiznis/orghub/internal/service"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	orgRepo := newMemoryOrgRepo()
	userRepo := newMemoryUserRepo(orgRepo)
	generator := jwt.NewGenerator(jwt.NewKeyManager(&memoryKeyRepo{}, node), "orghub-test", time.Hour)
	logger := zap.NewNop()

	auth := service.NewAuthService(userRepo, node, generator, logger)
	orgs := service.NewOrgService(orgRepo, userRepo, node, logger)

	cfg := config.Config{
		ServiceName:        "orghub-test",
		AccessTokenTTL:     time.Hour,
		CORSAllowedOrigins: []string{"*"},
		CORSAllowedMethods: []string{"GET", "POST", "OPTIONS"},
		CORSAllowedHeaders: []string{"Authorization", "Content-Type"},
	}

	return httptransport.NewRouter(
		cfg,
		handler.NewAuthHandler(auth),
		handler.NewOrgHandler(orgs),
		handler.NewHealthHandler(nil),
		&httpmiddleware.Auth{AuthService: auth},
	)
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
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
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

var janeRegistration = map[string]any{
	"firstName": "Jane",
	"lastName":  "Doe",
	"email":     "jane@example.com",
	"password":  "password123",
	"phone":     "0987654321",
}

func TestRegisterLoginAndListOrganisations(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", janeRegistration)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "success", body["status"])
	data := body["data"].(map[string]any)
	require.NotEmpty(t, data["accessToken"])
	user := data["user"].(map[string]any)
	require.Equal(t, "jane@example.com", user["email"])
	require.NotContains(t, user, "password")

	rec = doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "jane@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	loginData := decodeBody(t, rec)["data"].(map[string]any)
	token := loginData["access_token"].(string)
	require.NotEmpty(t, token)

	rec = doJSON(t, router, http.MethodGet, "/api/organisations", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	orgData := decodeBody(t, rec)["data"].(map[string]any)
	orgs := orgData["organisations"].([]any)
	require.Len(t, orgs, 1)
	require.Equal(t, "Jane's Organization", orgs[0].(map[string]any)["name"])
}

func TestRegisterValidationErrors(t *testing.T) {
	router := newTestRouter(t)

	incomplete := map[string]any{
		"firstName": "Jane",
		"lastName":  "Doe",
		"email":     "jane@example.com",
		"password":  "password123",
	}
	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", incomplete)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs := decodeBody(t, rec)["errors"].([]any)
	require.Equal(t, "phone", errs[0].(map[string]any)["field"])

	wrongType := map[string]any{
		"firstName": 42,
		"lastName":  "Doe",
		"email":     "jane2@example.com",
		"password":  "password123",
		"phone":     "0987654321",
	}
	rec = doJSON(t, router, http.MethodPost, "/auth/register", "", wrongType)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRegisterDuplicateEmailEnvelope(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", janeRegistration)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/auth/register", "", janeRegistration)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "Bad request", body["status"])
	require.Equal(t, "Registration unsuccessful", body["message"])
	require.Equal(t, float64(400), body["statusCode"])
}

func TestLoginFailureIsUniform(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", janeRegistration)
	require.Equal(t, http.StatusCreated, rec.Code)

	wrongPw := doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]any{
		"email": "jane@example.com", "password": "nope",
	})
	unknown := doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]any{
		"email": "ghost@example.com", "password": "password123",
	})

	require.Equal(t, http.StatusUnauthorized, wrongPw.Code)
	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.JSONEq(t, wrongPw.Body.String(), unknown.Body.String())
}

func TestProtectedRoutesRequireBearerToken(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/organisations", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/organisations", nil)
	req.Header.Set("Authorization", "Token abc")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestUserDetail(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", janeRegistration)
	require.Equal(t, http.StatusCreated, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	token := data["accessToken"].(string)
	userID := data["user"].(map[string]any)["userId"].(string)

	rec = doJSON(t, router, http.MethodGet, "/api/users/"+userID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decodeBody(t, rec)["data"].(map[string]any)
	require.Equal(t, userID, detail["userId"])

	rec = doJSON(t, router, http.MethodGet, "/api/users/nonexistent", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrganisationLifecycle(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", janeRegistration)
	require.Equal(t, http.StatusCreated, rec.Code)
	token := decodeBody(t, rec)["data"].(map[string]any)["accessToken"].(string)

	rec = doJSON(t, router, http.MethodPost, "/api/organisations", token, map[string]any{
		"name":        "Acme",
		"description": "Shared workspace",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	org := decodeBody(t, rec)["data"].(map[string]any)
	orgID := org["orgId"].(string)
	require.Equal(t, "Acme", org["name"])

	// Duplicate name.
	rec = doJSON(t, router, http.MethodPost, "/api/organisations", token, map[string]any{"name": "Acme"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Client error", decodeBody(t, rec)["message"])

	// Detail visible without membership.
	rec = doJSON(t, router, http.MethodGet, "/api/organisations/"+orgID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Creator is not a member until explicitly added.
	rec = doJSON(t, router, http.MethodGet, "/api/organisations", token, nil)
	orgs := decodeBody(t, rec)["data"].(map[string]any)["organisations"].([]any)
	require.Len(t, orgs, 1)

	rec = doJSON(t, router, http.MethodPost, "/api/organisations/"+orgID+"/users", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "User added to organisation successfully", decodeBody(t, rec)["message"])

	// Second add is a no-op success.
	rec = doJSON(t, router, http.MethodPost, "/api/organisations/"+orgID+"/users", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/organisations", token, nil)
	orgs = decodeBody(t, rec)["data"].(map[string]any)["organisations"].([]any)
	require.Len(t, orgs, 2)

	// Unknown organisation.
	rec = doJSON(t, router, http.MethodPost, "/api/organisations/ghost/users", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

// In-memory repository fakes.

type memoryUserRepo struct {
	users []domain.User
	orgs  *memoryOrgRepo
}

func newMemoryUserRepo(orgs *memoryOrgRepo) *memoryUserRepo {
	return &memoryUserRepo{orgs: orgs}
}

func (m *memoryUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (m *memoryUserRepo) GetByPublicID(ctx context.Context, userID string) (domain.User, error) {
	for _, user := range m.users {
		if user.UserID == userID {
			return user, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (m *memoryUserRepo) CreateWithDefaultOrg(ctx context.Context, user domain.User, org domain.Organisation) (domain.User, domain.Organisation, error) {
	m.users = append(m.users, user)
	created, err := m.orgs.Create(ctx, org)
	if err != nil {
		return domain.User{}, domain.Organisation{}, err
	}
	if err := m.orgs.AddMember(ctx, user.ID, created.ID); err != nil {
		return domain.User{}, domain.Organisation{}, err
	}
	return user, created, nil
}

type memoryOrgRepo struct {
	orgs    []domain.Organisation
	members []domain.Membership
}

func newMemoryOrgRepo() *memoryOrgRepo {
	return &memoryOrgRepo{}
}

func (m *memoryOrgRepo) GetByPublicID(ctx context.Context, orgID string) (domain.Organisation, error) {
	for _, org := range m.orgs {
		if org.OrgID == orgID {
			return org, nil
		}
	}
	return domain.Organisation{}, pgx.ErrNoRows
}

func (m *memoryOrgRepo) GetByName(ctx context.Context, name string) (domain.Organisation, error) {
	for _, org := range m.orgs {
		if org.Name == name {
			return org, nil
		}
	}
	return domain.Organisation{}, pgx.ErrNoRows
}

func (m *memoryOrgRepo) Create(ctx context.Context, org domain.Organisation) (domain.Organisation, error) {
	m.orgs = append(m.orgs, org)
	return org, nil
}

func (m *memoryOrgRepo) ListForUser(ctx context.Context, userID int64) ([]domain.Organisation, error) {
	var result []domain.Organisation
	for _, member := range m.members {
		if member.UserID != userID {
			continue
		}
		for _, org := range m.orgs {
			if org.ID == member.OrgID {
				result = append(result, org)
			}
		}
	}
	return result, nil
}

func (m *memoryOrgRepo) AddMember(ctx context.Context, userID, orgID int64) error {
	for _, member := range m.members {
		if member.UserID == userID && member.OrgID == orgID {
			return nil
		}
	}
	m.members = append(m.members, domain.Membership{UserID: userID, OrgID: orgID})
	return nil
}

type memoryKeyRepo struct {
	key domain.SigningKey
}

func (m *memoryKeyRepo) GetActiveKey(ctx context.Context) (domain.SigningKey, error) {
	if m.key.ID == 0 {
		return domain.SigningKey{}, pgx.ErrNoRows
	}
	return m.key, nil
}

func (m *memoryKeyRepo) CreateKey(ctx context.Context, key domain.SigningKey) (domain.SigningKey, error) {
	m.key = key
	return key, nil
}
