package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/time/rate"

	"github.com/javajoker/beycollection/internal/config"
	"github.com/javajoker/beycollection/internal/models"
	"github.com/javajoker/beycollection/internal/utils"
)

type AuthMiddlewareTestSuite struct {
	suite.Suite
	router *gin.Engine
	userID uuid.UUID
}

func (suite *AuthMiddlewareTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("middleware-test-secret")
	suite.userID = uuid.New()

	suite.router = gin.New()
	suite.router.Use(I18nMiddleware())

	whoami := func(c *gin.Context) {
		id, ok := utils.GetUserIDFromContext(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, id.String())
	}

	suite.router.GET("/private", AuthRequired(), whoami)
	suite.router.GET("/optional", OptionalAuth(), whoami)
	suite.router.GET("/admin", AuthRequired(), AdminRequired(), whoami)
	suite.router.GET("/ws", QueryTokenAuth(), AuthRequired(), whoami)
}

func (suite *AuthMiddlewareTestSuite) token(role string) string {
	token, err := utils.GenerateJWT(suite.userID, "blader@example.com", role, time.Hour)
	suite.Require().NoError(err)
	return token
}

func (suite *AuthMiddlewareTestSuite) get(path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *AuthMiddlewareTestSuite) TestMissingToken() {
	w := suite.get("/private", "")
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Contains(w.Body.String(), `"success":false`)
}

func (suite *AuthMiddlewareTestSuite) TestMalformedHeader() {
	w := suite.get("/private", "Token abc")
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *AuthMiddlewareTestSuite) TestInvalidToken() {
	w := suite.get("/private", "Bearer not-a-jwt")
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *AuthMiddlewareTestSuite) TestValidToken() {
	w := suite.get("/private", "Bearer "+suite.token(""))
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(suite.userID.String(), w.Body.String())
}

func (suite *AuthMiddlewareTestSuite) TestOptionalAuth() {
	suite.Equal("anonymous", suite.get("/optional", "").Body.String())
	suite.Equal("anonymous", suite.get("/optional", "Bearer broken").Body.String())
	suite.Equal(suite.userID.String(), suite.get("/optional", "Bearer "+suite.token("")).Body.String())
}

func (suite *AuthMiddlewareTestSuite) TestAdminRequired() {
	suite.Equal(http.StatusForbidden, suite.get("/admin", "Bearer "+suite.token("")).Code)
	suite.Equal(http.StatusOK, suite.get("/admin", "Bearer "+suite.token(utils.RoleAdmin)).Code)
}

func (suite *AuthMiddlewareTestSuite) TestQueryToken() {
	w := suite.get("/ws?access_token="+suite.token(""), "")
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(suite.userID.String(), w.Body.String())
}

func TestAuthMiddlewareTestSuite(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareTestSuite))
}

func TestParseLanguage(t *testing.T) {
	assert.Equal(t, "pt_BR", ParseLanguage("pt-BR,pt;q=0.9,en;q=0.8"))
	assert.Equal(t, "pt_BR", ParseLanguage("pt"))
	assert.Equal(t, "en", ParseLanguage("en-US"))
	assert.Equal(t, "en", ParseLanguage("zh-TW"))
	assert.Equal(t, "en", ParseLanguage(""))
}

func TestRateLimiterRejectsAfterBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(rate.Every(time.Hour), 2, time.Minute, time.Minute)
	defer limiter.Stop()

	r := gin.New()
	r.GET("/", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestNewRateLimiters(t *testing.T) {
	limiters := NewRateLimiters(config.RateLimitConfig{GeneralPerSec: 10, GeneralBurst: 20, IdentifyPerMin: 6, IdentifyBurst: 2})
	defer limiters.Stop()

	assert.Equal(t, rate.Limit(10), limiters.General.rate)
	assert.InDelta(t, 0.1, float64(limiters.Identify.rate), 1e-9)
	assert.Equal(t, rate.Inf, limiters.Upload.rate)
}

type fakeAuditWriter struct {
	entries chan *models.AuditLog
}

func (f *fakeAuditWriter) Create(ctx context.Context, entry *models.AuditLog) error {
	f.entries <- entry
	return nil
}

func TestAuditLogMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeAuditWriter{entries: make(chan *models.AuditLog, 1)}
	itemID := uuid.New()
	userID := uuid.New()

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", userID.String()); c.Next() })
	r.Use(AuditLogMiddleware(store))
	r.PUT("/v1/collection/:id/spin-direction", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/v1/collection", func(c *gin.Context) { c.Status(http.StatusOK) })

	body := `{"spin_direction":"L","photo":"` + strings.Repeat("A", 2048) + `"}`
	req := httptest.NewRequest(http.MethodPut, "/v1/collection/"+itemID.String()+"/spin-direction", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(httptest.NewRecorder(), req)

	select {
	case entry := <-store.entries:
		require.NotNil(t, entry.UserID)
		assert.Equal(t, userID, *entry.UserID)
		require.NotNil(t, entry.ResourceID)
		assert.Equal(t, itemID, *entry.ResourceID)
		assert.Equal(t, "collection", entry.ResourceType)
		assert.Equal(t, "PUT /v1/collection/:id/spin-direction", entry.Action)
		assert.Equal(t, http.StatusOK, entry.Status)
		assert.Equal(t, "L", entry.NewValues["spin_direction"])
		assert.Equal(t, "[omitted 2048 bytes]", entry.NewValues["photo"])
	case <-time.After(time.Second):
		t.Fatal("audit log not written")
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/collection", nil))
	select {
	case <-store.entries:
		t.Fatal("reads must not be audited")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestExtractResourceType(t *testing.T) {
	assert.Equal(t, "catalog", extractResourceType("/v1/admin/catalog/series"))
	assert.Equal(t, "identify", extractResourceType("/v1/identify/image"))
	assert.Equal(t, "health", extractResourceType("/health"))
	assert.Equal(t, "unknown", extractResourceType("/"))
}
