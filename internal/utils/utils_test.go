package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/beycollection/internal/apperrors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")
	userID := uuid.New()

	token, err := GenerateJWT(userID, "blader@example.com", RoleAdmin, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	got, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, got)
	assert.Equal(t, "blader@example.com", claims.Email)
	assert.True(t, claims.IsAdmin())
}

func TestJWTRejectsExpiredAndForeignTokens(t *testing.T) {
	SetJWTSecret("test-secret")

	expired, err := GenerateJWT(uuid.New(), "", "", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateJWT(expired)
	assert.Error(t, err)

	SetJWTSecret("other-secret")
	foreign, err := GenerateJWT(uuid.New(), "", "", time.Hour)
	require.NoError(t, err)
	SetJWTSecret("test-secret")
	_, err = ValidateJWT(foreign)
	assert.Error(t, err)

	noSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "anon"})
	signed, err := noSubject.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = ValidateJWT(signed)
	assert.Error(t, err)
}

func TestDecodeDataURL(t *testing.T) {
	data, contentType, err := DecodeDataURL("data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
	assert.Equal(t, "image/png", contentType)

	data, contentType, err = DecodeDataURL("aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
	assert.Equal(t, "image/jpeg", contentType)

	for _, bad := range []string{"", "data:image/png,hello", "data:image/png;base64,***"} {
		_, _, err := DecodeDataURL(bad)
		assert.ErrorIs(t, err, ErrInvalidDataURL, bad)
	}
}

func TestContentKeyIsStable(t *testing.T) {
	a := ContentKey("photos/user-1/", []byte("same bytes"), "image/png")
	b := ContentKey("photos/user-1", []byte("same bytes"), "image/png")
	c := ContentKey("photos/user-1", []byte("other bytes"), "image/png")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "photos/user-1/"))
	assert.True(t, strings.HasSuffix(a, ".png"))
	assert.Equal(t, ".jpg", ExtensionFor("not a type"))
}

func TestPaginateSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{3, 4}, PaginateSlice(items, PaginationParams{Page: 2, Limit: 2}))
	assert.Equal(t, []int{5}, PaginateSlice(items, PaginationParams{Page: 3, Limit: 2}))
	assert.Empty(t, PaginateSlice(items, PaginationParams{Page: 4, Limit: 2}))

	result := CreatePaginationResult(items, 5, PaginationParams{Page: 1, Limit: 2})
	assert.Equal(t, 3, result.TotalPages)
}

func TestCustomValidations(t *testing.T) {
	type request struct {
		Spin      string `validate:"spin_direction"`
		Type      string `validate:"beyblade_type"`
		Condition string `validate:"condition"`
		Slug      string `validate:"required,wiki_slug"`
	}

	assert.NoError(t, ValidateStruct(request{Spin: "R/L", Type: "Resistência", Condition: "good", Slug: "Dran_Sword_3-60F"}))
	assert.NoError(t, ValidateStruct(request{Slug: "Dran_Sword"}))

	err := ValidateStruct(request{Spin: "X", Type: "Speed", Condition: "mint", Slug: "Dran Sword"})
	require.Error(t, err)
	tags := make(map[string]string)
	for _, e := range GetValidationErrors(err) {
		tags[e.Field] = e.Tag
	}
	assert.Equal(t, map[string]string{
		"spin":      "spin_direction",
		"type":      "beyblade_type",
		"condition": "condition",
		"slug":      "wiki_slug",
	}, tags)
}

func TestAppErrorResponseStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperrors.Validation("validation.slug_required", "No slug provided"), http.StatusBadRequest},
		{apperrors.NotFound("beyblade.not_found", "Beyblade page not found", nil), http.StatusNotFound},
		{apperrors.Timeout("search.timeout", "Search timed out - try again", nil), http.StatusGatewayTimeout},
		{apperrors.New(apperrors.TypeServerSlow, "identify.server_slow", "Server slow", nil), http.StatusServiceUnavailable},
		{apperrors.New(apperrors.TypeRateLimited, "ai.rate_limited", "Rate limit", nil), http.StatusTooManyRequests},
		{errors.New("pq: connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/v1/search", nil)

		AppErrorResponse(c, tc.err)

		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		var body APIResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.False(t, body.Success)
		require.NotNil(t, body.Error)
		assert.NotContains(t, body.Error.Message, "connection refused")
	}
}

func TestGetUserIDFromContext(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetUserIDFromContext(c)
	assert.False(t, ok)

	id := uuid.New()
	c.Set("user_id", id.String())
	got, ok := GetUserIDFromContext(c)
	assert.True(t, ok)
	assert.Equal(t, id, got)
}
