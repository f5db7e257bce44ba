package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/facultycredits/internal/app/models"
	"github.com/yigit/facultycredits/internal/app/models/dto"
	"github.com/yigit/facultycredits/internal/pkg/apperrors"
	"github.com/yigit/facultycredits/internal/pkg/auth"
	"github.com/yigit/facultycredits/internal/pkg/validation"
)

const testSecret = "middleware-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func tokenFor(t *testing.T, actor models.Actor, ttl time.Duration) string {
	t.Helper()
	svc := auth.NewJWTService(auth.JWTConfig{SecretKey: testSecret, AccessTokenExp: ttl, TokenIssuer: "test"})
	token, _, err := svc.GenerateAccessToken(actor)
	require.NoError(t, err)
	return token
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorDetail {
	t.Helper()
	var body struct {
		Error *dto.ErrorDetail `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error
}

func protectedRouter() *gin.Engine {
	m := NewAuthMiddleware(auth.NewJWTService(auth.JWTConfig{SecretKey: testSecret, AccessTokenExp: time.Hour, TokenIssuer: "test"}))
	r := gin.New()
	r.Use(RequestID(), RequestLogger(zerolog.Nop()))
	g := r.Group("", m.JWTAuth())
	g.GET("/me", func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, actor)
	})
	g.GET("/admin", m.RoleRequired(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestJWTAuth(t *testing.T) {
	r := protectedRouter()
	faculty := models.Actor{ID: 7, Role: models.RoleFaculty}

	tests := []struct {
		name   string
		header string
		query  string
		status int
		code   dto.ErrorCode
	}{
		{"missing", "", "", http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
		{"garbage", "Basic abc", "", http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
		{"bad signature", "Bearer " + tokenFor(t, faculty, time.Hour) + "x", "", http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
		{"expired", "Bearer " + tokenFor(t, faculty, -time.Minute), "", http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
		{"valid header", "Bearer " + tokenFor(t, faculty, time.Hour), "", http.StatusOK, ""},
		{"valid query token", "", tokenFor(t, faculty, time.Hour), http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/me"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeError(t, w).Code)
				return
			}
			var actor models.Actor
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &actor))
			assert.Equal(t, faculty, actor)
		})
	}
}

func TestRoleRequired(t *testing.T) {
	r := protectedRouter()
	for actor, status := range map[models.Actor]int{
		{ID: 1, Role: models.RoleAdmin}:   http.StatusNoContent,
		{ID: 7, Role: models.RoleFaculty}: http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, actor, time.Hour))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, status, w.Code, actor.Role)
	}
}

func TestHandleAPIErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		code    dto.ErrorCode
		message string
	}{
		{apperrors.NewValidationError("points must not be zero"), http.StatusBadRequest, dto.ErrorCodeValidationFailed, "points must not be zero"},
		{apperrors.NewResourceNotFoundError("credit entry 9 not found"), http.StatusNotFound, dto.ErrorCodeResourceNotFound, "credit entry 9 not found"},
		{apperrors.NewForbiddenError("nope"), http.StatusForbidden, dto.ErrorCodeForbidden, "nope"},
		{apperrors.NewInvalidStateError("already decided"), http.StatusUnprocessableEntity, dto.ErrorCodeInvalidState, "already decided"},
		{apperrors.NewConflictError(""), http.StatusConflict, dto.ErrorCodeConflict, apperrors.ConflictMessage},
		{fmt.Errorf("wrapped: %w", apperrors.NewConflictError("Appeal already pending")), http.StatusConflict, dto.ErrorCodeConflict, "Appeal already pending"},
		{fmt.Errorf("db exploded"), http.StatusInternalServerError, dto.ErrorCodeInternalServer, "Internal server error"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/x", nil)

		HandleAPIError(c, tt.err)

		assert.Equal(t, tt.status, w.Code, tt.err.Error())
		detail := decodeError(t, w)
		assert.Equal(t, tt.code, detail.Code)
		assert.Equal(t, tt.message, detail.Message)
		assert.True(t, c.IsAborted())
	}
}

func TestBindJSON(t *testing.T) {
	require.NoError(t, validation.RegisterRules())

	type appealBody struct {
		Reason string `json:"reason" binding:"required,min_nonspace=10"`
		Year   string `json:"academicYear" binding:"omitempty,academic_year"`
	}
	bind := func(body string) (*httptest.ResponseRecorder, bool, appealBody) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		var dst appealBody
		ok := BindJSON(c, &dst)
		return w, ok, dst
	}

	_, ok, got := bind(`{"reason":"grades were on time","academicYear":"2024-2025"}`)
	require.True(t, ok)
	assert.Equal(t, "2024-2025", got.Year)

	w, ok, _ := bind(`{"reason":"short","academicYear":"2024-2030"}`)
	require.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	detail := decodeError(t, w)
	assert.Equal(t, dto.ErrorCodeValidationFailed, detail.Code)
	assert.Len(t, detail.Details, 2)

	w, ok, _ = bind(`{"reason":`)
	require.False(t, ok)
	assert.Equal(t, "Invalid request format", decodeError(t, w).Message)
}
