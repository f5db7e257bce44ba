package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/facultycredits/internal/app/models"
	"github.com/yigit/facultycredits/internal/pkg/apperrors"
)

func newTestService() *JWTService {
	return NewJWTService(JWTConfig{SecretKey: "test-secret", AccessTokenExp: time.Hour, TokenIssuer: "facultycredits"})
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newTestService()
	token, expiresAt, err := svc.GenerateAccessToken(models.Actor{ID: 7, Role: models.RoleFaculty})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := svc.ValidateAndExtractClaims(token)
	require.NoError(t, err)
	assert.Equal(t, models.Actor{ID: 7, Role: models.RoleFaculty}, claims.Actor())
	assert.Equal(t, "7", claims.Subject)
}

func TestValidateExpiredToken(t *testing.T) {
	svc := newTestService()
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := svc.GenerateAccessToken(models.Actor{ID: 7, Role: models.RoleFaculty})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateAndExtractClaims(token)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestValidateRejectsForeignTokens(t *testing.T) {
	svc := newTestService()

	other := NewJWTService(JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour, TokenIssuer: "facultycredits"})
	token, _, err := other.GenerateAccessToken(models.Actor{ID: 7, Role: models.RoleAdmin})
	require.NoError(t, err)
	_, err = svc.ValidateAndExtractClaims(token)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)

	token, _, err = svc.GenerateAccessToken(models.Actor{ID: 7, Role: "STUDENT"})
	require.NoError(t, err)
	_, err = svc.ValidateAndExtractClaims(token)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: 7, RoleType: "ADMIN"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateAndExtractClaims(unsigned)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		err    bool
	}{
		{header: "Bearer a.b.c", want: "a.b.c"},
		{header: "a.b.c", want: "a.b.c"},
		{header: `"Bearer a.b.c"`, want: "a.b.c"},
		{header: "", err: true},
		{header: "Basic dXNlcg==", err: true},
	}
	for _, tt := range tests {
		got, err := ExtractBearerToken(tt.header)
		if tt.err {
			assert.ErrorIs(t, err, apperrors.ErrInvalidFormat, tt.header)
			continue
		}
		require.NoError(t, err, tt.header)
		assert.Equal(t, tt.want, got)
	}
}
