package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestGenerateValidateRoundTrip(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour, "gatherly-test")

	token, err := manager.Generate("01HQZX3Y4K6F7G8H9J0K1M2N3P")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "01HQZX3Y4K6F7G8H9J0K1M2N3P", claims.UserID)
	require.Equal(t, "gatherly-test", claims.Issuer)
}

func TestGenerateRejectsEmptyUserID(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour, "gatherly-test")

	_, err := manager.Generate("")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsEmptyToken(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour, "gatherly-test")

	_, err := manager.Validate("")
	require.ErrorIs(t, err, ErrMissingToken)

	_, err = manager.Validate("   ")
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour, "gatherly-test")
	other := NewJWTManager("other-secret", time.Hour, "gatherly-test")

	token, err := other.Generate("01HQZX3Y4K6F7G8H9J0K1M2N3P")
	require.NoError(t, err)

	_, err = manager.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	manager := NewJWTManager("test-secret", -time.Minute, "gatherly-test")

	token, err := manager.Generate("01HQZX3Y4K6F7G8H9J0K1M2N3P")
	require.NoError(t, err)

	_, err = manager.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsMissingUserIDClaim(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour, "gatherly-test")

	// Signed with the right key but without the userId claim.
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "someone",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	token, err := raw.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = manager.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsUnexpectedSigningMethod(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour, "gatherly-test")

	raw := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u1"})
	token, err := raw.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = manager.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenFromHeader(t *testing.T) {
	token, err := TokenFromHeader("Bearer abc.def.ghi")
	require.NoError(t, err)
	require.Equal(t, "abc.def.ghi", token)

	token, err = TokenFromHeader("bearer abc.def.ghi")
	require.NoError(t, err)
	require.Equal(t, "abc.def.ghi", token)

	_, err = TokenFromHeader("")
	require.ErrorIs(t, err, ErrMissingToken)

	_, err = TokenFromHeader("abc.def.ghi")
	require.ErrorIs(t, err, ErrMissingToken)

	_, err = TokenFromHeader("Basic dXNlcjpwYXNz")
	require.ErrorIs(t, err, ErrMissingToken)
}
