package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_GenerateToken_Success(t *testing.T) {
	// Arrange
	jwtManager := NewJWTManager("test-secret-key", 15*time.Minute)

	// Act
	token, err := jwtManager.GenerateToken("admin", RoleOperator)

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := jwtManager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, RoleOperator, claims.Role)
	assert.Equal(t, "admin", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTManager_ValidateToken_WrongSecret(t *testing.T) {
	// Arrange
	issuer := NewJWTManager("secret-one", time.Hour)
	verifier := NewJWTManager("secret-two", time.Hour)
	token, err := issuer.GenerateToken("admin", RoleOperator)
	require.NoError(t, err)

	// Act
	claims, err := verifier.ValidateToken(token)

	// Assert
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestJWTManager_ValidateToken_Expired(t *testing.T) {
	// Arrange
	jwtManager := NewJWTManager("test-secret-key", -time.Minute)
	token, err := jwtManager.GenerateToken("admin", RoleOperator)
	require.NoError(t, err)

	// Act
	claims, err := jwtManager.ValidateToken(token)

	// Assert
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestJWTManager_ValidateToken_Garbage(t *testing.T) {
	jwtManager := NewJWTManager("test-secret-key", time.Hour)

	_, err := jwtManager.ValidateToken("not.a.token")

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_ValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	// Arrange
	jwtManager := NewJWTManager("test-secret-key", time.Hour)
	claims := OperatorClaims{
		Username: "admin",
		Role:     RoleOperator,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	// Act
	_, err = jwtManager.ValidateToken(token)

	// Assert
	assert.ErrorIs(t, err, ErrInvalidToken)
}
