package services

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-signing-32-chars"

// createTestTokenService creates a token service for testing with symmetric key
func createTestTokenService(t *testing.T, ttl time.Duration) TokenService {
	t.Helper()
	service, err := NewTokenService(ttl, "test-issuer", "test-audience", false, "", "", testSecret)
	require.NoError(t, err)
	return service
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name        string
		useRSAKeys  bool
		privateKey  string
		publicKey   string
		secretKey   string
		expectError bool
	}{
		{
			name:      "valid symmetric key configuration",
			secretKey: testSecret,
		},
		{
			name:        "missing secret key",
			expectError: true,
		},
		{
			name:        "rsa without keys",
			useRSAKeys:  true,
			expectError: true,
		},
		{
			name:        "rsa with garbage keys",
			useRSAKeys:  true,
			privateKey:  "not a pem",
			publicKey:   "not a pem",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, err := NewTokenService(time.Hour, "iss", "aud", tt.useRSAKeys, tt.privateKey, tt.publicKey, tt.secretKey)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, service)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, service)
		})
	}
}

func TestAdminTokenRoundTrip(t *testing.T) {
	service := createTestTokenService(t, 15*time.Minute)

	token, err := service.GenerateAdminToken(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.ValidateAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.AdminID)
	assert.Equal(t, "access", claims.TokenType)
	assert.Len(t, claims.TokenID, 32)
	assert.WithinDuration(t, claims.IssuedAt.Add(15*time.Minute), claims.ExpiresAt, time.Second)
}

func TestValidateAdminToken_Rejections(t *testing.T) {
	service := createTestTokenService(t, time.Hour)

	t.Run("Garbage", func(t *testing.T) {
		_, err := service.ValidateAdminToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other, err := NewTokenService(time.Hour, "test-issuer", "test-audience", false, "", "", "another-secret-key-for-jwt-signing-32")
		require.NoError(t, err)
		token, err := other.GenerateAdminToken(1)
		require.NoError(t, err)

		_, err = service.ValidateAdminToken(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("WrongAudience", func(t *testing.T) {
		other, err := NewTokenService(time.Hour, "test-issuer", "someone-else", false, "", "", testSecret)
		require.NoError(t, err)
		token, err := other.GenerateAdminToken(1)
		require.NoError(t, err)

		_, err = service.ValidateAdminToken(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("Expired", func(t *testing.T) {
		expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"admin_id":   1,
			"token_type": "access",
			"jti":        "abc",
			"iat":        time.Now().Add(-2 * time.Hour).Unix(),
			"exp":        time.Now().Add(-time.Hour).Unix(),
			"iss":        "test-issuer",
			"aud":        "test-audience",
		})
		token, err := expired.SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = service.ValidateAdminToken(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("MissingAdminClaim", func(t *testing.T) {
		customer := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"customer_id": 1,
			"token_type":  "access",
			"jti":         "abc",
			"iat":         time.Now().Unix(),
			"exp":         time.Now().Add(time.Hour).Unix(),
			"iss":         "test-issuer",
			"aud":         "test-audience",
		})
		token, err := customer.SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = service.ValidateAdminToken(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestAdminToken_RSA(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privatePEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER})

	service, err := NewTokenService(time.Hour, "iss", "aud", true, string(privatePEM), string(publicPEM), "")
	require.NoError(t, err)

	token, err := service.GenerateAdminToken(7)
	require.NoError(t, err)

	claims, err := service.ValidateAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.AdminID)

	// An HMAC token must not pass an RSA validator
	hmac := createTestTokenService(t, time.Hour)
	hmacToken, err := hmac.GenerateAdminToken(7)
	require.NoError(t, err)
	_, err = service.ValidateAdminToken(hmacToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
