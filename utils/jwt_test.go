package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagetrail/api/models"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	token, err := m.Generate(&models.User{ID: 7, Email: "ops@pagetrail.dev"})
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "ops@pagetrail.dev", claims.Email)
	assert.Equal(t, "7", claims.Subject)
}

func TestJWTManager_RejectsOtherSecret(t *testing.T) {
	token, err := NewJWTManager("one", time.Hour).Generate(&models.User{ID: 1})
	require.NoError(t, err)

	_, err = NewJWTManager("two", time.Hour).Validate(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsExpired(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := m.Generate(&models.User{ID: 1})
	require.NoError(t, err)

	_, err = NewJWTManager("secret", time.Minute).Validate(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsGarbage(t *testing.T) {
	_, err := NewJWTManager("secret", time.Minute).Validate("not-a-token")
	assert.Error(t, err)
}
