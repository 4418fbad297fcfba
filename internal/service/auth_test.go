package service

import (
	"context"
	"testing"
	"time"

	"github.com/atlas-learn/atlasai/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_IssueAndValidate(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, err := svc.Issue("user-42", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestJWTService_Issue_EmptyUser(t *testing.T) {
	svc := NewJWTService("test-secret")

	_, err := svc.Issue("", time.Hour)
	assert.Error(t, err)
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a").Issue("user-1", time.Hour)
	require.NoError(t, err)

	_, err = NewJWTService("secret-b").ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestJWTService_RejectsExpired(t *testing.T) {
	svc := NewJWTService("test-secret")
	svc.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }

	token, err := svc.Issue("user-1", time.Hour)
	require.NoError(t, err)

	validator := NewJWTService("test-secret")
	_, err = validator.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestJWTService_RejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-secret")

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	}
}
