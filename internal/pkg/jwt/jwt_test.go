package jwt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccessToken_RoundTripsScope(t *testing.T) {
	svc, err := NewJWTService("test-secret-key-for-jwt", "1h")
	require.NoError(t, err)

	token, expiresAt, err := svc.GenerateAccessToken(AccessClaims{
		UserID:     "user-1",
		CompanyID:  "company-1",
		EmployeeID: "employee-1",
		Role:       "employee",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Greater(t, expiresAt, int64(0))

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)
	claims, err := decoded.AsMap(context.Background())
	require.NoError(t, err)

	scope, err := ScopeFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "company-1", scope.CompanyID)
	assert.Equal(t, "user-1", scope.UserID)
	assert.Equal(t, "employee-1", scope.EmployeeID)
}

func TestNewJWTService_InvalidDuration(t *testing.T) {
	_, err := NewJWTService("secret", "forever")
	assert.Error(t, err)
}

func TestScopeFromClaims(t *testing.T) {
	tests := []struct {
		name    string
		claims  map[string]interface{}
		wantErr error
	}{
		{
			name:    "refresh token rejected",
			claims:  map[string]interface{}{"type": "refresh", "company_id": "c"},
			wantErr: ErrInvalidToken,
		},
		{
			name:    "missing type rejected",
			claims:  map[string]interface{}{"company_id": "c"},
			wantErr: ErrInvalidToken,
		},
		{
			name:    "pending user without company",
			claims:  map[string]interface{}{"type": "access", "company_id": nil},
			wantErr: ErrCompanyIDMissing,
		},
		{
			name:   "employee id optional",
			claims: map[string]interface{}{"type": "access", "company_id": "c", "user_id": "u"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, err := ScopeFromClaims(tt.claims)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "c", scope.CompanyID)
			assert.Empty(t, scope.EmployeeID)
		})
	}
}
