package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	token, err := Generate("s3cret", "user-1", RoleBodeguero, "inventario-kardex", 5)
	require.NoError(t, err)

	userID, role, err := Parse("s3cret", token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, RoleBodeguero, role)
}

func TestParse_Errors(t *testing.T) {
	token, err := Generate("s3cret", "user-1", RoleAdmin, "inventario-kardex", 5)
	require.NoError(t, err)
	expired, err := Generate("s3cret", "user-1", RoleAdmin, "inventario-kardex", -1)
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"firma incorrecta", "otro", token},
		{"expirado", "s3cret", expired},
		{"basura", "s3cret", "no.es.jwt"},
		{"sin secreto", "", token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(tt.secret, tt.token)
			assert.Error(t, err)
		})
	}
}

func TestGenerate_EmptySecret(t *testing.T) {
	_, err := Generate("", "user-1", RoleAdmin, "x", 5)
	assert.ErrorIs(t, err, ErrEmptySecret)
}
