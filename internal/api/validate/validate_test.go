package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword(t *testing.T) {
	cases := []struct {
		name     string
		password string
		wantErr  string
	}{
		{"valid", "Password1", ""},
		{"too short", "Pw1", "Password must be at least 8 characters long"},
		{"no uppercase", "password1", "Password must contain at least one uppercase letter"},
		{"no lowercase", "PASSWORD1", "Password must contain at least one lowercase letter"},
		{"no digit", "Passwords", "Password must contain at least one digit"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Password(tc.password)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.wantErr, err.Error())
		})
	}
}

func TestRequired(t *testing.T) {
	v, err := Required("name", "  value ")
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	_, err = Required("name", "   ")
	require.Error(t, err)
	assert.Equal(t, "name is required", err.Error())
}
