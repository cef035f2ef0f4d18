package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTConfig(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		expiration string
		wantHours  int
		wantErr    string
	}{
		{name: "defaults", secret: "0123456789abcdef", wantHours: 24},
		{name: "custom expiration", secret: "0123456789abcdef", expiration: "48", wantHours: 48},
		{name: "missing secret", wantErr: "JWT_SECRET is required"},
		{name: "short secret", secret: "short", wantErr: "at least 16 characters"},
		{name: "invalid expiration", secret: "0123456789abcdef", expiration: "abc", wantErr: "invalid JWT_EXPIRATION_HOURS"},
		{name: "zero expiration", secret: "0123456789abcdef", expiration: "0", wantErr: "at least 1 hour"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", tt.secret)
			t.Setenv("JWT_EXPIRATION_HOURS", tt.expiration)
			t.Setenv("JWT_ISSUER", "")

			cfg, err := NewJWTConfig()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.secret, cfg.Secret)
			assert.Equal(t, "figure-planner", cfg.Issuer)
			assert.Equal(t, tt.wantHours, cfg.ExpirationHours)
			assert.Equal(t, time.Duration(tt.wantHours)*time.Hour, cfg.Expiration())
		})
	}
}

func TestOptionalJWTConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	cfg, err := OptionalJWTConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg, "auth stays disabled without a secret")

	t.Setenv("JWT_SECRET", "0123456789abcdef")
	cfg, err = OptionalJWTConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)
}
