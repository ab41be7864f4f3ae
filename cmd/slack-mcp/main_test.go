package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCmdLine(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv(envBotToken, "")
		t.Setenv(envTeamID, "")
		p, err := parseCmdLine([]string{})
		require.NoError(t, err)
		assert.Equal(t, "stdio", p.transport)
		assert.Equal(t, "127.0.0.1:8483", p.listenAddr)
		assert.False(t, p.verbose)
	})
	t.Run("environment provides credentials", func(t *testing.T) {
		t.Setenv(envBotToken, "xoxb-fake")
		t.Setenv(envTeamID, "T123")
		p, err := parseCmdLine([]string{})
		require.NoError(t, err)
		assert.Equal(t, "xoxb-fake", p.token)
		assert.Equal(t, "T123", p.teamID)
	})
	t.Run("flags override environment", func(t *testing.T) {
		t.Setenv(envBotToken, "xoxb-env")
		p, err := parseCmdLine([]string{"-token", "xoxb-flag", "-team", "T9", "-transport", "http"})
		require.NoError(t, err)
		assert.Equal(t, "xoxb-flag", p.token)
		assert.Equal(t, "T9", p.teamID)
		assert.Equal(t, "http", p.transport)
	})
	t.Run("positional arguments are rejected", func(t *testing.T) {
		_, err := parseCmdLine([]string{"whatever"})
		assert.Error(t, err)
	})
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       params
		wantErr string
	}{
		{name: "both present", p: params{token: "xoxb-fake", teamID: "T123"}},
		{name: "missing token", p: params{teamID: "T123"}, wantErr: envBotToken},
		{name: "missing team", p: params{token: "xoxb-fake"}, wantErr: envTeamID},
		{name: "missing both reports token first", p: params{}, wantErr: envBotToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
