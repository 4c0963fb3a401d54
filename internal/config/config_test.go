package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helper function tests
// ---------------------------------------------------------------------------

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string // nil = don't set; pointer to distinguish "" from unset
		fallback string
		want     string
	}{
		{name: "returns fallback when unset", key: "RELAY_TEST_GETENV_UNSET", setVal: nil, fallback: "default", want: "default"},
		{name: "returns env value when set", key: "RELAY_TEST_GETENV_SET", setVal: strPtr("custom"), fallback: "default", want: "custom"},
		{name: "returns fallback when empty string", key: "RELAY_TEST_GETENV_EMPTY", setVal: strPtr(""), fallback: "default", want: "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got := getEnv(tc.key, tc.fallback)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback int
		want     int
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "RELAY_TEST_INT_UNSET", setVal: nil, fallback: 42, want: 42},
		{name: "parses valid int", key: "RELAY_TEST_INT_VALID", setVal: strPtr("8080"), fallback: 0, want: 8080},
		{name: "parses negative int", key: "RELAY_TEST_INT_NEG", setVal: strPtr("-1"), fallback: 0, want: -1},
		{name: "errors on non-numeric", key: "RELAY_TEST_INT_NAN", setVal: strPtr("abc"), fallback: 0, wantErr: true},
		{name: "errors on float", key: "RELAY_TEST_INT_FLOAT", setVal: strPtr("3.14"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvInt(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback time.Duration
		want     time.Duration
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "RELAY_TEST_DUR_UNSET", setVal: nil, fallback: time.Minute, want: time.Minute},
		{name: "parses duration", key: "RELAY_TEST_DUR_VALID", setVal: strPtr("45s"), fallback: 0, want: 45 * time.Second},
		{name: "errors on bare number", key: "RELAY_TEST_DUR_BARE", setVal: strPtr("45"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvDuration(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("RELAY_TEST_LIST", "a, b ,,c")

	got := getEnvList("RELAY_TEST_LIST", nil)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	got = getEnvList("RELAY_TEST_LIST_UNSET", []string{"fallback"})
	assert.Equal(t, []string{"fallback"}, got)
}

// ---------------------------------------------------------------------------
// Load / validate
// ---------------------------------------------------------------------------

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RELAY_JWT_SECRET", "0123456789abcdef0123456789abcdef")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "relay_dev", cfg.Database.DBName)
	assert.Equal(t, 25, cfg.Database.MaxConns)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.False(t, cfg.Debug)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("RELAY_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RELAY_JWT_SECRET is required")
}

func TestLoad_RejectsShortJWTSecret(t *testing.T) {
	t.Setenv("RELAY_JWT_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 characters")
}

func TestLoad_RejectsBadDBPort(t *testing.T) {
	t.Setenv("RELAY_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("RELAY_DB_PORT", "70000")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RELAY_DB_PORT")
}

func TestLoad_SlackChannelRequiredWithToken(t *testing.T) {
	t.Setenv("RELAY_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("RELAY_SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("RELAY_SLACK_CHANNEL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RELAY_SLACK_CHANNEL")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Parallel()

	c := DatabaseConfig{
		Host: "db", Port: 5433, User: "u", Password: "p", DBName: "relay", SSLMode: "require",
	}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=relay sslmode=require", c.DSN())
}

func strPtr(s string) *string { return &s }
