package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadUserConfig_RoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := &UserConfig{
		CurrentProfile: "staging",
		Profiles: map[string]Profile{
			"staging": {Host: "https://staging.example.com", APIKey: "k-staging", Output: "json"},
			"prod":    {Host: "https://prod.example.com", Token: "t-prod"},
		},
	}
	require.NoError(t, SaveUserConfig(cfg))

	loaded, err := LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, "staging", loaded.CurrentProfile)
	assert.Equal(t, cfg.Profiles["staging"], loaded.Profiles["staging"])
	assert.Equal(t, cfg.Profiles["prod"], loaded.Profiles["prod"])
}

func TestSaveUserConfig_RestrictsPermissions(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, SaveUserConfig(&UserConfig{
		CurrentProfile: "default",
		Profiles:       map[string]Profile{"default": {APIKey: "secret"}},
	}))

	info, err := os.Stat(ConfigPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(ConfigPath()))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())
}

func TestLoadUserConfig_MissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := LoadUserConfig()
	assert.Error(t, err)
}

func TestActiveProfile_OverrideWins(t *testing.T) {
	cfg := &UserConfig{
		CurrentProfile: "default",
		Profiles: map[string]Profile{
			"default": {Host: "http://localhost:8080"},
			"prod":    {Host: "https://prod.example.com"},
		},
	}

	assert.Equal(t, "http://localhost:8080", cfg.ActiveProfile("").Host)
	assert.Equal(t, "https://prod.example.com", cfg.ActiveProfile("prod").Host)
}

func TestActiveProfile_UnknownNameIsEmpty(t *testing.T) {
	cfg := &UserConfig{CurrentProfile: "default", Profiles: map[string]Profile{}}
	assert.Equal(t, Profile{}, cfg.ActiveProfile("missing"))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", maskSecret(""))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "abcd****wxyz", maskSecret("abcdefghijklmnopqrstuvwxyz"))
}

func TestMaskConfig_LeavesHostAndOutput(t *testing.T) {
	masked := maskConfig(&UserConfig{
		CurrentProfile: "default",
		Profiles: map[string]Profile{
			"default": {
				Host:   "http://localhost:8080",
				APIKey: "0123456789abcdef",
				Output: "table",
			},
		},
	})

	p := masked.Profiles["default"]
	assert.Equal(t, "http://localhost:8080", p.Host)
	assert.Equal(t, "table", p.Output)
	assert.NotEqual(t, "0123456789abcdef", p.APIKey)
	assert.Contains(t, p.APIKey, "****")
}
