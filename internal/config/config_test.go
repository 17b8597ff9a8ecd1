package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Mohsinsiddi/w3giveaway/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "SEPOLIA", cfg.Network)
	assert.Equal(t, config.ProviderLocal, cfg.Provider)
	assert.Equal(t, 30, cfg.AuthRefreshSeconds)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 30*time.Second, cfg.AuthRefresh())
}

func TestSaveAndReloadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	cfg.Network = "POLYGON"
	cfg.ContractAddress = "0x000000000000000000000000000000000000dEaD"
	cfg.DefaultWallet = "admin"
	cfg.AuthRefreshSeconds = 45

	require.NoError(t, cfg.Save())

	reloaded, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "POLYGON", reloaded.Network)
	assert.Equal(t, "0x000000000000000000000000000000000000dEaD", reloaded.ContractAddress)
	assert.Equal(t, "admin", reloaded.DefaultWallet)
	assert.Equal(t, 45*time.Second, reloaded.AuthRefresh())
}

func TestConfigFileWrittenOwnerOnly(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Load(dir)
	require.NoError(t, cfg.Save())

	info, err := os.Stat(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0o600))

	_, err := config.Load(dir)
	assert.Error(t, err)
}

func TestLoadUsesEnvConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvConfigDir, dir)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Dir())
}

func TestLoadFromNonExistentDir(t *testing.T) {
	dir := t.TempDir() + "/subdir"
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "SEPOLIA", cfg.Network)
}

// ---------------------------------------------------------------------------
// Custom RPCs
// ---------------------------------------------------------------------------

func TestAddAndRemoveCustomRPC(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Load(dir)

	require.NoError(t, cfg.AddRPC("AMOY", "https://rpc1.amoy"))
	require.NoError(t, cfg.AddRPC("AMOY", "https://rpc2.amoy"))
	assert.Error(t, cfg.AddRPC("AMOY", "https://rpc1.amoy"), "duplicate")

	require.NoError(t, cfg.RemoveRPC("AMOY", "https://rpc1.amoy"))
	assert.Equal(t, []string{"https://rpc2.amoy"}, cfg.GetRPCs("AMOY"))

	assert.Error(t, cfg.RemoveRPC("AMOY", "https://missing"))
}

// ---------------------------------------------------------------------------
// Environment overlay
// ---------------------------------------------------------------------------

func TestApplyEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Load(dir)

	env := map[string]string{
		config.EnvNetwork:     "amoy",
		config.EnvContract:    "0xabc",
		config.EnvProvider:    "RPC",
		config.EnvProviderURL: "http://127.0.0.1:1248",
		config.EnvLogLevel:    "debug",
		config.EnvAuthRefresh: "10",
	}
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "AMOY", cfg.Network)
	assert.Equal(t, "0xabc", cfg.ContractAddress)
	assert.Equal(t, config.ProviderRPC, cfg.Provider)
	assert.Equal(t, "http://127.0.0.1:1248", cfg.ProviderURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 10*time.Second, cfg.AuthRefresh())
}

func TestApplyEnvIgnoresEmptyAndInvalid(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Load(dir)
	cfg.Network = "POLYGON"

	cfg.ApplyEnv(func(k string) string {
		if k == config.EnvAuthRefresh {
			return "-5"
		}
		return "  "
	})

	assert.Equal(t, "POLYGON", cfg.Network)
	assert.Equal(t, 30, cfg.AuthRefreshSeconds)
}

// ---------------------------------------------------------------------------
// Session file
// ---------------------------------------------------------------------------

func TestLoadSessionDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Load(dir)

	sf, err := cfg.LoadSession()
	require.NoError(t, err)
	assert.Empty(t, sf.Authorized)
	assert.False(t, sf.Disconnected)
}

func TestSaveSessionAndReload(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Load(dir)

	require.NoError(t, cfg.SaveSession(&config.SessionFile{
		Authorized:  []string{"0x1111111111111111111111111111111111111111"},
		ChainID:     "0x89",
		AddedChains: []string{"0x89"},
	}))

	sf, err := cfg.LoadSession()
	require.NoError(t, err)
	assert.Equal(t, "0x89", sf.ChainID)
	assert.Len(t, sf.Authorized, 1)
	assert.Equal(t, []string{"0x89"}, sf.AddedChains)
}
