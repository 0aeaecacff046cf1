package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/clawfarm/internal/domain"
)

func executeCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeStatsFixture(t *testing.T) string {
	t.Helper()

	snap := domain.NewFleetSnapshot("run-fixture", []domain.StatsSnapshot{
		{
			ID:         "acc_01",
			TrustScore: 42,
			CWBalance:  1500,
			Status:     domain.WorkerFarming,
			Runtime:    "0:12:30",
		},
	}, 1, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := executeCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "dev")
}

func TestStatusReadsSnapshotFile(t *testing.T) {
	path := writeStatsFixture(t)

	stdout, _, err := executeCLI(t, "status", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "run run-fixture")
	assert.Contains(t, stdout, "acc_01")
}

func TestStatusJSONOutput(t *testing.T) {
	path := writeStatsFixture(t)

	stdout, _, err := executeCLI(t, "status", "--file", path, "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "\"run_id\": \"run-fixture\"")
}

func TestStatusMissingFileFails(t *testing.T) {
	_, _, err := executeCLI(t, "status", "--file", filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read stats file")
}

func TestFarmFailsWithoutKeyFile(t *testing.T) {
	_, _, err := executeCLI(t, "farm", "--no-dashboard")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load api keys")
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "https://clawplaza.ai/api", cfg.BaseURL)
	assert.Equal(t, "farm_log.txt", cfg.LogFile)
	assert.Equal(t, 25, cfg.TokenMin)
	assert.Equal(t, 1024, cfg.TokenMax)
	assert.Equal(t, 65, cfg.TrustTarget)
	assert.Equal(t, 5, cfg.MaxMoments)
	assert.Equal(t, 5*time.Hour, cfg.MomentCooldown)
	assert.Equal(t, int64(20000), cfg.StakeFloor)
	assert.Equal(t, 20*time.Second, cfg.StaggerInterval)
	assert.Equal(t, 30*time.Second, cfg.PersistInterval)
	assert.Equal(t, 31*time.Minute, cfg.ChallengeCooldownMin)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.OpenRouterModel)
}

func TestBuildLoggerMirrorsToRunLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	logger, err := buildLogger(false, path)
	require.NoError(t, err)

	logger.Info("farm starting")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "farm starting")

	// A second logger appends rather than truncating.
	logger, err = buildLogger(false, path)
	require.NoError(t, err)
	logger.Info("fleet starting")
	_ = logger.Sync()

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "farm starting")
	assert.Contains(t, string(data), "fleet starting")
}

func TestLoadConfigRejectsInvertedTokenRange(t *testing.T) {
	v := viper.New()
	v.Set("token_min", 500)
	v.Set("token_max", 100)

	_, err := loadConfig(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token range inverted")
}

func TestWorkerConfigMapping(t *testing.T) {
	cfg, err := loadConfig(viper.New())
	require.NoError(t, err)

	wc := cfg.workerConfig("dry and witty")
	assert.Equal(t, cfg.TrustTarget, wc.TrustTarget)
	assert.Equal(t, cfg.CycleDelayMax, wc.CycleDelayMax)
	assert.Equal(t, "dry and witty", wc.Style)
	assert.Equal(t, 3, wc.ChallengeDepth)
	assert.Equal(t, 10, wc.TakenStreakLimit)
}
