package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, uint32(500), cfg.Exchange.PlatformFeePercent)
	assert.Equal(t, "1000000000000000000", cfg.Reward.DailyReward)
	assert.Equal(t, "HTO", cfg.Reward.Token)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  port: 9000
database:
  driver: mysql
  user: app
exchange:
  platform_fee_percent: 250
kafka:
  enabled: true
  brokers: ["k1:9092", "k2:9092"]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("DAILYTRACK_DATABASE_USER", "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "from-env", cfg.Database.User)
	assert.Equal(t, uint32(250), cfg.Exchange.PlatformFeePercent)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Driver: "oracle"}}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Database: DatabaseConfig{Driver: "sqlite"}, Exchange: ExchangeConfig{PlatformFeePercent: 10001}}
	assert.Error(t, cfg.Validate())

	cfg = &Config{
		Database: DatabaseConfig{Driver: "sqlite"},
		Reward:   RewardConfig{Token: "HTO", Address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"},
		Exchange: ExchangeConfig{PaymentToken: "HTO", Address: "0x5fbdb2315678afecb367f032d93f642f64180aa3"},
	}
	assert.ErrorContains(t, cfg.Validate(), "must differ")

	cfg.Exchange.Address = "0x821369b12D6e368126e7FddF2CE66E6515D0Cc7a"
	assert.NoError(t, cfg.Validate())
}
