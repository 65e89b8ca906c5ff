package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/tokenledger/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
service_name = "tokenledger"

[database]
driver = "memory"

[ledger]
contract_owner = "ledger.admin"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tokenledger", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "ledger.transfer", cfg.Kafka.TransferTopic)
	assert.Equal(t, "ledger.fee", cfg.Kafka.FeeTopic)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, "ledger.admin", cfg.Ledger.ContractOwner)
}

func TestLoadValidation(t *testing.T) {
	t.Run("missing service name", func(t *testing.T) {
		path := writeConfig(t, `
[database]
driver = "memory"

[ledger]
contract_owner = "ledger.admin"
`)
		_, err := config.Load(path)
		assert.ErrorContains(t, err, "service_name")
	})

	t.Run("mysql driver requires DSN", func(t *testing.T) {
		path := writeConfig(t, `
service_name = "tokenledger"

[database]
driver = "mysql"

[ledger]
contract_owner = "ledger.admin"
`)
		_, err := config.Load(path)
		assert.ErrorContains(t, err, "DSN")
	})

	t.Run("unsupported driver", func(t *testing.T) {
		path := writeConfig(t, `
service_name = "tokenledger"

[database]
driver = "sqlite"

[ledger]
contract_owner = "ledger.admin"
`)
		_, err := config.Load(path)
		assert.ErrorContains(t, err, "unsupported database driver")
	})

	t.Run("contract owner is mandatory", func(t *testing.T) {
		path := writeConfig(t, `
service_name = "tokenledger"

[database]
driver = "memory"
`)
		_, err := config.Load(path)
		assert.ErrorContains(t, err, "contract_owner")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
		assert.Error(t, err)
	})
}
