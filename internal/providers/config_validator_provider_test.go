package providers

import (
	"petcache/internal/structures"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *structures.Config {
	return &structures.Config{
		WebServer: structures.Server{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0644,
			Dir:   "/tmp/logs",
		},
		Storage: structures.StorageConfig{
			Driver:   "sqlite",
			Path:     "/tmp/petcache.db",
			Capacity: 5 * 1024 * 1024,
		},
		Quota: structures.QuotaConfig{
			Budget: 4 * 1024 * 1024,
		},
		Records: structures.RecordsConfig{
			MaxSlots: 3,
		},
		Bridge: structures.BridgeConfig{
			TTL:              30 * time.Minute,
			SessionCacheSize: 8,
			SessionTTL:       24 * time.Hour,
		},
	}
}

func TestConfigValidator_ValidConfig(t *testing.T) {
	v := NewCnfValidator(validConfig())
	assert.NoError(t, v.Validate())
}

func TestConfigValidator_EmptyHost(t *testing.T) {
	c := validConfig()
	c.WebServer.Host = ""
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_ZeroPort(t *testing.T) {
	c := validConfig()
	c.WebServer.Port = 0
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_EmptyLogLevel(t *testing.T) {
	c := validConfig()
	c.Logger.Level = ""
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_InvalidLogLevel(t *testing.T) {
	c := validConfig()
	c.Logger.Level = "verbose"
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_UnknownDriver(t *testing.T) {
	c := validConfig()
	c.Storage.Driver = "redis"
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_BudgetOverCapacity(t *testing.T) {
	c := validConfig()
	c.Quota.Budget = c.Storage.Capacity + 1
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_PathRequiredForDurableDrivers(t *testing.T) {
	c := validConfig()
	c.Storage.Path = ""
	assert.Error(t, NewCnfValidator(c).Validate())

	c.Storage.Driver = "memory"
	assert.NoError(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_ZeroSlots(t *testing.T) {
	c := validConfig()
	c.Records.MaxSlots = 0
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}
