package providers

import (
	"fmt"
	"github.com/spf13/viper"
	"path/filepath"
	"petcache/internal/structures"
	"strings"
	"time"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.SetDefault("storage.driver", "file")
	viper.SetDefault("storage.capacity", 5*1024*1024)
	viper.SetDefault("quota.budget", 4*1024*1024)
	viper.SetDefault("records.maxSlots", 3)
	viper.SetDefault("bridge.ttl", 30*time.Minute)
	viper.SetDefault("bridge.sessionCacheSize", 32)
	viper.SetDefault("bridge.sessionTTL", 24*time.Hour)

	viper.BindEnv("logger.level", "PETCACHE_LOG_LEVEL")
	viper.BindEnv("storage.driver", "PETCACHE_STORAGE_DRIVER")
	viper.BindEnv("storage.path", "PETCACHE_STORAGE_PATH")
	viper.BindEnv("bridge.ttl", "PETCACHE_BRIDGE_TTL")
	viper.BindEnv("quota.budget", "PETCACHE_QUOTA_BUDGET")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "PetRecordCache"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
