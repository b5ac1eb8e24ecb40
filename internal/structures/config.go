package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

// StorageConfig selects the durable medium backing the record document.
// Capacity is the hard limit of the medium in bytes; writes beyond it fail
// with a quota error the way a browser origin store does.
type StorageConfig struct {
	Driver   string `yaml:"driver" validate:"required|in:memory,file,sqlite"`
	Path     string `yaml:"path"`
	Capacity int    `yaml:"capacity" validate:"required|min:1"`
}

// QuotaConfig holds the conservative serialized-size budget checked before
// every write. It should stay below StorageConfig.Capacity.
type QuotaConfig struct {
	Budget int `yaml:"budget" validate:"required|min:1"`
}

type RecordsConfig struct {
	MaxSlots int `yaml:"maxSlots" validate:"required|min:1|max:32"`
}

type BridgeConfig struct {
	TTL              time.Duration `yaml:"ttl" validate:"required|min:1"`
	SessionCacheSize int           `yaml:"sessionCacheSize" validate:"required|min:1"` // MB shared by all sessions
	SessionTTL       time.Duration `yaml:"sessionTTL" validate:"required|min:1"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
	TTL     int  `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName   string
	Debug     bool
	Path      string
	WebServer Server        `yaml:"webServer"`
	Logger    LoggerConfig  `yaml:"logger"`
	Storage   StorageConfig `yaml:"storage"`
	Quota     QuotaConfig   `yaml:"quota"`
	Records   RecordsConfig `yaml:"records"`
	Bridge    BridgeConfig  `yaml:"bridge"`
	Cache     CacheConfig   `yaml:"cache"`
	Metrics   MetricsConfig `yaml:"metrics"`
}
