package config

import (
	"time"

	"github.com/spf13/viper"
)

type AppCfg struct {
	Env          string `mapstructure:"env"`
	Port         string `mapstructure:"port"`
	APIVersion   string `mapstructure:"api_version"`
	ClientOrigin string `mapstructure:"client_origin"`
}

type MongoCfg struct {
	URI                   string `mapstructure:"uri"`
	Database              string `mapstructure:"database"`
	QueryTimeoutSeconds   int    `mapstructure:"query_timeout_seconds"`
	ConnectTimeoutSeconds int    `mapstructure:"connect_timeout_seconds"`
}

type JWTCfg struct {
	AccessSecret         string `mapstructure:"access_secret"`
	RefreshSecret        string `mapstructure:"refresh_secret"`
	AccessExpiryMinutes  int    `mapstructure:"access_expiry_minutes"`
	RefreshExpiryDays    int    `mapstructure:"refresh_expiry_days"`
	SecureCookies        bool   `mapstructure:"secure_cookies"`
	LoginAttemptsAllowed int    `mapstructure:"login_attempts_allowed"`
}

type CacheCfg struct {
	TTLSeconds         int `mapstructure:"ttl_seconds"`
	CheckPeriodSeconds int `mapstructure:"check_period_seconds"`
}

type WSCfg struct {
	HeartbeatSeconds     int   `mapstructure:"heartbeat_seconds"`
	WriteDeadlineSeconds int   `mapstructure:"write_deadline_seconds"`
	MaxMessageSizeBytes  int64 `mapstructure:"max_message_size_bytes"`
	MessagesPerSecond    int   `mapstructure:"messages_per_second"`
}

type SMTPCfg struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Enabled  bool   `mapstructure:"enabled"`
}

type Config struct {
	App   AppCfg   `mapstructure:"app"`
	Mongo MongoCfg `mapstructure:"mongo"`
	JWT   JWTCfg   `mapstructure:"jwt"`
	Cache CacheCfg `mapstructure:"cache"`
	WS    WSCfg    `mapstructure:"ws"`
	SMTP  SMTPCfg  `mapstructure:"smtp"`

	// Derived
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	QueryTimeout   time.Duration
	ConnectTimeout time.Duration
	CacheTTL       time.Duration
	CacheSweep     time.Duration
	Heartbeat      time.Duration
	WriteDeadline  time.Duration
}

// Load reads the config file at path, letting APP_* environment variables
// override any key.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.App.Port == "" {
		cfg.App.Port = "3000"
	}
	if cfg.App.APIVersion == "" {
		cfg.App.APIVersion = "/api/v1"
	}
	if cfg.App.ClientOrigin == "" {
		cfg.App.ClientOrigin = "http://localhost:5173"
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "uniconnect"
	}
	if cfg.Mongo.QueryTimeoutSeconds == 0 {
		cfg.Mongo.QueryTimeoutSeconds = 5
	}
	if cfg.Mongo.ConnectTimeoutSeconds == 0 {
		cfg.Mongo.ConnectTimeoutSeconds = 10
	}
	if cfg.JWT.AccessExpiryMinutes == 0 {
		cfg.JWT.AccessExpiryMinutes = 15
	}
	if cfg.JWT.RefreshExpiryDays == 0 {
		cfg.JWT.RefreshExpiryDays = 7
	}
	if cfg.JWT.LoginAttemptsAllowed == 0 {
		cfg.JWT.LoginAttemptsAllowed = 5
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 600
	}
	if cfg.Cache.CheckPeriodSeconds == 0 {
		cfg.Cache.CheckPeriodSeconds = 120
	}
	if cfg.WS.HeartbeatSeconds == 0 {
		cfg.WS.HeartbeatSeconds = 30
	}
	if cfg.WS.WriteDeadlineSeconds == 0 {
		cfg.WS.WriteDeadlineSeconds = 10
	}
	if cfg.WS.MaxMessageSizeBytes == 0 {
		cfg.WS.MaxMessageSizeBytes = 64 * 1024
	}
	if cfg.WS.MessagesPerSecond == 0 {
		cfg.WS.MessagesPerSecond = 20
	}

	cfg.AccessTTL = time.Duration(cfg.JWT.AccessExpiryMinutes) * time.Minute
	cfg.RefreshTTL = time.Duration(cfg.JWT.RefreshExpiryDays) * 24 * time.Hour
	cfg.QueryTimeout = time.Duration(cfg.Mongo.QueryTimeoutSeconds) * time.Second
	cfg.ConnectTimeout = time.Duration(cfg.Mongo.ConnectTimeoutSeconds) * time.Second
	cfg.CacheTTL = time.Duration(cfg.Cache.TTLSeconds) * time.Second
	cfg.CacheSweep = time.Duration(cfg.Cache.CheckPeriodSeconds) * time.Second
	cfg.Heartbeat = time.Duration(cfg.WS.HeartbeatSeconds) * time.Second
	cfg.WriteDeadline = time.Duration(cfg.WS.WriteDeadlineSeconds) * time.Second

	return &cfg, nil
}

func (c *Config) IsDev() bool {
	return c.App.Env != "production"
}
