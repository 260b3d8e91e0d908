package config

import "time"

type Config interface {
	EnvConfig
	ClientConfig
	StoreConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLanguage() string
	GetLogLevel() string
}

type ClientConfig interface {
	GetBaseURL() string
	GetRequestTimeout() time.Duration
	GetProbeEnabled() bool
	GetProbeTimeout() time.Duration
	GetRateLimit() float64
}

type StoreConfig interface {
	GetStoreBackend() StoreBackend
	GetStorePath() string
	GetStorePassphrase() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisKey() string
}

type mainConfig struct {
	EnvVars
	Client
	Store
}

func New() Config {
	return mainConfig{}
}
