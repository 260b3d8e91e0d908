package config

import "strings"

type StoreBackend string

const (
	StoreBackendFile   StoreBackend = "file"
	StoreBackendRedis  StoreBackend = "redis"
	StoreBackendMemory StoreBackend = "memory"
)

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetStoreBackend() StoreBackend {
	switch b := StoreBackend(strings.ToLower(GetEnv("STORE_BACKEND", string(StoreBackendFile)))); b {
	case StoreBackendFile, StoreBackendRedis, StoreBackendMemory:
		return b
	default:
		return StoreBackendFile
	}
}

func (Store) GetStorePath() string {
	return GetEnv("STORE_PATH", "./data/session.json")
}

// GetStorePassphrase enables encryption at rest for the file store when non-empty
func (Store) GetStorePassphrase() string {
	return GetEnv("STORE_PASSPHRASE", "")
}

func (Store) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Store) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Store) GetRedisDB() int {
	return GetEnvInt("REDIS_DB", 0)
}

func (Store) GetRedisKey() string {
	return GetEnv("REDIS_KEY", "eappeal:session")
}
