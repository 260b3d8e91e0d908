package config

import (
	"strings"
	"time"
)

const (
	baseURLVar        = "API_BASE_URL"
	requestTimeoutVar = "REQUEST_TIMEOUT"
	probeEnabledVar   = "PROBE_ENABLED"
	probeTimeoutVar   = "PROBE_TIMEOUT"
	rateLimitVar      = "RATE_LIMIT_RPS"

	DefaultBaseURL        = "https://eappeal.uz/api"
	DefaultRequestTimeout = 30 * time.Second
	DefaultProbeTimeout   = 5 * time.Second
)

type Client struct{}

var _ ClientConfig = Client{}

// GetBaseURL returns the API root without a trailing slash. All endpoint paths are appended to it.
func (Client) GetBaseURL() string {
	return strings.TrimSuffix(GetEnv(baseURLVar, DefaultBaseURL), "/")
}

func (Client) GetRequestTimeout() time.Duration {
	return GetEnvDuration(requestTimeoutVar, DefaultRequestTimeout)
}

func (Client) GetProbeEnabled() bool {
	return GetEnvBool(probeEnabledVar, true)
}

func (Client) GetProbeTimeout() time.Duration {
	return GetEnvDuration(probeTimeoutVar, DefaultProbeTimeout)
}

// GetRateLimit returns the maximum requests per second, 0 disables limiting
func (Client) GetRateLimit() float64 {
	return GetEnvFloat(rateLimitVar, 0)
}
