package config

import "time"

type APIConfig interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
}

type API struct{}

var _ APIConfig = API{}

func (API) GetAPIBaseURL() string {
	return GetEnv("API_BASE_URL", "http://localhost:9090/api/v1")
}

func (API) GetRequestTimeout() time.Duration {
	return 30 * time.Second
}
