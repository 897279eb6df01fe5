package config

type Config interface {
	EnvConfig
	OAuthConfig
	APIConfig
}

type EnvConfig interface {
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	OAuth
	API
}

func New() Config {
	return mainConfig{}
}
