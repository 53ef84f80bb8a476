package main

import "github.com/ilyakaznacheev/cleanenv"

type ServiceConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	SentryDSN   string `env:"SENTRY_DSN"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`
}

func loadConfig() (ServiceConfig, error) {
	var config ServiceConfig
	if err := cleanenv.ReadEnv(&config); err != nil {
		return config, err
	}
	return config, nil
}
