package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Content
		Logging
	}

	HTTP struct {
		Port int32  `validate:"min=1,max=65535"`
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int `validate:"min=0"`
	}
	Database struct {
		Path string `validate:"required"`

		// LogQueries logs every SQL statement, not only slow ones
		LogQueries bool
	}
	Content struct {
		Authority string `validate:"required,excludes=/"`
	}
	Logging struct {
		Level  string `validate:"oneof=debug info warn error"`
		Format string `validate:"oneof=json console"`
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_log_queries", false)
	v.SetDefault("content_authority", DefaultAuthority)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path:       v.GetString("DATABASE_PATH"),
			LogQueries: v.GetBool("DATABASE_LOG_QUERIES"),
		},
		Content: Content{
			Authority: v.GetString("CONTENT_AUTHORITY"),
		},
		Logging: Logging{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}

// Validate fails fast on values the application cannot start with.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
