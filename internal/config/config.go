package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	APIBaseURL string `mapstructure:"API_BASE_URL"`
	SocketURL  string `mapstructure:"SOCKET_URL"`

	PageSize       int           `mapstructure:"PAGE_SIZE"`
	TypingTTL      time.Duration `mapstructure:"TYPING_TTL"`
	HTTPTimeout    time.Duration `mapstructure:"HTTP_TIMEOUT"`
	DeviceDBPath   string        `mapstructure:"DEVICE_DB_PATH"`
	Environment    string        `mapstructure:"GO_ENV"`
	StubServerBind string        `mapstructure:"STUB_SERVER_BIND"`
}

var AppConfig *Config

func LoadConfig() {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("API_BASE_URL", "http://localhost:8080")
	viper.SetDefault("SOCKET_URL", "ws://localhost:8080/ws")
	viper.SetDefault("PAGE_SIZE", 50)
	viper.SetDefault("TYPING_TTL", 6*time.Second)
	viper.SetDefault("HTTP_TIMEOUT", 15*time.Second)
	viper.SetDefault("DEVICE_DB_PATH", "chat-device.db")
	viper.SetDefault("GO_ENV", "development")
	viper.SetDefault("STUB_SERVER_BIND", ":8080")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}
}
