package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log      Log      `yaml:"log"`
	Server   Server   `yaml:"server"`
	Calendar Calendar `yaml:"calendar"`
}

type Server struct {
	// Address to listen on
	Addr string `yaml:"addr" example:":8080" validate:"required"`
}

type Calendar struct {
	// Path to the Google service account key file
	CredentialsFile string `yaml:"credentials_file" example:"service-account-key.json" validate:"required"`
	// ID of the calendar to book events on
	CalendarID string `yaml:"calendar_id" example:"someone@gmail.com" validate:"required"`
	// IANA timezone used to localize parsed times and event payloads
	Timezone string `yaml:"timezone" example:"Asia/Kolkata" validate:"required"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Load() (*Config, error) {
	var result Config

	data, err := os.ReadFile("config.yaml")
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	if result.Server.Addr == "" {
		result.Server.Addr = ":8080"
	}
	if result.Calendar.CredentialsFile == "" {
		result.Calendar.CredentialsFile = "service-account-key.json"
	}
	if result.Calendar.Timezone == "" {
		result.Calendar.Timezone = "Asia/Kolkata"
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}
