package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log       Log       `yaml:"log"`
	Server    Server    `yaml:"server"`
	Store     Store     `yaml:"store"`
	OpenAI    OpenAI    `yaml:"openai"`
	Extractor Extractor `yaml:"extractor"`
}

type OpenAI struct {
	Reply    ModelConfig `yaml:"reply" validate:"required"`
	Extract  ModelConfig `yaml:"extract"`
	Evaluate ModelConfig `yaml:"evaluate"`
}

type ModelConfig struct {
	// OpenAI base url
	BaseURL string `yaml:"base_url" example:"https://openrouter.ai/api/v1" validate:"required"`
	// OpenAI token
	Token string `yaml:"token" example:"sk-proj-abc123456789DEF789ghi012JKL345mno678PQR901stu234VWX" validate:"required"`
	// OpenAI model
	Model string `yaml:"model" example:"anthropic/claude-3-haiku" validate:"required"`
}

type Server struct {
	// Listen address of the HTTP API
	Addr string `yaml:"addr" example:":8080"`
}

type Store struct {
	// Session store backend
	Backend string `yaml:"backend" example:"memory" validate:"oneof=memory sqlite"`
	// SQLite database path, used when backend is sqlite
	Path string `yaml:"path" example:"data/sessions.db"`
}

type Extractor struct {
	// Term extraction strategy
	Strategy string `yaml:"strategy" example:"pattern" validate:"oneof=pattern oracle"`
}

type Log struct {
	// Enable debug-level console output
	Debug bool `yaml:"debug" example:"false"`
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
	if result.Store.Backend == "" {
		result.Store.Backend = "memory"
	}
	if result.Store.Backend == "sqlite" && result.Store.Path == "" {
		result.Store.Path = "data/sessions.db"
	}
	if result.Extractor.Strategy == "" {
		result.Extractor.Strategy = "pattern"
	}
	if result.OpenAI.Extract.Token == "" {
		result.OpenAI.Extract = result.OpenAI.Reply
	}
	if result.OpenAI.Evaluate.Token == "" {
		result.OpenAI.Evaluate = result.OpenAI.Reply
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}
