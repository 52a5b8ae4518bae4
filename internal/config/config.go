package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Strategy   StrategyConfig `yaml:"strategy"`
	Backtest   BacktestConfig `yaml:"backtest"`
	DataSource struct {
		Provider  string   `yaml:"provider" default:"csv" validate:"oneof=csv rest yahoo mock"`
		Dir       string   `yaml:"dir" default:"data"`
		BaseURL   string   `yaml:"base_url"`
		APIKey    string   `yaml:"api_key"`
		Timeframe string   `yaml:"timeframe" default:"1h" validate:"required"`
		Symbols   []string `yaml:"symbols"`
	} `yaml:"data_source"`
	Sentiment struct {
		BaseURL    string        `yaml:"base_url"`
		TTL        time.Duration `yaml:"ttl" default:"5m" validate:"gt=0"`
		Timeout    time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
		MaxRetries uint64        `yaml:"max_retries" default:"3"`
		RedisAddr  string        `yaml:"redis_addr"`
		RedisDB    int           `yaml:"redis_db"`
	} `yaml:"sentiment"`
	Monitor struct {
		Cron      string `yaml:"cron" default:"*/30 * * * * *" validate:"required"`
		BarLimit  int    `yaml:"bar_limit" default:"300" validate:"gt=0"`
		StateFile string `yaml:"state_file" default:"data/monitor_state.json"`
	} `yaml:"monitor"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" default:"data/regime_sentinel.db"`
	} `yaml:"database"`
	Metrics struct {
		Addr string `yaml:"addr" default:":9090"`
	} `yaml:"metrics"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// BacktestConfig controls the simulated account.
type BacktestConfig struct {
	InitialCapital  float64 `yaml:"initial_capital" default:"10000" validate:"gt=0"`
	PositionSizePct float64 `yaml:"position_size_pct" default:"1.0" validate:"gt=0,lte=1"`
	Commission      float64 `yaml:"commission" default:"0.001" validate:"gte=0,lt=1"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Load reads config from a YAML file, applies environment variable overrides, then defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("SENTIMENT_BASE_URL"); v != "" {
		cfg.Sentiment.BaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Sentiment.RedisAddr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("INITIAL_CAPITAL"); v != "" {
		if capital, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Backtest.InitialCapital = capital
		}
	}

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return cfg, nil
}

// Validate checks field constraints and threshold ordering.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return describe(err)
	}
	return c.Strategy.Validate()
}

// describe flattens validator errors into one readable message.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.SplitN(fe.Namespace(), ".", 2)
		name := field[len(field)-1]
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", name, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s is %s", name, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
