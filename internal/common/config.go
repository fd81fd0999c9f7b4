package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	LLM     LLMConfig     `toml:"llm"`
	Prices  PricesConfig  `toml:"prices"`
	Email   EmailConfig   `toml:"email"`
	Report  ReportConfig  `toml:"report"`
	Logging LoggingConfig `toml:"logging"`
}

// LLMConfig configures the Claude client used for IPO discovery and theses.
type LLMConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"`    // e.g., "10m" - web search calls can run long
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
}

// PricesConfig configures the Alpha Vantage client.
type PricesConfig struct {
	APIKey     string  `toml:"api_key" validate:"required"`
	BaseURL    string  `toml:"base_url"`
	RatePerSec float64 `toml:"rate_per_sec"` // Minimum inter-call spacing is 1/rate
}

// EmailConfig configures SMTP delivery of the digest.
type EmailConfig struct {
	Host     string `toml:"smtp_host"`
	Port     int    `toml:"smtp_port"`
	Username string `toml:"smtp_username"`
	Password string `toml:"smtp_password"`
	From     string `toml:"from"`
	FromName string `toml:"from_name"`
	To       string `toml:"to"`      // Comma-separated recipient list
	ToTest   string `toml:"to_test"` // Recipients for --test-email runs
	UseTLS   bool   `toml:"use_tls"`
}

// ReportConfig configures output locations and lookback windows.
type ReportConfig struct {
	ReportsDir         string `toml:"reports_dir"`
	ChartsDir          string `toml:"charts_dir"`
	ThesisDir          string `toml:"thesis_dir"`
	DataDir            string `toml:"data_dir"`
	TemplatePath       string `toml:"template_path"`
	RecentWindowDays   int    `toml:"recent_window_days" validate:"gt=0"`
	UpcomingWindowDays int    `toml:"upcoming_window_days" validate:"gt=0"`
	BenchmarkSymbol    string `toml:"benchmark_symbol"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// DefaultConfig returns a configuration with sensible defaults applied.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:     "claude-sonnet-4-20250514",
			Timeout:   "10m",
			MaxTokens: 16384,
		},
		Prices: PricesConfig{
			BaseURL:    "https://www.alphavantage.co",
			RatePerSec: 5, // 0.2s minimum spacing between calls
		},
		Email: EmailConfig{
			Port:     587,
			FromName: "IPO Digest",
			UseTLS:   true,
		},
		Report: ReportConfig{
			ReportsDir:         "reports",
			ChartsDir:          "charts",
			ThesisDir:          "thesis",
			DataDir:            "data",
			TemplatePath:       "templates/research_request.md",
			RecentWindowDays:   90,
			UpcomingWindowDays: 90,
			BenchmarkSymbol:    "QQQ",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
	}
}

// LoadConfig loads configuration: defaults -> TOML file (if present) -> env overrides.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

// Validate checks fail-fast requirements. Email settings are only enforced
// when delivery is requested so local report-only runs stay usable.
func (c *Config) Validate(emailEnabled bool, testEmail bool) error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if ok := asValidationErrors(err, &verrs); ok && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("config validation failed: field %s (%s)", f.Namespace(), f.Tag())
		}
		return fmt.Errorf("config validation failed: %w", err)
	}

	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required (set ANTHROPIC_API_KEY)")
	}

	if emailEnabled {
		if c.Email.Host == "" || c.Email.Username == "" || c.Email.Password == "" {
			return fmt.Errorf("email.smtp_host, smtp_username and smtp_password are required when email is enabled")
		}
		if testEmail {
			if c.Email.ToTest == "" {
				return fmt.Errorf("email.to_test is required when --test-email is set")
			}
		} else if c.Email.To == "" {
			return fmt.Errorf("email.to recipients are required when email is enabled")
		}
	}

	return nil
}

// Recipients splits a comma-separated recipient list, dropping empty entries.
func (c *EmailConfig) Recipients(testEmail bool) []string {
	raw := c.To
	if testEmail {
		raw = c.ToTest
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

func applyEnvOverrides(config *Config) {
	if v := getenv("ANTHROPIC_API_KEY", "IPODIGEST_LLM_API_KEY"); v != "" {
		config.LLM.APIKey = v
	}
	if v := getenv("IPODIGEST_LLM_MODEL"); v != "" {
		config.LLM.Model = v
	}
	if v := getenv("ALPHA_VANTAGE_KEY", "IPODIGEST_PRICES_API_KEY"); v != "" {
		config.Prices.APIKey = v
	}
	if v := getenv("IPODIGEST_SMTP_HOST"); v != "" {
		config.Email.Host = v
	}
	if v := getenv("IPODIGEST_SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Email.Port = port
		}
	}
	if v := getenv("IPODIGEST_SMTP_USERNAME"); v != "" {
		config.Email.Username = v
	}
	if v := getenv("IPODIGEST_SMTP_PASSWORD"); v != "" {
		config.Email.Password = v
	}
	if v := getenv("IPODIGEST_EMAIL_FROM"); v != "" {
		config.Email.From = v
	}
	if v := getenv("IPODIGEST_EMAIL_TO"); v != "" {
		config.Email.To = v
	}
	if v := getenv("IPODIGEST_EMAIL_TO_TEST"); v != "" {
		config.Email.ToTest = v
	}
	if v := getenv("IPODIGEST_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if config.Email.From == "" {
		config.Email.From = config.Email.Username
	}
}

// getenv returns the first non-empty value among the named variables.
func getenv(names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}
