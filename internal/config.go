package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ronda/internal/models"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
	Patrol PatrolConfig      `yaml:"patrol"`
	Notify NotifyConfig      `yaml:"notify"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Patrol.Validate(); err != nil {
		return err
	}
	return c.Notify.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// PatrolConfig holds the patrol engine defaults.
//
// TestMultiplier uniformly dilates every checkpoint deadline. Normal
// operation uses 1.0; accelerated test mode uses a fraction such as 0.1.
type PatrolConfig struct {
	TimeMinutes     int            `yaml:"time_minutes"`
	ProximityMeters float64        `yaml:"proximity_meters"`
	TestMultiplier  float64        `yaml:"test_multiplier"`
	Schedule        ScheduleConfig `yaml:"schedule"`
}

// Validate validates the patrol configuration.
func (c *PatrolConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.TimeMinutes, validation.Required, validation.Min(1)),
		validation.Field(&c.ProximityMeters, validation.Required, validation.Min(1.0)),
	); err != nil {
		return err
	}
	if c.TestMultiplier <= 0 || c.TestMultiplier > 1 {
		return fmt.Errorf("patrol: test_multiplier must be in (0, 1], got %v", c.TestMultiplier)
	}
	return c.Schedule.Validate()
}

// Settings converts the static configuration into the runtime settings
// consumed by the session engine.
func (c *PatrolConfig) Settings(notificationsEnabled bool) models.PatrolSettings {
	return models.PatrolSettings{
		PatrolTimeMinutes:    c.TimeMinutes,
		ProximityMeters:      c.ProximityMeters,
		NotificationsEnabled: notificationsEnabled,
		TestMultiplier:       c.TestMultiplier,
	}
}

// ScheduleConfig enables automatic patrol starts at fixed times of day.
type ScheduleConfig struct {
	Enabled bool           `yaml:"enabled"`
	Times   []ScheduleTime `yaml:"times"`
}

// ScheduleTime is one wall-clock start time.
type ScheduleTime struct {
	Hour    int  `yaml:"hour"`
	Minute  int  `yaml:"minute"`
	Enabled bool `yaml:"enabled"`
}

// Validate validates the schedule configuration.
func (c *ScheduleConfig) Validate() error {
	for i := range c.Times {
		t := &c.Times[i]
		if err := validation.ValidateStruct(t,
			validation.Field(&t.Hour, validation.Min(0), validation.Max(23)),
			validation.Field(&t.Minute, validation.Min(0), validation.Max(59)),
		); err != nil {
			return fmt.Errorf("schedule time %d: %w", i, err)
		}
	}
	return nil
}

// NotifyConfig holds notification transport configuration. Credentials are
// normally injected through environment expansion in the YAML file.
type NotifyConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Telegram TelegramConfig `yaml:"telegram"`
	Email    EmailConfig    `yaml:"email"`
}

// Validate validates the notification configuration.
func (c *NotifyConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if !c.Telegram.Configured() && !c.Email.Configured() {
		return fmt.Errorf("notify: enabled but neither telegram nor email is configured")
	}
	return c.Email.Validate()
}

// TelegramConfig holds Telegram Bot API credentials.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// Configured reports whether both credentials are present.
func (c *TelegramConfig) Configured() bool {
	return c.BotToken != "" && c.ChatID != ""
}

// EmailConfig holds the recipient and SMTP transport settings.
type EmailConfig struct {
	To   string     `yaml:"to"`
	SMTP SMTPConfig `yaml:"smtp"`
}

// Configured reports whether email delivery can be attempted.
func (c *EmailConfig) Configured() bool {
	return c.To != "" && c.SMTP.Host != ""
}

// Validate validates the email configuration.
func (c *EmailConfig) Validate() error {
	if !c.Configured() {
		return nil
	}
	return validation.ValidateStruct(&c.SMTP,
		validation.Field(&c.SMTP.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.SMTP.From, validation.Required),
	)
}

// SMTPConfig holds SMTP server settings.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./ronda.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Patrol: PatrolConfig{
			TimeMinutes:     5,
			ProximityMeters: 50,
			TestMultiplier:  1.0,
		},
		Notify: NotifyConfig{
			Enabled: false,
		},
	}
}
