package internal

import (
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestPatrolConfig_MultiplierBounds(t *testing.T) {
	tests := []struct {
		name       string
		multiplier float64
		wantErr    bool
	}{
		{"normal mode", 1.0, false},
		{"test mode", 0.1, false},
		{"zero", 0, true},
		{"negative", -0.5, true},
		{"above one", 1.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			cfg.Patrol.TestMultiplier = tt.multiplier
			err := cfg.Patrol.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPatrolConfig_RejectsNonPositiveMinutes(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Patrol.TimeMinutes = 0
	if err := cfg.Patrol.Validate(); err == nil {
		t.Fatal("zero time_minutes should fail validation")
	}
}

func TestScheduleConfig_RejectsOutOfRangeTimes(t *testing.T) {
	cfg := ScheduleConfig{
		Enabled: true,
		Times:   []ScheduleTime{{Hour: 25, Minute: 0, Enabled: true}},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("hour 25 should fail validation")
	}
	if !strings.Contains(err.Error(), "schedule time 0") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNotifyConfig_EnabledWithoutTransport(t *testing.T) {
	cfg := NotifyConfig{Enabled: true}
	if err := cfg.Validate(); err == nil {
		t.Fatal("enabled notify without any transport should fail")
	}
}

func TestNotifyConfig_TelegramOnly(t *testing.T) {
	cfg := NotifyConfig{
		Enabled:  true,
		Telegram: TelegramConfig{BotToken: "123:abc", ChatID: "42"},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("telegram-only notify should pass: %v", err)
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestPatrolConfig_Settings(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Patrol.TimeMinutes = 7
	cfg.Patrol.TestMultiplier = 0.1

	s := cfg.Patrol.Settings(true)
	if s.PatrolTimeMinutes != 7 {
		t.Errorf("PatrolTimeMinutes = %d, want 7", s.PatrolTimeMinutes)
	}
	if s.TestMultiplier != 0.1 {
		t.Errorf("TestMultiplier = %v, want 0.1", s.TestMultiplier)
	}
	if !s.NotificationsEnabled {
		t.Error("NotificationsEnabled should carry through")
	}
}
