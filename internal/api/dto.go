package api

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ronda/internal/models"
)

// CheckpointRequest is the request body for creating or updating a checkpoint.
type CheckpointRequest struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters"`
	TimeMinutes  int     `json:"time_minutes"`
}

// Validate validates the checkpoint payload. RadiusMeters and TimeMinutes
// of 0 are allowed and mean "use the configured default".
func (r *CheckpointRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Latitude, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&r.Longitude, validation.Min(-180.0), validation.Max(180.0)),
		validation.Field(&r.RadiusMeters, validation.Min(0.0), validation.Max(100000.0)),
		validation.Field(&r.TimeMinutes, validation.Min(0), validation.Max(24*60)),
	)
}

// VerifyRequest optionally carries the guard's position. Without
// coordinates the verification is manual; with them it is geofence-checked.
type VerifyRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// PositionRequest is one location sample from the location provider.
type PositionRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  float64  `json:"accuracy"`
}

// Validate validates the position payload.
func (r *PositionRequest) Validate() error {
	if r.Latitude == nil || r.Longitude == nil {
		return fmt.Errorf("latitude and longitude are required")
	}
	if *r.Latitude < -90 || *r.Latitude > 90 {
		return fmt.Errorf("latitude out of range")
	}
	if *r.Longitude < -180 || *r.Longitude > 180 {
		return fmt.Errorf("longitude out of range")
	}
	return nil
}

// SettingsRequest is the request body for replacing runtime patrol settings.
type SettingsRequest struct {
	PatrolTimeMinutes    int     `json:"patrol_time_minutes"`
	ProximityMeters      float64 `json:"proximity_meters"`
	NotificationsEnabled bool    `json:"notifications_enabled"`
	TestMultiplier       float64 `json:"test_multiplier"`
}

// Validate validates the settings payload.
func (r *SettingsRequest) Validate() error {
	if err := validation.ValidateStruct(r,
		validation.Field(&r.PatrolTimeMinutes, validation.Required, validation.Min(1)),
		validation.Field(&r.ProximityMeters, validation.Required, validation.Min(1.0)),
	); err != nil {
		return err
	}
	if r.TestMultiplier <= 0 || r.TestMultiplier > 1 {
		return fmt.Errorf("test_multiplier must be in (0, 1]")
	}
	return nil
}

// Settings converts the payload into the engine's settings type.
func (r *SettingsRequest) Settings() models.PatrolSettings {
	return models.PatrolSettings{
		PatrolTimeMinutes:    r.PatrolTimeMinutes,
		ProximityMeters:      r.ProximityMeters,
		NotificationsEnabled: r.NotificationsEnabled,
		TestMultiplier:       r.TestMultiplier,
	}
}

// CheckpointListResponse wraps checkpoint listings.
type CheckpointListResponse struct {
	Checkpoints []models.Checkpoint `json:"checkpoints"`
	Total       int                 `json:"total"`
}

// LogListResponse wraps audit log listings.
type LogListResponse struct {
	Logs []models.LogEntry `json:"logs"`
}

// PositionResponse reports which checkpoints a sample verified.
type PositionResponse struct {
	Verified []string `json:"verified"`
}
