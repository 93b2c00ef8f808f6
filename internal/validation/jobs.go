package validation

import (
	"fmt"
	"time"

	"github.com/altafino/schedkit/internal/types"
)

var validFrequencies = map[string]bool{
	"minute": true,
	"hour":   true,
	"day":    true,
	"week":   true,
	"month":  true,
}

// ValidateJob performs validation on a single job definition.
func ValidateJob(def *types.JobDefinition) error {
	if err := validateName(def); err != nil {
		return fmt.Errorf("name validation failed: %w", err)
	}

	if err := validateSchedule(def); err != nil {
		return fmt.Errorf("schedule validation failed: %w", err)
	}

	if err := validateCommand(def); err != nil {
		return fmt.Errorf("command validation failed: %w", err)
	}

	return nil
}

func validateName(def *types.JobDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("name is required")
	}

	if !isValidID(def.Name) {
		return fmt.Errorf("name contains invalid characters (use only alphanumeric, dash, underscore)")
	}

	return nil
}

func validateSchedule(def *types.JobDefinition) error {
	if !validFrequencies[def.Schedule.FrequencyEvery] {
		return fmt.Errorf("frequency_every must be one of minute, hour, day, week, month")
	}

	if def.Schedule.FrequencyAmount <= 0 {
		return fmt.Errorf("frequency_amount must be positive")
	}

	if def.Schedule.StartAt != "" {
		if _, err := time.Parse(time.RFC3339, def.Schedule.StartAt); err != nil {
			return fmt.Errorf("start_at must be a valid RFC3339 timestamp: %w", err)
		}
	}

	if def.Schedule.StopAt != "" {
		if _, err := time.Parse(time.RFC3339, def.Schedule.StopAt); err != nil {
			return fmt.Errorf("stop_at must be a valid RFC3339 timestamp: %w", err)
		}
	}

	return nil
}

func validateCommand(def *types.JobDefinition) error {
	if def.Command.Run == "" {
		return fmt.Errorf("command.run is required")
	}

	if def.Command.Timeout < 0 {
		return fmt.Errorf("command.timeout must not be negative")
	}

	return nil
}

func isValidID(id string) bool {
	for _, r := range id {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			continue
		}
		return false
	}
	return true
}
