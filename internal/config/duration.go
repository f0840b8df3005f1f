package config

import (
	"fmt"
	"strings"
	"time"
)

// DurationOrDefault parses a duration string and falls back to defaultValue when empty.
func DurationOrDefault(value string, defaultValue string) (time.Duration, error) {
	candidate := strings.TrimSpace(value)
	if candidate == "" {
		candidate = strings.TrimSpace(defaultValue)
	}
	if candidate == "" {
		return 0, fmt.Errorf("duration value is empty")
	}

	d, err := time.ParseDuration(candidate)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", candidate, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q must not be negative", candidate)
	}
	return d, nil
}

// DialogTTL is how long an idle guided-creation dialog survives.
func (c DialogConfig) DialogTTL() (time.Duration, error) {
	return DurationOrDefault(c.TTL, DefaultDialogTTL)
}

// ActionTimeout is the lifetime of a staged action before it expires.
func (c ActionsConfig) ActionTimeout() (time.Duration, error) {
	return DurationOrDefault(c.Timeout, DefaultActionsTimeout)
}

// RetentionPeriod is how long terminal actions are kept before purge.
func (c ActionsConfig) RetentionPeriod() (time.Duration, error) {
	return DurationOrDefault(c.Retention, DefaultActionsRetention)
}

func (c ITSMConfig) RequestTimeout() (time.Duration, error) {
	return DurationOrDefault(c.Timeout, DefaultITSMTimeout)
}

func (c ModelsConfig) RequestTimeout() (time.Duration, error) {
	return DurationOrDefault(c.Timeout, DefaultModelTimeout)
}
