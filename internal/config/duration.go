package config

import (
	"fmt"
	"strings"
	"time"
)

// Duration fields in the config file (telegram.poll_timeout, the notify
// backoff knobs, storage.busy_timeout) are Go duration strings like "500ms"
// or "10s"; empty means unset.

// ParseDurationField parses raw, naming the config path in any error.
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

// ParseDurationOrDefault substitutes def for empty or zero fields, so a
// config that omits a timeout gets the built-in rather than 0.
func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
