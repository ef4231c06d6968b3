package errors

import (
	"math"
	"strings"
	"unicode"
)

// endpointSchemes lists the URL schemes accepted by the render transports.
var endpointSchemes = []string{"tcp://", "ipc://", "inproc://", "ws://", "redis://", "rediss://"}

// ValidateEndpoint validates a transport endpoint string.
// It requires a known scheme and rejects control characters.
func ValidateEndpoint(endpoint string) error {
	if endpoint == "" {
		return New(ErrCodeInvalidEndpoint, "endpoint cannot be empty")
	}

	for _, r := range endpoint {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidEndpoint, "endpoint contains invalid control characters")
		}
	}

	for _, scheme := range endpointSchemes {
		if strings.HasPrefix(endpoint, scheme) {
			if len(endpoint) == len(scheme) {
				return New(ErrCodeInvalidEndpoint, "endpoint %q has no address", endpoint)
			}
			return nil
		}
	}
	return New(ErrCodeInvalidEndpoint, "unsupported endpoint scheme: %q", endpoint)
}

// ValidateUnitInterval checks that a named value lies in [0, 1].
// NaN is rejected.
func ValidateUnitInterval(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return New(ErrCodeInvalidConfig, "%s must be in [0, 1], got %v", name, v)
	}
	return nil
}

// ValidateNonNegative checks that a named value is finite and >= 0.
func ValidateNonNegative(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return New(ErrCodeInvalidConfig, "%s must be a finite non-negative number, got %v", name, v)
	}
	return nil
}

// ValidateFinite checks that a named value is a finite number.
func ValidateFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidConfig, "%s must be finite, got %v", name, v)
	}
	return nil
}
