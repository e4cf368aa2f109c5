package chain

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownFaultTolerance is returned when parsing an unrecognised policy name.
var ErrUnknownFaultTolerance = errors.New("unknown fault tolerance")

// FaultTolerance decides whether a Chain keeps running after a step fails.
type FaultTolerance int

const (
	// Strict stops at the first failing step. This is the default.
	Strict FaultTolerance = iota

	// Lenient runs every step and joins all failure messages.
	Lenient

	// BestEffort runs every step and joins all failure messages.
	// It currently behaves exactly like Lenient.
	BestEffort
)

// String returns the configuration name of the policy.
func (p FaultTolerance) String() string {
	switch p {
	case Strict:
		return "strict"
	case Lenient:
		return "lenient"
	case BestEffort:
		return "bestEffort"
	default:
		return "unknown"
	}
}

// IsValid reports whether p is one of the defined policies.
func (p FaultTolerance) IsValid() bool {
	return p >= Strict && p <= BestEffort
}

// ContinuesOnFailure reports whether the remaining steps run after a failure.
func (p FaultTolerance) ContinuesOnFailure() bool {
	return p == Lenient || p == BestEffort
}

// ParseFaultTolerance converts a configuration name into a FaultTolerance.
// Matching is case-insensitive and accepts "best_effort" and "best-effort".
func ParseFaultTolerance(s string) (FaultTolerance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	case "besteffort", "best_effort", "best-effort":
		return BestEffort, nil
	default:
		return Strict, fmt.Errorf("%w: %q (valid: strict, lenient, bestEffort)", ErrUnknownFaultTolerance, s)
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *FaultTolerance) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseFaultTolerance(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (p FaultTolerance) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}
