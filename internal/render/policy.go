package render

import (
	"errors"
	"fmt"
	"strings"
)

// Policy selects a renderer implementation.
type Policy string

const (
	PolicyStructural Policy = "structural"
	PolicyLegacy     Policy = "legacy"
)

var ErrUnknownPolicy = errors.New("unknown render policy")

// ParsePolicy accepts a policy name, case-insensitively. Empty means
// structural.
func ParsePolicy(name string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(name))); p {
	case "", PolicyStructural:
		return PolicyStructural, nil
	case PolicyLegacy:
		return PolicyLegacy, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// New returns the renderer for p.
func New(p Policy) (Renderer, error) {
	p, err := ParsePolicy(string(p))
	if err != nil {
		return nil, err
	}
	if p == PolicyLegacy {
		return Legacy{}, nil
	}
	return NewStructural(), nil
}
