package gitversion

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingOutput is returned when Options.Outputs requests no field
	ErrMissingOutput = errors.New("no output requested")

	// ErrMalformedDefault is returned when the default version is not MAJOR.MINOR.PATCH
	ErrMalformedDefault = errors.New("malformed default version")

	// ErrVersionMismatch is returned when FailOnMismatch is set and the
	// default version disagrees with the tag found in history
	ErrVersionMismatch = errors.New("version mismatch")
)

// ConfigErrorKind identifies which configuration rule was violated
type ConfigErrorKind int

const (
	MissingOutput ConfigErrorKind = iota + 1
	MalformedDefault
)

func (k ConfigErrorKind) String() string {
	switch k {
	case MissingOutput:
		return "MissingOutput"
	case MalformedDefault:
		return "MalformedDefault"
	default:
		return fmt.Sprintf("ConfigErrorKind(%d)", int(k))
	}
}

// ConfigError is a fatal caller mistake detected before the repository
// data is looked at.
type ConfigError struct {
	Kind  ConfigErrorKind
	Value string
}

func (e *ConfigError) Error() string {
	switch e.Kind {
	case MissingOutput:
		return "at least one of version, full version, major, minor or patch must be requested"
	case MalformedDefault:
		return fmt.Sprintf("default version %q does not match MAJOR.MINOR.PATCH", e.Value)
	default:
		return fmt.Sprintf("configuration error: %s", e.Kind)
	}
}

func (e *ConfigError) Unwrap() error {
	switch e.Kind {
	case MissingOutput:
		return ErrMissingOutput
	case MalformedDefault:
		return ErrMalformedDefault
	default:
		return nil
	}
}

// MismatchRule names the relationship a MismatchError violated
type MismatchRule string

const (
	// RuleExact requires the default to equal an exact tag
	RuleExact MismatchRule = "equal"
	// RuleAtLeast requires the default to be >= the tag a development build descends from
	RuleAtLeast MismatchRule = "greater than or equal"
)

// MismatchError reports a default version that disagrees with the tag
type MismatchError struct {
	Rule    MismatchRule
	Default VersionTriple
	Tag     VersionTriple
	TagName string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("default version %s is not %s to tag %s (%s)",
		e.Default, e.Rule, e.Tag, e.TagName)
}

func (e *MismatchError) Unwrap() error {
	return ErrVersionMismatch
}
