// Package gitversion derives a project's semantic version from the tag and
// commit history of its Git repository.
//
// The repository is queried once for describe-style text (nearest tag,
// commits since that tag, abbreviated hash) and the text is then resolved
// against a caller-supplied default version into a ResolvedVersion.
package gitversion

import (
	"fmt"
	"log/slog"

	"github.com/blang/semver"
)

// VersionTriple is the numeric MAJOR.MINOR.PATCH part of a version
type VersionTriple struct {
	Major uint64 `json:"major" yaml:"major"`
	Minor uint64 `json:"minor" yaml:"minor"`
	Patch uint64 `json:"patch" yaml:"patch"`
}

// String renders the triple as MAJOR.MINOR.PATCH
func (v VersionTriple) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or 1 comparing v to o field by field.
func (v VersionTriple) Compare(o VersionTriple) int {
	return v.semver().Compare(o.semver())
}

func (v VersionTriple) semver() semver.Version {
	return semver.Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch}
}

// Output selects which fields of a ResolvedVersion the caller intends to
// consume. At least one of the version fields must be requested.
type Output uint

const (
	OutputVersion Output = 1 << iota
	OutputFullVersion
	OutputMajor
	OutputMinor
	OutputPatch
	OutputTagged
	OutputDevelopment
	OutputDirty
	OutputTagName
	OutputCommitHash
	OutputCommitsSinceTag
	OutputBranch

	// OutputVersionFields are the fields of which at least one is required
	OutputVersionFields = OutputVersion | OutputFullVersion | OutputMajor | OutputMinor | OutputPatch

	// OutputAll requests every field
	OutputAll = OutputBranch<<1 - 1
)

// Has reports whether o includes every bit of f
func (o Output) Has(f Output) bool {
	return o&f == f
}

// Options configures version resolution
type Options struct {
	// Outputs lists the fields the caller will consume (required)
	Outputs Output

	// DefaultVersion seeds the version when no tag resolves (default: "0.0.0").
	// It must start with MAJOR.MINOR.PATCH; trailing text is kept in the
	// full version.
	DefaultVersion string

	// Prefix is literal text required before the numeric tag. When empty an
	// optional leading "v" is accepted.
	Prefix string

	// HashLength truncates displayed commit hashes. 0 selects
	// DefaultHashLength; values outside [0,40] behave like 40.
	HashLength int

	// FailOnMismatch turns a tag/default divergence into an error
	FailOnMismatch bool

	// Logger receives diagnostics about fallback paths. nil discards them.
	Logger *slog.Logger
}

// ResolvedVersion is the result of a resolution. It is never mutated after
// Resolve returns it.
type ResolvedVersion struct {
	Triple          VersionTriple `json:"triple" yaml:"triple"`
	ShortVersion    string        `json:"version" yaml:"version"`
	FullVersion     string        `json:"fullVersion" yaml:"fullVersion"`
	IsTagged        bool          `json:"isTagged" yaml:"isTagged"`
	IsDevelopment   bool          `json:"isDevelopment" yaml:"isDevelopment"`
	IsDirty         bool          `json:"isDirty" yaml:"isDirty"`
	TagName         string        `json:"tagName,omitempty" yaml:"tagName,omitempty"`
	CommitHash      string        `json:"commitHash,omitempty" yaml:"commitHash,omitempty"`
	CommitsSinceTag *int          `json:"commitsSinceTag,omitempty" yaml:"commitsSinceTag,omitempty"`
	Branch          string        `json:"branch,omitempty" yaml:"branch,omitempty"`
}

// DescribeResult is what the repository query produced. It is one of
// NotAvailable, QueryFailed or Described.
type DescribeResult interface {
	describeResult()
}

// NotAvailable means there is no repository to query, or no tool to query it
type NotAvailable struct {
	Reason string
}

// QueryFailed means the repository exists but describe produced nothing
// usable. CommitHash, Branch and Dirty are filled in when the query could
// still obtain them.
type QueryFailed struct {
	ErrorText  string
	CommitHash string
	Branch     string
	Dirty      bool
}

// Described carries raw describe output such as "v1.2.3" or
// "v1.2.3-5-gabc1234f9", plus the optional working tree signals.
type Described struct {
	RawText    string
	CommitHash string
	Branch     string
	Dirty      bool
}

func (NotAvailable) describeResult() {}
func (QueryFailed) describeResult()  {}
func (Described) describeResult()    {}
