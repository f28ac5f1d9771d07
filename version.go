package gitversion

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// DefaultVersion is used when Options.DefaultVersion is empty
	DefaultVersion = "0.0.0"

	// DefaultHashLength is used when Options.HashLength is zero
	DefaultHashLength = 9

	// MaxHashLength is the length of a full SHA-1 hex digest
	MaxHashLength = 40
)

var defaultVersionRe = regexp.MustCompile(`^(\d+\.\d+\.\d+)`)

// Resolve derives the project version from a repository query result.
//
// Only configuration mistakes and, when opts.FailOnMismatch is set, a
// default that disagrees with the tag are returned as errors. A missing
// repository, a failed query and unrecognized describe text all fall back
// to the default version.
func Resolve(opts Options, result DescribeResult) (*ResolvedVersion, error) {
	if opts.Outputs&OutputVersionFields == 0 {
		return nil, &ConfigError{Kind: MissingOutput}
	}

	defaultVersion := opts.DefaultVersion
	if defaultVersion == "" {
		defaultVersion = DefaultVersion
	}

	defaultTriple, err := ParseDefaultVersion(defaultVersion)
	if err != nil {
		return nil, err
	}

	r := resolver{
		opts:           opts,
		logger:         loggerOrDiscard(opts.Logger),
		defaultVersion: defaultVersion,
		defaultTriple:  defaultTriple,
		hashLength:     ClampHashLength(opts.HashLength),
	}

	switch res := result.(type) {
	case nil:
		r.logger.Info("no repository data, using default version", "default", defaultVersion)
		return r.untagged("", "", false), nil
	case NotAvailable:
		r.logger.Info("repository not available, using default version",
			"default", defaultVersion, "reason", res.Reason)
		return r.untagged("", "", false), nil
	case QueryFailed:
		r.logger.Warn("describe failed, using default version",
			"default", defaultVersion, "error", res.ErrorText)
		return r.untagged(res.CommitHash, res.Branch, res.Dirty), nil
	case Described:
		return r.described(res)
	default:
		r.logger.Warn("unknown repository result, using default version", "default", defaultVersion)
		return r.untagged("", "", false), nil
	}
}

// ParseDefaultVersion checks that s starts with MAJOR.MINOR.PATCH and
// returns the numeric part. Anything after the triple is ignored here.
func ParseDefaultVersion(s string) (VersionTriple, error) {
	m := defaultVersionRe.FindStringSubmatch(s)
	if m == nil {
		return VersionTriple{}, &ConfigError{Kind: MalformedDefault, Value: s}
	}

	v, err := parseTriple(m[1])
	if err != nil {
		return VersionTriple{}, &ConfigError{Kind: MalformedDefault, Value: s}
	}

	return v, nil
}

// ClampHashLength maps a configured hash length onto [1,40]. Zero selects
// DefaultHashLength and anything else out of range selects 40.
func ClampHashLength(n int) int {
	switch {
	case n == 0:
		return DefaultHashLength
	case n < 1 || n > MaxHashLength:
		return MaxHashLength
	default:
		return n
	}
}

type resolver struct {
	opts           Options
	logger         logger
	defaultVersion string
	defaultTriple  VersionTriple
	hashLength     int
}

func (r resolver) described(res Described) (*ResolvedVersion, error) {
	switch c := classifyDescribe(res.RawText, r.opts.Prefix).(type) {
	case exactTag:
		if err := r.crossCheck(c.name, c.version, RuleExact); err != nil {
			return nil, err
		}

		full := c.text
		if res.Dirty {
			full += "-dirty"
		}

		return &ResolvedVersion{
			Triple:          c.version,
			ShortVersion:    c.text,
			FullVersion:     full,
			IsTagged:        true,
			IsDirty:         res.Dirty,
			TagName:         c.name,
			CommitHash:      r.truncate(res.CommitHash),
			CommitsSinceTag: intPtr(0),
			Branch:          res.Branch,
		}, nil

	case developmentTag:
		if err := r.crossCheck(c.name, c.version, RuleAtLeast); err != nil {
			return nil, err
		}

		hash := r.truncate(c.hash)
		build := hash
		if res.Dirty {
			build += ".dirty"
		}

		return &ResolvedVersion{
			Triple:          c.version,
			ShortVersion:    c.text,
			FullVersion:     c.text + "-dev." + strconv.Itoa(c.count) + "+" + build,
			IsTagged:        true,
			IsDevelopment:   true,
			IsDirty:         res.Dirty,
			TagName:         c.name,
			CommitHash:      hash,
			CommitsSinceTag: intPtr(c.count),
			Branch:          res.Branch,
		}, nil

	case unrecognized:
		r.logger.Warn("unrecognized describe output, using default version",
			"output", c.text, "reason", c.reason, "default", r.defaultVersion)
		return r.untagged(res.CommitHash, res.Branch, res.Dirty), nil
	}

	// classifyDescribe has no other outcomes
	return r.untagged(res.CommitHash, res.Branch, res.Dirty), nil
}

// crossCheck compares the default against a tag found in history
func (r resolver) crossCheck(name string, tag VersionTriple, rule MismatchRule) error {
	cmp := r.defaultTriple.Compare(tag)

	ok := cmp == 0
	if rule == RuleAtLeast {
		ok = cmp >= 0
	}
	if ok {
		return nil
	}

	err := &MismatchError{Rule: rule, Default: r.defaultTriple, Tag: tag, TagName: name}
	if r.opts.FailOnMismatch {
		return err
	}

	r.logger.Warn("default version disagrees with tag, using tag", "detail", err.Error())
	return nil
}

// untagged builds the result for every path where no tag resolved
func (r resolver) untagged(commitHash, branch string, dirty bool) *ResolvedVersion {
	hash := r.truncate(commitHash)

	full := r.defaultVersion
	if hash != "" {
		build := hash
		if dirty {
			build += ".dirty"
		}
		full = appendBuildMetadata(full, build)
	}

	return &ResolvedVersion{
		Triple:       r.defaultTriple,
		ShortVersion: r.defaultTriple.String(),
		FullVersion:  full,
		IsDirty:      dirty,
		CommitHash:   hash,
		Branch:       branch,
	}
}

func (r resolver) truncate(hash string) string {
	if len(hash) > r.hashLength {
		return hash[:r.hashLength]
	}
	return hash
}

// appendBuildMetadata adds meta to the +build segment of version, creating
// the segment when version has none.
func appendBuildMetadata(version, meta string) string {
	if strings.Contains(version, "+") {
		return version + "." + meta
	}
	return version + "+" + meta
}

func intPtr(n int) *int {
	return &n
}
