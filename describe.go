package gitversion

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// classification is the typed outcome of matching describe text
type classification interface {
	classification()
}

// text is the tag's numeric part exactly as written, version its parsed form
type exactTag struct {
	name    string
	text    string
	version VersionTriple
}

type developmentTag struct {
	name    string
	text    string
	version VersionTriple
	count   int
	hash    string
}

type unrecognized struct {
	text   string
	reason string
}

func (exactTag) classification()       {}
func (developmentTag) classification() {}
func (unrecognized) classification()   {}

// describePattern pairs a compiled shape with the constructor for its captures
type describePattern struct {
	re    *regexp.Regexp
	build func(m []string) (classification, error)
}

// describePatterns returns the recognized shapes in the order they are tried.
// Group 1 is always the tag name, group 2 the numeric version.
func describePatterns(prefix string) []describePattern {
	tag := `(v?(\d+\.\d+\.\d+))`
	if prefix != "" {
		tag = `(` + regexp.QuoteMeta(prefix) + `(\d+\.\d+\.\d+))`
	}

	return []describePattern{
		{
			re: regexp.MustCompile(`^` + tag + `$`),
			build: func(m []string) (classification, error) {
				v, err := parseTriple(m[2])
				if err != nil {
					return nil, err
				}
				return exactTag{name: m[1], text: m[2], version: v}, nil
			},
		},
		{
			re: regexp.MustCompile(`^` + tag + `-(\d+)-g([0-9a-f]+)$`),
			build: func(m []string) (classification, error) {
				v, err := parseTriple(m[2])
				if err != nil {
					return nil, err
				}
				count, err := strconv.Atoi(m[3])
				if err != nil {
					return nil, fmt.Errorf("commit count %q: %w", m[3], err)
				}
				return developmentTag{name: m[1], text: m[2], version: v, count: count, hash: m[4]}, nil
			},
		},
	}
}

// classifyDescribe matches raw describe output against the known shapes
func classifyDescribe(raw, prefix string) classification {
	text := strings.TrimSpace(raw)
	if text == "" {
		return unrecognized{text: raw, reason: "empty describe output"}
	}

	for _, p := range describePatterns(prefix) {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		c, err := p.build(m)
		if err != nil {
			return unrecognized{text: text, reason: err.Error()}
		}
		return c
	}

	return unrecognized{text: text, reason: "does not match a version tag"}
}

// parseTriple converts "MAJOR.MINOR.PATCH" into its numeric parts
func parseTriple(s string) (VersionTriple, error) {
	parts := strings.SplitN(s, ".", 3)
	if len(parts) != 3 {
		return VersionTriple{}, fmt.Errorf("version must have exactly 3 parts: %q", s)
	}

	var nums [3]uint64
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return VersionTriple{}, fmt.Errorf("parsing %q: %w", s, err)
		}
		nums[i] = n
	}

	return VersionTriple{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}
