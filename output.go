package gitversion

import (
	"fmt"
	"strings"
)

// Field is one requested value of a ResolvedVersion
type Field struct {
	// Name is the output name accepted by ParseOutputs
	Name string
	// Key is the upper-case suffix used for environment style output
	Key   string
	Value any
}

type outputField struct {
	flag  Output
	name  string
	key   string
	value func(*ResolvedVersion) any
}

var outputFields = []outputField{
	{OutputVersion, "version", "VERSION", func(v *ResolvedVersion) any { return v.ShortVersion }},
	{OutputFullVersion, "full-version", "FULL_VERSION", func(v *ResolvedVersion) any { return v.FullVersion }},
	{OutputMajor, "major", "VERSION_MAJOR", func(v *ResolvedVersion) any { return v.Triple.Major }},
	{OutputMinor, "minor", "VERSION_MINOR", func(v *ResolvedVersion) any { return v.Triple.Minor }},
	{OutputPatch, "patch", "VERSION_PATCH", func(v *ResolvedVersion) any { return v.Triple.Patch }},
	{OutputTagged, "tagged", "IS_TAGGED", func(v *ResolvedVersion) any { return v.IsTagged }},
	{OutputDevelopment, "development", "IS_DEVELOPMENT", func(v *ResolvedVersion) any { return v.IsDevelopment }},
	{OutputDirty, "dirty", "IS_DIRTY", func(v *ResolvedVersion) any { return v.IsDirty }},
	{OutputTagName, "tag", "TAG_NAME", func(v *ResolvedVersion) any { return v.TagName }},
	{OutputCommitHash, "commit", "COMMIT_HASH", func(v *ResolvedVersion) any { return v.CommitHash }},
	{OutputCommitsSinceTag, "commits-since-tag", "COMMITS_SINCE_TAG", func(v *ResolvedVersion) any {
		if v.CommitsSinceTag == nil {
			return nil
		}
		return *v.CommitsSinceTag
	}},
	{OutputBranch, "branch", "BRANCH", func(v *ResolvedVersion) any { return v.Branch }},
}

// OutputNames lists every name ParseOutputs accepts, in output order
func OutputNames() []string {
	names := make([]string, 0, len(outputFields))
	for _, f := range outputFields {
		names = append(names, f.name)
	}
	return names
}

// ParseOutputs converts output names into an Output set. Empty names are
// skipped, so an all-empty list yields zero.
func ParseOutputs(names []string) (Output, error) {
	var out Output
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}

		found := false
		for _, f := range outputFields {
			if f.name == name {
				out |= f.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown output %q (valid: %s)", name, strings.Join(OutputNames(), ", "))
		}
	}
	return out, nil
}

// Fields returns the requested values in a stable order
func (v *ResolvedVersion) Fields(o Output) []Field {
	var fields []Field
	for _, f := range outputFields {
		if o.Has(f.flag) {
			fields = append(fields, Field{Name: f.name, Key: f.key, Value: f.value(v)})
		}
	}
	return fields
}
