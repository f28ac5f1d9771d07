// Package gitversion derives a project's semantic version from the tag and
// commit history of its Git repository.
//
// This file contains code adapted from pulumictl (https://github.com/pulumi/pulumictl)
// which is licensed under the Apache License 2.0.
package gitversion

import (
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"sort"
	"strings"

	"github.com/blang/semver"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// errNoNames matches the wording git describe uses when no tag is reachable
const errNoNames = "no names found, cannot describe anything"

// DescribeOptions configures the repository query
type DescribeOptions struct {
	// Commitish specifies which commit to describe (default: "HEAD")
	Commitish plumbing.Revision

	// Prefix restricts candidate tags to those starting with it
	Prefix string

	// Abbrev is the hash length used in describe text, clamped like
	// Options.HashLength
	Abbrev int
}

// OpenRepository opens a Git repository at the specified path, searching
// parent directories for the .git directory.
func OpenRepository(path string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
}

// DescribePath opens the repository containing path and describes it.
// A path outside any repository yields NotAvailable.
func DescribePath(path string, opts DescribeOptions) DescribeResult {
	repo, err := OpenRepository(path)
	if err != nil {
		return NotAvailable{Reason: fmt.Sprintf("opening repository at %s: %v", path, err)}
	}
	return Describe(repo, opts)
}

// Describe produces describe-style text for the nearest tag reachable from
// opts.Commitish, in the shape of `git describe --tags --match=<prefix>*.*.*`.
// When no tag is reachable it still reports the commit hash so callers can
// build a hash-qualified fallback version.
func Describe(repo *git.Repository, opts DescribeOptions) DescribeResult {
	if repo == nil {
		return NotAvailable{Reason: "repository is required"}
	}

	commitish := opts.Commitish
	if commitish == "" {
		commitish = "HEAD"
	}

	revision, err := repo.ResolveRevision(commitish)
	if err != nil {
		return QueryFailed{ErrorText: fmt.Sprintf("resolving %s: %v", commitish, err)}
	}

	branch := ""
	if commitish == "HEAD" {
		branch = currentBranch(repo)
	}

	dirty, err := workTreeIsDirty(repo)
	if err != nil {
		return QueryFailed{
			ErrorText:  fmt.Sprintf("checking if worktree is dirty: %v", err),
			CommitHash: revision.String(),
			Branch:     branch,
		}
	}

	fallback := func(text string) QueryFailed {
		return QueryFailed{ErrorText: text, CommitHash: revision.String(), Branch: branch, Dirty: dirty}
	}

	tags, err := matchingTags(repo, opts.Prefix)
	if err != nil {
		return fallback(fmt.Sprintf("listing tags: %v", err))
	}

	name, distance, found, err := nearestTag(repo, *revision, tags)
	if err != nil {
		return fallback(fmt.Sprintf("finding nearest tag: %v", err))
	}
	if !found {
		return fallback(errNoNames)
	}

	raw := name
	if distance > 0 {
		raw = fmt.Sprintf("%s-%d-g%s", name, distance, revision.String()[:ClampHashLength(opts.Abbrev)])
	}

	return Described{
		RawText:    raw,
		CommitHash: revision.String(),
		Branch:     branch,
		Dirty:      dirty,
	}
}

// tagGlob is the equivalent of git's --match=<prefix>*.*.*
func tagGlob(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `.*\..*\..*$`)
}

// matchingTags maps each tagged commit to the names of its matching tags.
// Annotated tags are peeled to the commit they point at.
func matchingTags(repo *git.Repository, prefix string) (map[plumbing.Hash][]string, error) {
	refs, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	glob := tagGlob(prefix)
	tags := make(map[plumbing.Hash][]string)
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}

		name := ref.Name().Short()
		if !glob.MatchString(name) {
			return nil
		}

		obj, err := repo.TagObject(ref.Hash())
		switch err {
		case nil:
			// Annotated tag
			commit, err := obj.Commit()
			if err != nil {
				// points at something other than a commit
				return nil
			}
			tags[commit.Hash] = append(tags[commit.Hash], name)
		case plumbing.ErrObjectNotFound:
			// Lightweight tag
			tags[ref.Hash()] = append(tags[ref.Hash()], name)
		default:
			return err
		}

		return nil
	})

	return tags, err
}

// nearestTag walks history breadth-first from start and returns the first
// tagged commit's tag along with the number of commits reachable from start
// but not from the tag.
func nearestTag(repo *git.Repository, start plumbing.Hash,
	tags map[plumbing.Hash][]string) (string, int, bool, error) {

	if len(tags) == 0 {
		return "", 0, false, nil
	}

	head, err := repo.CommitObject(start)
	if err != nil {
		return "", 0, false, fmt.Errorf("getting commit object: %w", err)
	}

	var tagged *object.Commit
	err = object.NewCommitIterBSF(head, nil, nil).ForEach(func(c *object.Commit) error {
		if _, ok := tags[c.Hash]; ok {
			tagged = c
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return "", 0, false, fmt.Errorf("walking history: %w", err)
	}
	if tagged == nil {
		return "", 0, false, nil
	}

	name := preferredTag(tags[tagged.Hash])
	if tagged.Hash == start {
		return name, 0, true, nil
	}

	released := make(map[plumbing.Hash]bool)
	err = object.NewCommitPreorderIter(tagged, nil, nil).ForEach(func(c *object.Commit) error {
		released[c.Hash] = true
		return nil
	})
	if err != nil {
		return "", 0, false, fmt.Errorf("walking tag history: %w", err)
	}

	distance := 0
	err = object.NewCommitPreorderIter(head, released, nil).ForEach(func(*object.Commit) error {
		distance++
		return nil
	})
	if err != nil {
		return "", 0, false, fmt.Errorf("counting commits since %s: %w", name, err)
	}

	return name, distance, true, nil
}

// preferredTag picks the highest version among tags on the same commit,
// falling back to name order for tags that do not parse.
func preferredTag(names []string) string {
	sorted := append([]string(nil), names...)
	sort.SliceStable(sorted, func(i, j int) bool {
		vi, erri := semver.ParseTolerant(tagVersionText(sorted[i]))
		vj, errj := semver.ParseTolerant(tagVersionText(sorted[j]))
		switch {
		case erri == nil && errj == nil && !vi.EQ(vj):
			return vi.GT(vj)
		case erri == nil && errj != nil:
			return true
		case erri != nil && errj == nil:
			return false
		default:
			return sorted[i] < sorted[j]
		}
	})
	return sorted[0]
}

// tagVersionText strips everything before the first digit of a tag name
func tagVersionText(name string) string {
	if i := strings.IndexAny(name, "0123456789"); i > 0 {
		return name[i:]
	}
	return name
}

func currentBranch(repo *git.Repository) string {
	head, err := repo.Head()
	if err != nil || !head.Name().IsBranch() {
		return ""
	}
	return head.Name().Short()
}

func workTreeIsDirty(repo *git.Repository) (bool, error) {
	workTree, err := repo.Worktree()
	if errors.Is(err, git.ErrIsBareRepository) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("getting worktree: %w", err)
	}

	// Fast path for filesystem storage when the git executable is present
	if _, ok := repo.Storer.(*filesystem.Storage); ok {
		if _, err := exec.LookPath("git"); err == nil {
			return checkDirtyWithGitCommand(workTree.Filesystem.Root())
		}
	}

	// Fallback to go-git status check. Untracked files do not count, matching
	// git diff-index above.
	status, err := workTree.Status()
	if err != nil {
		return false, fmt.Errorf("getting git status: %w", err)
	}

	for _, fileStatus := range status {
		if fileStatus.Staging == git.Untracked && fileStatus.Worktree == git.Untracked {
			continue
		}
		if fileStatus.Staging != git.Unmodified || fileStatus.Worktree != git.Unmodified {
			return true, nil
		}
	}
	return false, nil
}

func checkDirtyWithGitCommand(repoPath string) (bool, error) {
	// Refresh index first
	cmd := exec.Command("git", "update-index", "-q", "--refresh")
	cmd.Dir = repoPath
	if err := cmd.Run(); err != nil {
		// If update-index fails, assume dirty
		return true, nil
	}

	cmd = exec.Command("git", "diff-index", "--quiet", "HEAD", "--")
	cmd.Dir = repoPath
	err := cmd.Run()
	if err == nil {
		return false, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return true, nil
	}
	return false, fmt.Errorf("running git diff-index: %w", err)
}
