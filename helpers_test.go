package gitversion

import (
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
)

var testSignature = &object.Signature{
	Name:  "test",
	Email: "test@example.com",
	When:  time.Now(),
}

// testRepoCreate creates a new in-memory git repository for testing
func testRepoCreate() (*git.Repository, error) {
	storage := memory.NewStorage()
	fs := memfs.New()
	return git.Init(storage, fs)
}

// testCommit writes filename and commits it, returning the commit hash
func testCommit(repo *git.Repository, filename, content string) (plumbing.Hash, error) {
	workTree, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	if err := writeFile(workTree.Filesystem, filename, content); err != nil {
		return plumbing.ZeroHash, err
	}

	if _, err := workTree.Add(filename); err != nil {
		return plumbing.ZeroHash, err
	}

	return workTree.Commit("Commit "+filename, &git.CommitOptions{Author: testSignature})
}

// testRepoWithHistory commits one file per entry of tags, tagging each
// commit with the entry when it is non-empty. It returns the commit hashes.
func testRepoWithHistory(repo *git.Repository, tags []string) ([]plumbing.Hash, error) {
	hashes := make([]plumbing.Hash, 0, len(tags))
	for i, tag := range tags {
		hash, err := testCommit(repo, "file_"+string(rune('a'+i))+".txt", "content "+tag)
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, hash)

		if tag == "" {
			continue
		}
		if _, err := repo.CreateTag(tag, hash, nil); err != nil {
			return nil, err
		}
	}
	return hashes, nil
}

// writeFile writes content to a file in the given filesystem
func writeFile(fs billy.Filesystem, filename, content string) error {
	file, err := fs.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write([]byte(content))
	return err
}
