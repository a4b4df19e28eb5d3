// Package vcs reads version-control details of the source vault so runs can
// be traced back to the notes they were produced from.
package vcs

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ErrNotRepository is returned when the vault is not inside a git work tree.
var ErrNotRepository = errors.New("source is not inside a git repository")

// Revision identifies the commit checked out in the vault.
type Revision struct {
	Commit string
	Branch string
	When   time.Time
}

// String renders "branch@shortsha", or just the short hash on a detached HEAD.
func (r Revision) String() string {
	short := r.Commit
	if len(short) > 12 {
		short = short[:12]
	}
	if r.Branch == "" {
		return short
	}
	return r.Branch + "@" + short
}

// SourceRevision resolves HEAD for the repository containing path, searching
// parent directories for the .git folder.
func SourceRevision(path string) (Revision, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return Revision{}, ErrNotRepository
		}
		return Revision{}, fmt.Errorf("open repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return Revision{}, fmt.Errorf("repository has no commits: %w", err)
		}
		return Revision{}, fmt.Errorf("resolve HEAD: %w", err)
	}

	rev := Revision{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		rev.Branch = head.Name().Short()
	}
	if commit, err := repo.CommitObject(head.Hash()); err == nil {
		rev.When = commit.Committer.When
	}
	return rev, nil
}
