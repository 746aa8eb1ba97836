// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// ErrRevisionNotFound is returned when a reference cannot be resolved to a commit.
var ErrRevisionNotFound = errors.New("revision not found")

type (
	// Repository is an opened git working tree.
	Repository struct {
		path string
		repo *git.Repository
	}

	// CloneOption configures Clone.
	CloneOption func(*cloneOptions)

	cloneOptions struct {
		auth    transport.AuthMethod
		authSet bool
	}
)

// WithAuth overrides the credentials chosen by DefaultAuth. A nil method
// forces an anonymous clone.
func WithAuth(auth transport.AuthMethod) CloneOption {
	return func(o *cloneOptions) {
		o.auth = auth
		o.authSet = true
	}
}

// Clone clones url into dest, creating dest's parent directories first.
func Clone(ctx context.Context, url, dest string, opts ...CloneOption) (*Repository, error) {
	var o cloneOptions
	for _, opt := range opts {
		opt(&o)
	}
	if !o.authSet {
		o.auth = DefaultAuth(url)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create parent directory: %w", err)
	}

	slog.Info("cloning git repository", "url", url, "dest", dest)

	repo, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:  url,
		Auth: o.auth,
		Tags: git.AllTags,
	})
	if err != nil {
		return nil, fmt.Errorf("clone %s: %w", url, err)
	}

	return &Repository{path: dest, repo: repo}, nil
}

// Open opens the existing working tree at path.
func Open(path string) (*Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", path, err)
	}
	return &Repository{path: path, repo: repo}, nil
}

// Path returns the working tree directory.
func (r *Repository) Path() string {
	return r.path
}

// Tags returns the short names of every tag, sorted lexically.
func (r *Repository) Tags() ([]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	var tags []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		tags = append(tags, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	slices.Sort(tags)
	return tags, nil
}

// RevisionCountSince counts the commits reachable from HEAD that are not
// reachable from ref. ref may be a tag, branch or commit hash; annotated tags
// are peeled to their commit.
func (r *Repository) RevisionCountSince(ref string) (int, error) {
	from, err := r.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrRevisionNotFound, ref, err)
	}

	head, err := r.repo.Head()
	if err != nil {
		return 0, fmt.Errorf("resolve HEAD: %w", err)
	}

	hidden, err := r.ancestors(*from)
	if err != nil {
		return 0, err
	}

	count := 0
	err = r.walk(head.Hash(), func(c *object.Commit) error {
		if _, ok := hidden[c.Hash]; !ok {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ancestors returns the set of commits reachable from start, inclusive.
func (r *Repository) ancestors(start plumbing.Hash) (map[plumbing.Hash]struct{}, error) {
	seen := make(map[plumbing.Hash]struct{})
	err := r.walk(start, func(c *object.Commit) error {
		seen[c.Hash] = struct{}{}
		return nil
	})
	return seen, err
}

// walk visits every commit reachable from start exactly once.
func (r *Repository) walk(start plumbing.Hash, fn func(*object.Commit) error) error {
	iter, err := r.repo.Log(&git.LogOptions{From: start})
	if err != nil {
		return fmt.Errorf("walk history from %s: %w", start, err)
	}
	defer iter.Close()

	err = iter.ForEach(fn)
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return fmt.Errorf("walk history from %s: %w", start, err)
	}
	return nil
}
