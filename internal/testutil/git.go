// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitSignature is the author and tagger of every fixture commit.
var GitSignature = &object.Signature{Name: "Fixture", Email: "fixture@example.com", When: time.Unix(1700000000, 0)}

// NewGitRepo initializes a repository in dir with four commits. The first is
// tagged v1.0.0 (lightweight) and the last v1.1.0 (annotated). The commit
// hashes are returned oldest first.
func NewGitRepo(t testing.TB, dir string) []plumbing.Hash {
	t.Helper()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repository: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}

	var commits []plumbing.Hash
	for i := range 4 {
		name := fmt.Sprintf("file%d.txt", i)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := wt.Add(name); err != nil {
			t.Fatalf("failed to stage %s: %v", name, err)
		}
		h, err := wt.Commit("commit "+name, &git.CommitOptions{Author: GitSignature})
		if err != nil {
			t.Fatalf("failed to commit: %v", err)
		}
		commits = append(commits, h)
		if i == 0 {
			if _, err := repo.CreateTag("v1.0.0", h, nil); err != nil {
				t.Fatalf("failed to tag: %v", err)
			}
		}
	}
	if _, err := repo.CreateTag("v1.1.0", commits[3], &git.CreateTagOptions{Tagger: GitSignature, Message: "release"}); err != nil {
		t.Fatalf("failed to tag: %v", err)
	}
	return commits
}
