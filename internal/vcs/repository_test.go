// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"testing"

	"github.com/buildpkg/buildpkg/internal/testutil"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// fixtureRepo creates a repository with one commit tagged v1.0.0 (lightweight),
// three further commits, and an annotated v1.1.0 on the last one.
func fixtureRepo(t *testing.T) (string, []plumbing.Hash) {
	t.Helper()

	dir := t.TempDir()
	return dir, testutil.NewGitRepo(t, dir)
}

func TestOpen_Tags(t *testing.T) {
	t.Parallel()

	dir, _ := fixtureRepo(t)
	repo, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if repo.Path() != dir {
		t.Errorf("Path() = %q, want %q", repo.Path(), dir)
	}

	tags, err := repo.Tags()
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"v1.0.0", "v1.1.0"}; !slices.Equal(tags, want) {
		t.Errorf("Tags() = %v, want %v", tags, want)
	}
}

func TestRevisionCountSince(t *testing.T) {
	t.Parallel()

	dir, commits := fixtureRepo(t)
	repo, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		ref  string
		want int
	}{
		{"v1.0.0", 3},
		{"v1.1.0", 0},
		{"HEAD", 0},
		{commits[1].String(), 2},
	}

	for _, tt := range tests {
		got, err := repo.RevisionCountSince(tt.ref)
		if err != nil {
			t.Errorf("RevisionCountSince(%q): %v", tt.ref, err)
			continue
		}
		if got != tt.want {
			t.Errorf("RevisionCountSince(%q) = %d, want %d", tt.ref, got, tt.want)
		}
	}
}

func TestRevisionCountSince_UnknownRef(t *testing.T) {
	t.Parallel()

	dir, _ := fixtureRepo(t)
	repo, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := repo.RevisionCountSince("v9.9.9"); !errors.Is(err, ErrRevisionNotFound) {
		t.Errorf("error = %v, want ErrRevisionNotFound", err)
	}
}

func TestOpen_NotARepository(t *testing.T) {
	t.Parallel()

	if _, err := Open(t.TempDir()); !errors.Is(err, git.ErrRepositoryNotExists) {
		t.Errorf("error = %v, want git.ErrRepositoryNotExists", err)
	}
}

func TestClone_LocalRepository(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("git-upload-pack"); err != nil {
		t.Skip("git-upload-pack not available for the file transport")
	}

	src, _ := fixtureRepo(t)
	dest := filepath.Join(t.TempDir(), "nested", "clone")

	repo, err := Clone(context.Background(), src, dest, WithAuth(nil))
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "file3.txt")); err != nil {
		t.Errorf("worktree not checked out: %v", err)
	}
	if n, err := repo.RevisionCountSince("v1.0.0"); err != nil || n != 3 {
		t.Errorf("RevisionCountSince(v1.0.0) on clone = %d, %v", n, err)
	}
}

func TestHTTPAuthFrom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		env      map[string]string
		wantUser string
	}{
		{"none", nil, ""},
		{"github", map[string]string{"GITHUB_TOKEN": "gh"}, "x-access-token"},
		{"gitlab", map[string]string{"GITLAB_TOKEN": "gl"}, "gitlab-ci-token"},
		{"github wins", map[string]string{"GIT_TOKEN": "g", "GITHUB_TOKEN": "gh"}, "x-access-token"},
		{"generic", map[string]string{"GIT_TOKEN": "g"}, "git"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			auth := httpAuthFrom(func(k string) string { return tt.env[k] })
			if tt.wantUser == "" {
				if auth != nil {
					t.Errorf("auth = %v, want nil", auth)
				}
				return
			}
			basic, ok := auth.(*http.BasicAuth)
			if !ok || basic.Username != tt.wantUser {
				t.Errorf("auth = %#v, want basic auth for %q", auth, tt.wantUser)
			}
		})
	}
}

func TestDefaultAuth_LocalPath(t *testing.T) {
	t.Parallel()

	if auth := DefaultAuth("/srv/git/project"); auth != nil {
		t.Errorf("DefaultAuth(local path) = %v, want nil", auth)
	}
}
