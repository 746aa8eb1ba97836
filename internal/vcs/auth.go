// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// tokenEnv lists the token variables consulted for HTTPS remotes, in order,
// with the username each forge expects.
var tokenEnv = []struct {
	name     string
	username string
}{
	{"GITHUB_TOKEN", "x-access-token"},
	{"GITLAB_TOKEN", "gitlab-ci-token"},
	{"GIT_TOKEN", "git"},
}

// DefaultAuth picks credentials for url: an SSH key from ~/.ssh for SSH
// remotes, a token from the environment for HTTPS remotes, or nil.
func DefaultAuth(url string) transport.AuthMethod {
	ep, err := transport.NewEndpoint(url)
	if err != nil {
		return nil
	}

	switch ep.Protocol {
	case "ssh":
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		return sshAuthFrom(home, ep.User)
	case "http", "https":
		return httpAuthFrom(os.Getenv)
	default:
		return nil
	}
}

// sshAuthFrom loads the first usable private key under home/.ssh.
func sshAuthFrom(home, user string) transport.AuthMethod {
	if user == "" {
		user = "git"
	}
	for _, name := range []string{"id_ed25519", "id_rsa", "id_ecdsa"} {
		keyPath := filepath.Join(home, ".ssh", name)
		if _, err := os.Stat(keyPath); err != nil {
			continue
		}
		if auth, err := ssh.NewPublicKeysFromFile(user, keyPath, ""); err == nil {
			return auth
		}
	}
	return nil
}

// httpAuthFrom builds basic auth from the first token variable that is set.
func httpAuthFrom(getenv func(string) string) transport.AuthMethod {
	for _, env := range tokenEnv {
		if token := getenv(env.name); token != "" {
			return &http.BasicAuth{Username: env.username, Password: token}
		}
	}
	return nil
}
