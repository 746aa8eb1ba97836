// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type (
	// Command is an in-process replacement for a host utility. dir is the
	// interpreter's current directory and args exclude the command name.
	Command interface {
		Name() string
		Run(ctx context.Context, dir string, args []string) error
	}

	// Registry maps command names to builtins. It is safe for concurrent use.
	Registry struct {
		mu       sync.RWMutex
		commands map[string]Command
	}
)

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds cmd. Panics if the name is empty or already taken.
func (r *Registry) Register(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := cmd.Name()
	if name == "" {
		panic("shell: cannot register command with empty name")
	}
	if _, exists := r.commands[name]; exists {
		panic(fmt.Sprintf("shell: command %q already registered", name))
	}
	r.commands[name] = cmd
}

// Lookup retrieves a command by name.
func (r *Registry) Lookup(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmd, ok := r.commands[name]
	return cmd, ok
}

// Names returns the registered command names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtins returns the names of the confined builtins served by r.
func (r *Runner) Builtins() []string {
	return r.builtins.Names()
}
