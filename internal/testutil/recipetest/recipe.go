// SPDX-License-Identifier: MPL-2.0

package recipetest

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// FileName is the recipe name looked up in a project directory.
const FileName = "buildpkg.lua"

type (
	// Recipe is an in-memory recipe. INFO values and callback bodies are Lua
	// source fragments.
	Recipe struct {
		Info      map[string]string
		Callbacks map[string]string
		Trailer   string
	}

	// Option configures a Recipe.
	Option func(*Recipe)
)

// New creates a recipe that passes validation on any host: it declares a
// literal version, uses ARCH as its only architecture and defines empty
// SOURCES, PREPARE and PACKAGE callbacks.
func New(opts ...Option) *Recipe {
	r := &Recipe{
		Info: map[string]string{
			"name":        `"hello"`,
			"description": `"says hello"`,
			"version":     `"1.0.0"`,
			"license":     `"MIT"`,
			"dev":         "false",
			"provides":    `{ "hello" }`,
			"arch":        "{ ARCH }",
			"url":         `"https://example.com/hello"`,
			"maintainers": `{ "Ada", "Linus" }`,
		},
		Callbacks: map[string]string{
			"SOURCES": "",
			"PREPARE": "",
			"PACKAGE": "",
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithInfo sets an INFO field to a Lua expression.
func WithInfo(key, expr string) Option {
	return func(r *Recipe) { r.Info[key] = expr }
}

// WithoutInfo removes an INFO field.
func WithoutInfo(key string) Option {
	return func(r *Recipe) { delete(r.Info, key) }
}

// WithCallback defines a global function with the given body.
func WithCallback(name, body string) Option {
	return func(r *Recipe) { r.Callbacks[name] = body }
}

// WithoutCallback removes a callback.
func WithoutCallback(name string) Option {
	return func(r *Recipe) { delete(r.Callbacks, name) }
}

// WithVersionCallback drops the literal version and defines VERSION().
func WithVersionCallback(body string) Option {
	return func(r *Recipe) {
		delete(r.Info, "version")
		r.Callbacks["VERSION"] = body
	}
}

// WithTrailer appends raw Lua after the callbacks.
func WithTrailer(code string) Option {
	return func(r *Recipe) { r.Trailer = code }
}

// String renders the recipe with fields and callbacks in sorted order.
func (r *Recipe) String() string {
	var b strings.Builder
	b.WriteString("INFO = {\n")
	for _, key := range slices.Sorted(maps.Keys(r.Info)) {
		fmt.Fprintf(&b, "\t%s = %s,\n", key, r.Info[key])
	}
	b.WriteString("}\n")
	for _, name := range slices.Sorted(maps.Keys(r.Callbacks)) {
		fmt.Fprintf(&b, "\nfunction %s()\n%s\nend\n", name, r.Callbacks[name])
	}
	if r.Trailer != "" {
		b.WriteString("\n" + r.Trailer + "\n")
	}
	return b.String()
}

// Write stores the recipe as dir/buildpkg.lua and returns its path.
func (r *Recipe) Write(t testing.TB, dir string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(r.String()), 0o644); err != nil {
		t.Fatalf("failed to write recipe: %v", err)
	}
	return path
}
