// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
)

// Context is the request-scoped recipe environment. It is not safe for
// concurrent use: a single goroutine drives the Lua state.
type Context struct {
	state    *lua.LState
	path     string
	loaded   bool
	metadata *Metadata
}

// NewContext creates a Context with a fresh Lua state. io, package and
// debug are not available to recipes, and os is reduced to its clock and
// environment functions.
func NewContext() *Context {
	return &Context{state: newRecipeState()}
}

// State exposes the Lua state so host functions can be registered before
// Load.
func (c *Context) State() *lua.LState { return c.state }

// Path returns the recipe file evaluated by Load.
func (c *Context) Path() string { return c.path }

// Close releases the Lua state.
func (c *Context) Close() { c.state.Close() }

// Load evaluates the recipe file. Host functions registered on State are
// visible to the recipe body.
func (c *Context) Load(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRecipeNotFound, path, err)
	}

	c.state.SetContext(ctx)
	defer c.state.RemoveContext()

	slog.Debug("evaluating recipe", "path", path)
	if err := c.state.DoFile(path); err != nil {
		return fmt.Errorf("evaluate %s: %w", filepath.Base(path), err)
	}
	c.path = path
	c.loaded = true
	return nil
}

// Metadata decodes INFO and checks the version contract. The result is
// computed once; later calls return the same value.
func (c *Context) Metadata() (*Metadata, error) {
	if !c.loaded {
		return nil, ErrNotLoaded
	}
	if c.metadata != nil {
		return c.metadata, nil
	}

	m, err := Decode(c.state.GetGlobal(InfoGlobal))
	if err != nil {
		return nil, err
	}
	if err := CheckVersionSource(m, c.state.GetGlobal(CallbackVersion)); err != nil {
		return nil, err
	}
	c.metadata = m
	return m, nil
}

// Callback returns the named global function.
func (c *Context) Callback(name string) (*lua.LFunction, error) {
	if !c.loaded {
		return nil, ErrNotLoaded
	}
	v := c.state.GetGlobal(name)
	fn, ok := v.(*lua.LFunction)
	if !ok {
		return nil, &CallbackError{Name: name, Got: v.Type().String()}
	}
	return fn, nil
}

// Call invokes the named callback with no arguments and returns its first
// result (LNil when it returns nothing). Lua errors raised inside the
// callback are returned as *lua.ApiError.
func (c *Context) Call(ctx context.Context, name string) (lua.LValue, error) {
	fn, err := c.Callback(name)
	if err != nil {
		return lua.LNil, err
	}

	c.state.SetContext(ctx)
	defer c.state.RemoveContext()

	if err := c.state.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}); err != nil {
		return lua.LNil, err
	}
	ret := c.state.Get(-1)
	c.state.Pop(1)
	return ret, nil
}

// CallString invokes the named callback and requires a non-empty string (or
// number) result.
func (c *Context) CallString(ctx context.Context, name string) (string, error) {
	ret, err := c.Call(ctx, name)
	if err != nil {
		return "", err
	}
	s, ok := asString(ret)
	if !ok {
		return "", fmt.Errorf("%s() returned %s, want string", name, ret.Type())
	}
	if s == "" {
		return "", fmt.Errorf("%s() returned an empty string", name)
	}
	return s, nil
}

// Locate resolves a project argument to the recipe file and the project
// directory. project may be a directory containing recipeFile or the path of
// a recipe file itself.
func Locate(project, recipeFile string) (recipePath, projectDir string, err error) {
	abs, err := filepath.Abs(project)
	if err != nil {
		return "", "", fmt.Errorf("resolve %s: %w", project, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s: %w", ErrRecipeNotFound, project, err)
	}
	if info.IsDir() {
		recipePath = filepath.Join(abs, recipeFile)
		projectDir = abs
	} else {
		recipePath = abs
		projectDir = filepath.Dir(abs)
	}

	info, err = os.Stat(recipePath)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s: %w", ErrRecipeNotFound, recipePath, err)
	}
	if info.IsDir() {
		return "", "", fmt.Errorf("%w: %s is a directory", ErrRecipeNotFound, recipePath)
	}
	return recipePath, projectDir, nil
}
