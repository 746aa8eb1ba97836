// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Names of the globals a recipe defines.
const (
	InfoGlobal = "INFO"

	CallbackSources = "SOURCES"
	CallbackVersion = "VERSION"
	CallbackPrepare = "PREPARE"
	CallbackPackage = "PACKAGE"
)

// Metadata is the decoded INFO table.
type Metadata struct {
	Name                 string
	Description          string
	Version              string // empty when VERSION() supplies it
	License              string
	Dev                  bool
	Dependencies         []string
	BuildDependencies    []string
	OptionalDependencies []string
	Conflicts            []string
	Provides             []string
	Replaces             []string
	Arch                 []string
	URL                  string
	Maintainers          []string
}

// HasVersion reports whether INFO carried a literal version.
func (m *Metadata) HasVersion() bool { return m.Version != "" }

// decoder accumulates field errors so a single pass reports all of them.
type decoder struct {
	tbl  *lua.LTable
	errs []*FieldError
}

func (d *decoder) fail(field, format string, args ...any) {
	d.errs = append(d.errs, &FieldError{Field: field, Reason: fmt.Sprintf(format, args...)})
}

func (d *decoder) requiredString(field string) string {
	v := d.tbl.RawGetString(field)
	if v == lua.LNil {
		d.fail(field, "required field missing")
		return ""
	}
	s, ok := asString(v)
	if !ok {
		d.fail(field, "expected string, got %s", v.Type())
		return ""
	}
	return s
}

func (d *decoder) optionalString(field string) string {
	v := d.tbl.RawGetString(field)
	if v == lua.LNil {
		return ""
	}
	s, ok := asString(v)
	if !ok {
		d.fail(field, "expected string, got %s", v.Type())
		return ""
	}
	if s == "" {
		d.fail(field, "must not be empty")
	}
	return s
}

func (d *decoder) requiredBool(field string) bool {
	v := d.tbl.RawGetString(field)
	switch b := v.(type) {
	case lua.LBool:
		return bool(b)
	case *lua.LNilType:
		d.fail(field, "required field missing")
	default:
		d.fail(field, "expected boolean, got %s", v.Type())
	}
	return false
}

func (d *decoder) list(field string, required bool) []string {
	v := d.tbl.RawGetString(field)
	if v == lua.LNil {
		if required {
			d.fail(field, "required field missing")
		}
		return []string{}
	}
	tbl, ok := v.(*lua.LTable)
	if !ok {
		d.fail(field, "expected list of strings, got %s", v.Type())
		return []string{}
	}

	n := tbl.Len()
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		elem := tbl.RawGetInt(i)
		s, ok := asString(elem)
		if !ok {
			d.fail(field, "element %d: expected string, got %s", i, elem.Type())
			continue
		}
		out = append(out, s)
	}
	return out
}

// Decode converts an INFO value into Metadata. Every problem is reported as
// a FieldError inside a single *MetadataError. Optional lists default to
// empty when absent; present-but-malformed lists are errors.
func Decode(info lua.LValue) (*Metadata, error) {
	tbl, ok := info.(*lua.LTable)
	if !ok {
		return nil, &MetadataError{FieldErrors: []*FieldError{{
			Field:  InfoGlobal,
			Reason: fmt.Sprintf("expected table, got %s", info.Type()),
		}}}
	}

	d := &decoder{tbl: tbl}
	m := &Metadata{
		Name:                 d.requiredString("name"),
		Description:          d.requiredString("description"),
		Version:              d.optionalString("version"),
		License:              d.requiredString("license"),
		Dev:                  d.requiredBool("dev"),
		Dependencies:         d.list("dependencies", false),
		BuildDependencies:    d.list("build_dependencies", false),
		OptionalDependencies: d.list("optional_dependencies", false),
		Conflicts:            d.list("conflicts", false),
		Provides:             d.list("provides", true),
		Replaces:             d.list("replaces", false),
		Arch:                 d.list("arch", true),
		URL:                  d.requiredString("url"),
		Maintainers:          d.list("maintainers", true),
	}
	if m.Name == "" && !hasFieldError(d.errs, "name") {
		d.fail("name", "must not be empty")
	}

	if len(d.errs) > 0 {
		return nil, &MetadataError{FieldErrors: d.errs}
	}
	return m, nil
}

// CheckVersionSource enforces that exactly one of a literal version and a
// VERSION function is present.
func CheckVersionSource(m *Metadata, versionFn lua.LValue) error {
	switch {
	case versionFn != lua.LNil && versionFn.Type() != lua.LTFunction:
		return &MetadataError{FieldErrors: []*FieldError{{
			Field:  CallbackVersion,
			Reason: fmt.Sprintf("expected function, got %s", versionFn.Type()),
		}}}
	case m.HasVersion() && versionFn != lua.LNil:
		return &MetadataError{FieldErrors: []*FieldError{{
			Field:  "version",
			Reason: "both a version field and a VERSION function are defined",
		}}}
	case !m.HasVersion() && versionFn == lua.LNil:
		return &MetadataError{FieldErrors: []*FieldError{{
			Field:  "version",
			Reason: "neither a version field nor a VERSION function is defined",
		}}}
	}
	return nil
}

// asString accepts Lua strings and numbers, mirroring Lua's own coercion.
func asString(v lua.LValue) (string, bool) {
	switch s := v.(type) {
	case lua.LString:
		return string(s), true
	case lua.LNumber:
		return s.String(), true
	default:
		return "", false
	}
}

func hasFieldError(errs []*FieldError, field string) bool {
	for _, fe := range errs {
		if fe.Field == field {
			return true
		}
	}
	return false
}
