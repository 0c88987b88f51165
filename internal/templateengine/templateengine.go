// Package templateengine renders manifest and build-script templates
// against a BuildContext, generalizing the teacher's pkg/deployer/render.go
// single-purpose renderer into a general-purpose text/template wrapper
// with the sprig function library available to every template.
package templateengine

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig"
)

// Engine parses and executes templates with a shared function map: sprig's
// full set plus a handful of rush-specific helpers.
type Engine struct {
	funcs template.FuncMap
}

// New builds an Engine with sprig's FuncMap plus rushFuncs layered on top.
func New() *Engine {
	funcs := sprig.TxtFuncMap()
	for name, fn := range rushFuncs {
		funcs[name] = fn
	}
	return &Engine{funcs: funcs}
}

// rushFuncs are helpers beyond sprig's set that manifest and build-script
// templates rely on.
var rushFuncs = template.FuncMap{
	"quote": func(s string) string {
		return fmt.Sprintf("%q", s)
	},
	"default": func(defaultVal, val interface{}) interface{} {
		if val == nil || val == "" {
			return defaultVal
		}
		return val
	},
}

// Render parses raw as a named template and executes it against data,
// returning the rendered text.
func (e *Engine) Render(name, raw string, data interface{}) (string, error) {
	tpl, err := template.New(name).Funcs(e.funcs).Parse(raw)
	if err != nil {
		return "", fmt.Errorf("templateengine: failed to parse %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("templateengine: failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

// ExpandString is a narrower entry point that renders raw against a plain
// string map, so `{{ .NAME }}` resolves to vars["NAME"]. The dotless
// `{{ NAME }}` form used in stack.spec.yaml is handled by
// spec.VariablesExpander, not here.
func (e *Engine) ExpandString(name, raw string, vars map[string]string) (string, error) {
	return e.Render(name, raw, vars)
}
