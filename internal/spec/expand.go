package spec

import (
	"fmt"
	"strings"
)

// VariablesExpander builds an expandFunc that resolves `{{ NAME }}`
// references against vars (a product's active-environment variables.yaml
// section), returning a fatal error for anything unresolved.
func VariablesExpander(vars map[string]string) func(string) (string, error) {
	return func(raw string) (string, error) {
		name := strings.TrimSpace(raw)
		name = strings.TrimPrefix(name, "{{")
		name = strings.TrimSuffix(name, "}}")
		name = strings.TrimSpace(name)

		value, ok := vars[name]
		if !ok {
			return "", fmt.Errorf("unresolved variable reference %q (no %q in variables.yaml for this environment)", raw, name)
		}
		return value, nil
	}
}
