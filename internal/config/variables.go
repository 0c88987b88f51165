package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadVariables reads variables.yaml, a per-environment name→string map
// used for `{{ NAME }}` substitution inside stack.spec.yaml, and returns
// the map for the given environment.
//
//	local:
//	  DB_HOST: localhost
//	dev:
//	  DB_HOST: dev-db.internal
func LoadVariables(path string, environment Environment) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("variables: failed to read %s: %w", path, err)
	}

	var doc map[string]map[string]string
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("variables: failed to parse %s: %w", path, err)
	}

	vars, ok := doc[string(environment)]
	if !ok {
		return map[string]string{}, nil
	}
	return vars, nil
}
