package config

import (
	"os"
	"regexp"
	"strings"
)

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-[^}]*)?\}`)

// ExpandEnv substitutes ${VAR} and ${VAR:-default} in config text.
// An unset or empty VAR yields its default, or "" when there is none;
// required fields left empty are caught by Validate.
func ExpandEnv(input string) string {
	return envRef.ReplaceAllStringFunc(input, func(ref string) string {
		m := envRef.FindStringSubmatch(ref)
		if v := os.Getenv(m[1]); v != "" {
			return v
		}
		return strings.TrimPrefix(m[2], ":-")
	})
}
