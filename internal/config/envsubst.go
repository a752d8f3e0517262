// internal/config/envsubst.go
package config

import (
	"os"
	"regexp"
	"strings"
)

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// substituteEnvVars replaces ${VAR} expressions with environment
// variable values before TOML decoding. Supported forms:
//
//	${VAR}            value of VAR; recorded as missing when unset
//	${VAR:-default}   default when VAR is unset or empty
//	${VAR:?message}   recorded as missing with message when unset or empty
//
// Unresolved expressions are left in place so string fields still
// decode and the error can name every missing variable at once.
func substituteEnvVars(content string) (string, []string) {
	var missing []string

	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		expr := match[2 : len(match)-1]

		name, op, arg := splitExpr(expr)
		value, set := os.LookupEnv(name)

		switch op {
		case ":-":
			if set && value != "" {
				return value
			}
			return arg
		case ":?":
			if set && value != "" {
				return value
			}
			missing = append(missing, name+": "+arg)
			return match
		default:
			if set {
				return value
			}
			missing = append(missing, name)
			return match
		}
	})

	return result, missing
}

// splitExpr separates a substitution expression into variable name,
// operator, and argument. Plain ${VAR} yields an empty operator.
func splitExpr(expr string) (name, op, arg string) {
	for _, candidate := range []string{":-", ":?"} {
		if i := strings.Index(expr, candidate); i >= 0 {
			return expr[:i], candidate, expr[i+len(candidate):]
		}
	}
	return expr, "", ""
}
