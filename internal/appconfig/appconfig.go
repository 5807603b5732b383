// Package appconfig loads process configuration ahead of the build-time
// config parser: an optional .env file via github.com/joho/godotenv,
// exactly as the teacher's cmd/cli/main.go does, followed by the
// ${VAR}/{VAR} queue-name expansion spec.md §6 requires.
package appconfig

import (
	"fmt"
	"os"
	"regexp"

	"github.com/joho/godotenv"
)

// LoadDotenv loads path into the process environment if it exists. A
// missing file is not an error; godotenv.Load already tolerates it being
// absent only when no path is given, so check explicitly first.
func LoadDotenv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

var queueVarPattern = regexp.MustCompile(`\$?\{([_A-Za-z][_A-Za-z0-9]*)\}`)

// ExpandQueueName expands every ${VAR} or {VAR} occurrence in name against
// the process environment. A referenced variable that is unset is a
// ConfigurationError per spec.md §6.
func ExpandQueueName(name string) (string, error) {
	var missing []string
	expanded := queueVarPattern.ReplaceAllStringFunc(name, func(match string) string {
		sub := queueVarPattern.FindStringSubmatch(match)
		key := sub[1]
		val, ok := os.LookupEnv(key)
		if !ok {
			missing = append(missing, key)
			return match
		}
		return val
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("queue name %q references unset environment variable(s): %v", name, missing)
	}
	return expanded, nil
}
