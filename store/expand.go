package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandRoot resolves a root path spec to an absolute directory path.
//
// Semantics:
//   - A leading `~` resolves against the user's home directory.
//   - A leading `!` resolves against the system temp directory.
//   - `$VAR` and `${VAR}` are expanded; a `${VAR}` missing from the
//     environment is an error.
//   - `$$` emits a literal `$` (escape hatch).
func expandRoot(root string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("store: root path is empty")
	}

	expanded, err := expandEnvStrict(root)
	if err != nil {
		return "", fmt.Errorf("store: expanding root %q: %w", root, err)
	}

	switch {
	case expanded == "~" || strings.HasPrefix(expanded, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("store: resolving home directory: %w", err)
		}
		expanded = filepath.Join(home, strings.TrimPrefix(expanded[1:], "/"))
	case expanded == "!" || strings.HasPrefix(expanded, "!/"):
		expanded = filepath.Join(os.TempDir(), strings.TrimPrefix(expanded[1:], "/"))
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("store: resolving root %q: %w", expanded, err)
	}
	return abs, nil
}

// expandEnvStrict expands environment variables in s, erroring on any
// `${VAR}` whose VAR is missing from the environment.
func expandEnvStrict(s string) (string, error) {
	const dollarSentinel = "\x00MEMOOPS_STORE_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollarSentinel)

	missing := make(map[string]struct{})
	for _, match := range envVarPattern.FindAllStringSubmatch(s, -1) {
		key := match[1]
		if _, ok := os.LookupEnv(key); !ok {
			missing[key] = struct{}{}
		}
	}
	if len(missing) > 0 {
		keys := make([]string, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", fmt.Errorf("missing required environment variables: %s", strings.Join(keys, ", "))
	}

	s = os.ExpandEnv(s)
	s = strings.ReplaceAll(s, dollarSentinel, "$")
	return s, nil
}
