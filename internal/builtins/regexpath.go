package builtins

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// RegexPath takes a regular-expression path string and returns the file
// paths that match it, walking one path component at a time and matching
// each component as a regex against the directory's entries. A direct Go
// port of xonsh's reglob/regexpath.
func RegexPath(pattern string) ([]string, error) {
	pattern = expandPath(pattern)
	pattern = filepath.Clean(pattern)

	abs := filepath.IsAbs(pattern)
	parts := strings.Split(pattern, string(filepath.Separator))
	if abs && len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}

	start := "."
	if abs {
		start = string(filepath.Separator)
	}
	return reglobWalk(start, parts)
}

func reglobWalk(dir string, parts []string) ([]string, error) {
	if len(parts) == 0 {
		return []string{dir}, nil
	}

	re, err := regexp.Compile("^" + parts[0] + "$")
	if err != nil {
		return nil, fmt.Errorf("regexpath: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var matches []string
	for _, name := range names {
		if !re.MatchString(name) {
			continue
		}
		full := filepath.Join(dir, name)
		if len(parts) == 1 {
			matches = append(matches, full)
			continue
		}
		sub, err := reglobWalk(full, parts[1:])
		if err != nil {
			continue
		}
		matches = append(matches, sub...)
	}
	return matches, nil
}

// expandPath expands a leading "~" and environment variable references,
// matching built_ins.py's expand_path.
func expandPath(s string) string {
	return os.ExpandEnv(expandHome(s))
}

func expandHome(s string) string {
	if s == "~" || strings.HasPrefix(s, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return home + s[1:]
		}
	}
	return s
}

// EnsureListOfStrs coerces x into a []string: a single string becomes a
// one-element slice, a slice of strings passes through, a slice of other
// values is stringified element-wise, and anything else is stringified and
// wrapped. Matches built_ins.py's ensure_list_of_strs.
func EnsureListOfStrs(x any) []string {
	switch v := x.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, len(v))
		for i, e := range v {
			if s, ok := e.(string); ok {
				out[i] = s
			} else {
				out[i] = fmt.Sprintf("%v", e)
			}
		}
		return out
	default:
		return []string{fmt.Sprintf("%v", x)}
	}
}
