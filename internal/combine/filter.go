package combine

import (
	"path"
	"strings"
)

// Filter is the deterministic source-file selection predicate. A file is
// selected when its base name matches Pattern and contains none of the
// Exclude substrings. The same directory contents always yield the same
// selection.
type Filter struct {
	// Pattern is a path.Match glob applied to the file's base name.
	// Empty means DefaultPattern.
	Pattern string

	// Exclude lists substrings that disqualify a file even when the
	// pattern matches, e.g. archive-metadata artifacts.
	Exclude []string
}

// DefaultPattern matches the dataset's naming convention: per-model files
// plus the single observed-data file.
const DefaultPattern = "*_daily_rainfall_*.csv"

// DefaultExcludes are substrings of known junk artifacts that can appear
// after archive extraction.
var DefaultExcludes = []string{"__MACOSX", ".DS_Store"}

// DefaultFilter returns the filter used when the caller does not supply one.
func DefaultFilter() Filter {
	return Filter{
		Pattern: DefaultPattern,
		Exclude: append([]string(nil), DefaultExcludes...),
	}
}

// Match reports whether the base file name passes the filter.
func (f Filter) Match(name string) bool {
	pattern := f.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}

	ok, err := path.Match(pattern, name)
	if err != nil || !ok {
		return false
	}

	excludes := f.Exclude
	if excludes == nil {
		excludes = DefaultExcludes
	}
	for _, sub := range excludes {
		if sub != "" && strings.Contains(name, sub) {
			return false
		}
	}
	return true
}
