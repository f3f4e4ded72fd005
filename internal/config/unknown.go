package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// maxSuggestionDistance is the maximum edit distance for "did you mean?"
// suggestions when unknown config keys are detected.
const maxSuggestionDistance = 3

// knownKeys are the valid dotted keys in the config file, derived from the
// Config struct's toml tags.
var knownKeys = []string{
	"portal.base_url", "portal.gateway_url",
	"session.auto_establish", "session.watch_credentials",
	"paths.credentials", "paths.class_cache",
	"logging.level", "logging.format",
	"network.timeout",
	"server.transport", "server.listen",
}

// checkUnknownKeys inspects TOML metadata for undecoded keys and returns
// an error with a suggestion for each unknown key.
func checkUnknownKeys(md *toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	var errs []error

	for _, key := range undecoded {
		keyStr := key.String()

		if suggestion := closestKey(keyStr); suggestion != "" {
			errs = append(errs, fmt.Errorf("unknown config key %q (did you mean %q?)", keyStr, suggestion))
		} else {
			errs = append(errs, fmt.Errorf("unknown config key %q", keyStr))
		}
	}

	return errors.Join(errs...)
}

// closestKey returns the known key nearest to the unknown one, or "" when
// nothing is close enough to be a plausible typo. Ties break alphabetically
// for deterministic suggestions.
func closestKey(unknown string) string {
	best := ""
	bestDist := maxSuggestionDistance + 1

	candidates := append([]string(nil), knownKeys...)
	sort.Strings(candidates)

	for _, known := range candidates {
		d := editDistance(strings.ToLower(unknown), known)
		if d < bestDist {
			best = known
			bestDist = d
		}
	}

	if bestDist > maxSuggestionDistance {
		return ""
	}

	return best
}

// editDistance computes the Levenshtein distance between two strings.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i

		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(rb)]
}
