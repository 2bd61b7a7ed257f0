package budget

import (
	"strings"

	"github.com/boddenberg/budget-planner-bff/internal/domain"
)

var defaultPresets = map[domain.BucketKey][]string{
	domain.BucketEssentials: {
		"Housing (rent, mortgage)",
		"Utilities (power/gas/water/internet)",
		"Transport (tickets/fuel)",
		"Groceries",
		"Health (medicine/subscription)",
		"Insurance",
	},
	domain.BucketSavings: {
		"Emergency fund",
		"Investments (retirement/ETF)",
		"Debt repayment",
	},
	domain.BucketDiscretionary: {
		"Entertainment/going out",
		"Clothes",
		"Education/hobby",
		"Gifts",
		"Travel",
	},
}

// DefaultPresets returns the built-in quick items of a bucket.
func DefaultPresets(bucket domain.BucketKey) []string {
	src := defaultPresets[bucket]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// MergePresets appends extra names to base, skipping blanks and names already
// present (case-insensitive).
func MergePresets(base []string, extra ...string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, name := range list {
			name = strings.TrimSpace(name)
			key := strings.ToLower(name)
			if name == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}
