package scan

import (
	"fmt"
	"regexp"
	"strings"
)

// ExclusionRule filters candidate files by base name. The configured
// patterns are regular expressions combined into a single alternation; a
// file is eligible only if no pattern matches its base name.
type ExclusionRule struct {
	re *regexp.Regexp
}

// NewExclusionRule compiles the given patterns into one rule. With no
// patterns the rule excludes nothing.
func NewExclusionRule(patterns []string) (*ExclusionRule, error) {
	if len(patterns) == 0 {
		return &ExclusionRule{}, nil
	}
	re, err := regexp.Compile("(?:" + strings.Join(patterns, "|") + ")")
	if err != nil {
		return nil, fmt.Errorf("compiling exclude patterns: %w", err)
	}
	return &ExclusionRule{re: re}, nil
}

// Excluded reports whether any configured pattern matches name.
func (r *ExclusionRule) Excluded(name string) bool {
	if r == nil || r.re == nil {
		return false
	}
	return r.re.MatchString(name)
}
