package model

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Categories lists the contest categories a contest can be filed under.
var Categories = []string{
	"image-design",
	"logo-design",
	"article-writing",
	"poetry",
	"business-idea",
	"gaming-review",
	"photography",
	"video-editing",
	"music",
}

func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// SuggestCategory returns the closest known category to input, or "" if nothing is close.
func SuggestCategory(input string) string {
	lower := strings.ToLower(strings.TrimSpace(input))
	if lower == "" {
		return ""
	}
	ranks := fuzzy.RankFindNormalizedFold(lower, Categories)
	if len(ranks) == 0 {
		// Inputs that contain a whole category, e.g. "photography contest".
		for _, c := range Categories {
			if strings.Contains(lower, c) || strings.Contains(c, lower) {
				return c
			}
		}
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}
