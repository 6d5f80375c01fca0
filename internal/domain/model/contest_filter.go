package model

import (
	"strings"

	"github.com/go-andiamo/splitter"
)

type ContestSort string

const (
	SortNewest       ContestSort = "newest"
	SortDeadlineAsc  ContestSort = "deadline-asc"
	SortDeadlineDesc ContestSort = "deadline-desc"
	SortPrizeAsc     ContestSort = "prize-asc"
	SortPrizeDesc    ContestSort = "prize-desc"
)

func (s ContestSort) Valid() bool {
	switch s {
	case SortNewest, SortDeadlineAsc, SortDeadlineDesc, SortPrizeAsc, SortPrizeDesc:
		return true
	}
	return false
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// MaxPage keeps (page-1)*limit far from overflow.
	MaxPage = 100_000
)

type ContestFilter struct {
	Terms     []string
	Category  string
	Statuses  []ContestStatus
	CreatorID string
	Sort      ContestSort
	Page      int
	Limit     int
}

func (f ContestFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Matches reports whether c passes every filter except paging.
func (f ContestFilter) Matches(c *Contest) bool {
	if f.Category != "" && c.Category != f.Category {
		return false
	}
	if f.CreatorID != "" && c.CreatorID != f.CreatorID {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if c.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	name := strings.ToLower(c.Name)
	desc := strings.ToLower(c.Description)
	for _, term := range f.Terms {
		t := strings.ToLower(term)
		if !strings.Contains(name, t) && !strings.Contains(desc, t) {
			return false
		}
	}
	return true
}

var searchSplitter = splitter.MustCreateSplitter(' ', splitter.DoubleQuotes, splitter.LeftRightDoubleDoubleQuotes)

// SearchTerms splits a query on spaces, keeping quoted phrases such as "golden hour" together.
func SearchTerms(query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	parts, err := searchSplitter.Split(query)
	if err != nil {
		return nil, err
	}
	terms := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.Trim(p, "\"“”"))
		if p != "" {
			terms = append(terms, p)
		}
	}
	return terms, nil
}

type ContestPage struct {
	Contests []Contest `json:"contests"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}
