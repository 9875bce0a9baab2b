package models

import (
	"fmt"
	"strings"
)

// RevealFilter selects records by reveal state.
type RevealFilter string

const (
	FilterAll      RevealFilter = "all"
	FilterRevealed RevealFilter = "revealed"
	FilterHidden   RevealFilter = "hidden"
)

// ParseRevealFilter accepts all, revealed or hidden (case-insensitive); the
// empty string means all.
func ParseRevealFilter(s string) (RevealFilter, error) {
	switch f := RevealFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterRevealed, FilterHidden:
		return f, nil
	default:
		return "", fmt.Errorf("unknown filter %q: must be one of all, revealed, hidden", s)
	}
}

// Match reports whether a record with the given reveal state passes f.
func (f RevealFilter) Match(revealed bool) bool {
	switch f {
	case FilterRevealed:
		return revealed
	case FilterHidden:
		return !revealed
	default:
		return true
	}
}

// Stats summarises a record set. Hidden is always Total - Revealed.
type Stats struct {
	Total    int `json:"total" yaml:"total"`
	Revealed int `json:"revealed" yaml:"revealed"`
	Hidden   int `json:"hidden" yaml:"hidden"`
}
