package server

import (
	"strings"

	"inkpress/internal/index"
	"inkpress/internal/model"
)

// Query narrows a summary collection.
type Query struct {
	Category string
	Tag      string
	Featured bool
	// SortDate orders newest first. Otherwise generation order is kept.
	SortDate bool
}

// Filter applies q to records.
func Filter(records []model.Summary, q Query) []model.Summary {
	var out []model.Summary
	for _, r := range records {
		if q.Category != "" && !strings.EqualFold(r.Category, q.Category) {
			continue
		}
		if q.Featured && !r.Featured() {
			continue
		}
		if q.Tag != "" && !hasTag(r, q.Tag) {
			continue
		}
		out = append(out, r)
	}
	if q.SortDate {
		out = index.SortByDate(out)
	}
	return out
}

func hasTag(r model.Summary, tag string) bool {
	for _, t := range r.Tags() {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
