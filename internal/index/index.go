package index

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"inkpress/internal/model"
)

// Index is an immutable snapshot of a generated summary collection.
type Index struct {
	records []model.Summary
	bySlug  map[string]int
}

// New indexes records. The first record wins when slugs repeat.
func New(records []model.Summary) *Index {
	idx := &Index{
		records: append([]model.Summary(nil), records...),
		bySlug:  make(map[string]int, len(records)),
	}
	for i, r := range idx.records {
		if _, dup := idx.bySlug[r.Slug]; !dup {
			idx.bySlug[r.Slug] = i
		}
	}
	return idx
}

// Decode reads a serialised collection.
func Decode(r io.Reader) (*Index, error) {
	var records []model.Summary
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	return New(records), nil
}

// Load reads the collection written by Write.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Lookup returns the record for slug.
func (idx *Index) Lookup(slug string) (model.Summary, bool) {
	i, ok := idx.bySlug[slug]
	if !ok {
		return model.Summary{}, false
	}
	return idx.records[i], true
}

// Len returns the number of records.
func (idx *Index) Len() int {
	return len(idx.records)
}

// All returns the records in generation order.
func (idx *Index) All() []model.Summary {
	return append([]model.Summary(nil), idx.records...)
}

// ByCategory returns records whose category equals cat, ignoring case.
func (idx *Index) ByCategory(cat string) []model.Summary {
	return idx.filter(func(s model.Summary) bool {
		return strings.EqualFold(s.Category, cat)
	})
}

// Featured returns records flagged as featured.
func (idx *Index) Featured() []model.Summary {
	return idx.filter(model.Summary.Featured)
}

// Categories returns the distinct categories in first-seen order.
func (idx *Index) Categories() []string {
	seen := map[string]bool{}
	var cats []string
	for _, r := range idx.records {
		if !seen[r.Category] {
			seen[r.Category] = true
			cats = append(cats, r.Category)
		}
	}
	return cats
}

func (idx *Index) filter(keep func(model.Summary) bool) []model.Summary {
	var out []model.Summary
	for _, r := range idx.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// SortByDate orders records newest first. Records without a parseable date
// go last; ties keep their input order.
func SortByDate(records []model.Summary) []model.Summary {
	out := append([]model.Summary(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		ti, okI := out[i].PublishedAt()
		tj, okJ := out[j].PublishedAt()
		switch {
		case !okI:
			return false
		case !okJ:
			return true
		default:
			return ti.After(tj)
		}
	})
	return out
}
