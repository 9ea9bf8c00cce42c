package model

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Fallback values for documents that omit a display field.
const (
	DefaultTitle    = "Untitled"
	DefaultExcerpt  = ""
	DefaultCategory = "Uncategorized"
	DefaultReadTime = "N/A"
)

// DateLayout is the format of build-time fallback dates.
const DateLayout = "2006-01-02"

type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPublished PostStatus = "published"
	StatusArchived  PostStatus = "archived"
	StatusScheduled PostStatus = "scheduled"
)

// Document is a full article: its metadata plus the raw body text.
type Document struct {
	Slug     string
	Title    string
	Excerpt  string
	Category string
	ReadTime string
	Date     string
	Featured bool
	Body     string
}

// Summary is the list-view projection of a Document. Keys found in the
// metadata block that have no dedicated field are kept verbatim in Extra.
type Summary struct {
	ID       string
	Slug     string
	Title    string
	Excerpt  string
	Date     string
	Category string
	ReadTime string
	Extra    map[string]string
}

// reserved are the keys owned by Summary's own fields.
var reserved = []string{"id", "slug", "title", "excerpt", "date", "category", "readTime"}

// IsReserved reports whether key maps onto a dedicated Summary field.
func IsReserved(key string) bool {
	for _, k := range reserved {
		if k == key {
			return true
		}
	}
	return false
}

// MarshalJSON flattens Extra into the record. Dedicated fields always win.
func (s Summary) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')

	write := func(key, value string) error {
		if b.Len() > 1 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return err
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
		return nil
	}

	fixed := [][2]string{
		{"id", s.ID},
		{"slug", s.Slug},
		{"title", s.Title},
		{"excerpt", s.Excerpt},
		{"date", s.Date},
		{"category", s.Category},
		{"readTime", s.ReadTime},
	}
	for _, kv := range fixed {
		if err := write(kv[0], kv[1]); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(s.Extra))
	for k := range s.Extra {
		if !IsReserved(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := write(k, s.Extra[k]); err != nil {
			return nil, err
		}
	}

	b.WriteByte('}')
	return []byte(b.String()), nil
}

// UnmarshalJSON reads a flattened record. Non-string extra values written by
// older generators are kept in their JSON text form.
func (s *Summary) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = Summary{Extra: map[string]string{}}
	for key, msg := range raw {
		var value string
		if err := json.Unmarshal(msg, &value); err != nil {
			value = string(msg)
		}

		switch key {
		case "id":
			s.ID = value
		case "slug":
			s.Slug = value
		case "title":
			s.Title = value
		case "excerpt":
			s.Excerpt = value
		case "date":
			s.Date = value
		case "category":
			s.Category = value
		case "readTime":
			s.ReadTime = value
		default:
			s.Extra[key] = value
		}
	}
	if s.ID == "" {
		s.ID = s.Slug
	}
	return nil
}

// Featured reports the legacy "featured" flag.
func (s Summary) Featured() bool {
	v, err := strconv.ParseBool(strings.TrimSpace(s.Extra["featured"]))
	return err == nil && v
}

// Status returns the legacy publication status, defaulting to published.
func (s Summary) Status() PostStatus {
	if v := strings.TrimSpace(s.Extra["status"]); v != "" {
		return PostStatus(strings.ToLower(v))
	}
	return StatusPublished
}

// Author returns the optional author field.
func (s Summary) Author() string {
	return s.Extra["author"]
}

// Tags splits the legacy "tags" value. Both "a, b" and "[a, b]" are accepted.
func (s Summary) Tags() []string {
	raw := strings.TrimSpace(s.Extra["tags"])
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
	if raw == "" {
		return nil
	}

	var tags []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.Trim(strings.TrimSpace(t), `"'`)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// PublishedAt parses the record date. Older records carried "publishDate"
// instead of "date"; it is used when "date" does not parse.
func (s Summary) PublishedAt() (time.Time, bool) {
	for _, v := range []string{s.Date, s.Extra["publishDate"]} {
		if t, ok := parseDate(v); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
	"January 2, 2006",
	"Jan 2, 2006",
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Document expands the summary into a Document carrying body.
func (s Summary) Document(body string) Document {
	return Document{
		Slug:     s.Slug,
		Title:    s.Title,
		Excerpt:  s.Excerpt,
		Category: s.Category,
		ReadTime: s.ReadTime,
		Date:     s.Date,
		Featured: s.Featured(),
		Body:     body,
	}
}
