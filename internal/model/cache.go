package model

import "time"

// CachedDocument is a raw document kept by the fetch cache.
type CachedDocument struct {
	Key       string    `json:"key"`
	Body      string    `json:"body,omitempty"`
	Size      int       `json:"size"`
	FetchedAt time.Time `json:"fetched_at"`
}

// NewCachedDocument stamps body with the current time.
func NewCachedDocument(key, body string) CachedDocument {
	return CachedDocument{
		Key:       key,
		Body:      body,
		Size:      len(body),
		FetchedAt: time.Now(),
	}
}
