package domain

import "time"

// ReviewRecord is a displayable testimonial.
type ReviewRecord struct {
	AuthorName  string     `json:"name"`
	Initials    string     `json:"avatar"`
	Rating      int        `json:"rating"`
	Text        string     `json:"text"`
	Location    string     `json:"location,omitempty"`
	Service     string     `json:"service,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	FromGoogle  bool       `json:"isGoogleReview"`
}

// UpstreamReview is one review as the provider returned it, before filtering.
type UpstreamReview struct {
	AuthorName  string
	Text        string
	Rating      *int // nil when the payload carried no usable rating
	PublishedAt *time.Time
}

// CacheEnvelope is the persisted unit: records plus fetch metadata.
type CacheEnvelope struct {
	Records      []ReviewRecord `json:"reviews"`
	FetchedAt    time.Time      `json:"timestamp"`
	Fingerprints []string       `json:"reviewIds"`
}

// Age reports how old the envelope is at now.
func (e CacheEnvelope) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

type BusinessRating struct {
	Rating     float64 `json:"rating"`
	TotalCount int     `json:"totalRatings"`
}

// PlaceCandidate is a text-search hit used to discover a place id.
type PlaceCandidate struct {
	PlaceID string `json:"placeId"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}
