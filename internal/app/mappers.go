package app

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"

	"angels_reviews/internal/domain"
)

const (
	requiredRating   = 5
	minBodyRunes     = 10
	fingerprintRunes = 50
	anonymousAuthor  = "Anonymous"
)

// Display defaults applied to provider records, which carry neither field.
type Display struct {
	Location string
	Service  string
}

// keepReview: 5 stars and a body worth showing.
func keepReview(r domain.UpstreamReview) bool {
	if r.Rating == nil || *r.Rating != requiredRating {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(r.Text)) >= minBodyRunes
}

// Initials takes the first letter of the first and last words; single-word
// names use their first two characters.
func Initials(name string) string {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return strings.ToUpper(firstRunes(parts[0], 2))
	}
	return strings.ToUpper(firstRunes(parts[0], 1) + firstRunes(parts[len(parts)-1], 1))
}

// Fingerprint identifies a review without an upstream id:
// author + "-" + sha1(first 50 chars of the body, whitespace removed, lower-cased).
func Fingerprint(author, text string) string {
	head := firstRunes(text, fingerprintRunes)
	norm := strings.ToLower(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, head))
	sum := sha1.Sum([]byte(norm))
	return author + "-" + hex.EncodeToString(sum[:])
}

func fingerprints(rs []domain.ReviewRecord) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, Fingerprint(r.AuthorName, r.Text))
	}
	return out
}

// mapReviews filters upstream reviews and turns survivors into records,
// keeping provider order.
func mapReviews(in []domain.UpstreamReview, d Display) []domain.ReviewRecord {
	out := make([]domain.ReviewRecord, 0, len(in))
	for _, r := range in {
		if !keepReview(r) {
			continue
		}
		author := strings.TrimSpace(r.AuthorName)
		if author == "" {
			author = anonymousAuthor
		}
		out = append(out, domain.ReviewRecord{
			AuthorName:  author,
			Initials:    Initials(author),
			Rating:      *r.Rating,
			Text:        r.Text,
			Location:    d.Location,
			Service:     d.Service,
			PublishedAt: r.PublishedAt,
			FromGoogle:  true,
		})
	}
	return out
}

// hasNewReviews reports whether any fingerprint in next is missing from prev.
// An empty prev never counts: the first fetch is not news.
func hasNewReviews(prev, next []string) bool {
	if len(prev) == 0 {
		return false
	}
	seen := make(map[string]struct{}, len(prev))
	for _, id := range prev {
		seen[id] = struct{}{}
	}
	for _, id := range next {
		if _, ok := seen[id]; !ok {
			return true
		}
	}
	return false
}

func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
