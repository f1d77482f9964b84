package places

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"angels_reviews/internal/domain"
)

/********** alias registry (Places API New first, legacy second) **********/

var reviewAliases = map[string][]string{
	"author":    {"authorAttribution.displayName", "author_name", "authorName"},
	"text":      {"text.text", "originalText.text", "text"},
	"rating":    {"rating", "ratingValue"},
	"published": {"publishTime", "time"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns the string at path or "".
func lookupStr(m map[string]any, path string) string {
	if s, ok := lookupAny(m, path).(string); ok {
		return s
	}
	return ""
}

// firstNonEmpty: first non-empty string across the alias set for key.
func firstNonEmpty(m map[string]any, key string) string {
	for _, p := range reviewAliases[key] {
		if s := lookupStr(m, p); s != "" {
			return s
		}
	}
	return ""
}

// getFloatFlexible: number from several paths (float64 or a string like "4,8").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// wholeRating accepts only integral star values.
func wholeRating(m map[string]any) *int {
	f := getFloatFlexible(m, reviewAliases["rating"]...)
	if f == nil || *f != math.Trunc(*f) {
		return nil
	}
	n := int(*f)
	return &n
}

// publishedAt reads an RFC 3339 publishTime (New) or unix seconds (legacy).
func publishedAt(m map[string]any) *time.Time {
	for _, p := range reviewAliases["published"] {
		switch v := lookupAny(m, p).(type) {
		case string:
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				return &t
			}
		case float64:
			if v > 0 {
				t := time.Unix(int64(v), 0).UTC()
				return &t
			}
		}
	}
	return nil
}

/********** payload decoders **********/

// legacyResult unwraps {status, result}; anything but OK is an upstream failure.
func legacyResult(payload map[string]any) (map[string]any, error) {
	status := lookupStr(payload, "status")
	if status != "OK" {
		msg := lookupStr(payload, "error_message")
		return nil, fmt.Errorf("%w: legacy status %q %s", domain.ErrUpstreamUnavailable, status, msg)
	}
	res, ok := payload["result"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: legacy response without result", domain.ErrMalformedPayload)
	}
	return res, nil
}

func parseReviews(payload map[string]any, legacy bool) ([]domain.UpstreamReview, error) {
	src := payload
	if legacy {
		res, err := legacyResult(payload)
		if err != nil {
			return nil, err
		}
		src = res
	}
	raw, ok := src["reviews"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: no reviews in response", domain.ErrMalformedPayload)
	}

	out := make([]domain.UpstreamReview, 0, len(raw))
	for _, it := range raw {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, domain.UpstreamReview{
			AuthorName:  firstNonEmpty(m, "author"),
			Text:        firstNonEmpty(m, "text"),
			Rating:      wholeRating(m),
			PublishedAt: publishedAt(m),
		})
	}
	return out, nil
}

func parseRating(payload map[string]any, legacy bool) (domain.BusinessRating, error) {
	ratingPath, countPath := "rating", "userRatingCount"
	src := payload
	if legacy {
		res, err := legacyResult(payload)
		if err != nil {
			return domain.BusinessRating{}, err
		}
		src, countPath = res, "user_ratings_total"
	}
	r := getFloatFlexible(src, ratingPath)
	if r == nil {
		return domain.BusinessRating{}, fmt.Errorf("%w: no rating in response", domain.ErrMalformedPayload)
	}
	out := domain.BusinessRating{Rating: *r}
	if n := getFloatFlexible(src, countPath); n != nil {
		out.TotalCount = int(*n)
	}
	return out, nil
}

func parseCandidates(payload map[string]any) ([]domain.PlaceCandidate, error) {
	switch status := lookupStr(payload, "status"); status {
	case "OK":
	case "ZERO_RESULTS":
		return []domain.PlaceCandidate{}, nil
	default:
		return nil, fmt.Errorf("%w: text search status %q", domain.ErrUpstreamUnavailable, status)
	}
	raw, _ := payload["results"].([]any)
	out := make([]domain.PlaceCandidate, 0, len(raw))
	for _, it := range raw {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		id := lookupStr(m, "place_id")
		if id == "" {
			continue
		}
		out = append(out, domain.PlaceCandidate{
			PlaceID: id,
			Name:    lookupStr(m, "name"),
			Address: lookupStr(m, "formatted_address"),
		})
	}
	return out, nil
}
