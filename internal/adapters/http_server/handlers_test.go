package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"angels_reviews/internal/app"
	"angels_reviews/internal/domain"
	"angels_reviews/internal/storage/memory"
)

type stubProvider struct {
	reviews []domain.UpstreamReview
	rating  *domain.BusinessRating
	calls   int32
}

func (p *stubProvider) FetchReviews(context.Context, string) ([]domain.UpstreamReview, error) {
	atomic.AddInt32(&p.calls, 1)
	if p.reviews == nil {
		return nil, domain.ErrUpstreamUnavailable
	}
	return p.reviews, nil
}

func (p *stubProvider) FetchRating(context.Context, string) (domain.BusinessRating, error) {
	if p.rating == nil {
		return domain.BusinessRating{}, errors.New("no rating")
	}
	return *p.rating, nil
}

func five() *int { n := 5; return &n }

func newTestServer(p domain.ReviewsProvider, placeID string) (*httptest.Server, *app.ReviewService) {
	svc := app.NewReviewService(p, memory.New(), app.Settings{PlaceID: placeID})
	s := New()
	s.MountHandlers(&Handlers{R: svc})
	return httptest.NewServer(s.Mux()), svc
}

func get(t *testing.T, url string, hdr map[string]string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func TestListReviews_ETag(t *testing.T) {
	p := &stubProvider{reviews: []domain.UpstreamReview{
		{AuthorName: "Sarah M.", Rating: five(), Text: "Life changing sessions, thank you."},
	}}
	ts, svc := newTestServer(p, "place-1")
	defer ts.Close()
	defer svc.Wait()

	res := get(t, ts.URL+"/v1/reviews", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
	var body []map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != 1 || body[0]["name"] != "Sarah M." || body[0]["avatar"] != "SM" || body[0]["isGoogleReview"] != true {
		t.Fatalf("unexpected body: %+v", body)
	}

	etag := res.Header.Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag")
	}
	res = get(t, ts.URL+"/v1/reviews", map[string]string{"If-None-Match": etag})
	if res.StatusCode != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", res.StatusCode)
	}
	if n := atomic.LoadInt32(&p.calls); n != 1 {
		t.Fatalf("second request should be served from cache, provider calls = %d", n)
	}
}

func TestListReviews_Refresh(t *testing.T) {
	p := &stubProvider{reviews: []domain.UpstreamReview{}}
	ts, svc := newTestServer(p, "place-1")
	defer ts.Close()
	defer svc.Wait()

	get(t, ts.URL+"/v1/reviews", nil)
	get(t, ts.URL+"/v1/reviews?refresh=true", nil)
	if n := atomic.LoadInt32(&p.calls); n != 2 {
		t.Fatalf("forced refresh should hit the provider, calls = %d", n)
	}

	res := get(t, ts.URL+"/v1/reviews?refresh=maybe", nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestGetRating(t *testing.T) {
	ts, _ := newTestServer(&stubProvider{}, "place-1")
	defer ts.Close()
	if res := get(t, ts.URL+"/v1/reviews/rating", nil); res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 without rating, got %d", res.StatusCode)
	}

	ts2, _ := newTestServer(&stubProvider{rating: &domain.BusinessRating{Rating: 4.9, TotalCount: 12}}, "place-1")
	defer ts2.Close()
	res := get(t, ts2.URL+"/v1/reviews/rating", nil)
	var out domain.BusinessRating
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Rating != 4.9 || out.TotalCount != 12 {
		t.Fatalf("unexpected rating %+v", out)
	}
}

func TestTestimonialsAndSummary_Unconfigured(t *testing.T) {
	ts, _ := newTestServer(nil, "")
	defer ts.Close()

	res := get(t, ts.URL+"/v1/testimonials", nil)
	var list []domain.ReviewRecord
	if err := json.NewDecoder(res.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != len(app.StaticTestimonials()) || list[0].FromGoogle {
		t.Fatalf("expected static testimonials, got %+v", list)
	}

	res = get(t, ts.URL+"/v1/reviews/summary", nil)
	var sum struct {
		Reviews []domain.ReviewRecord  `json:"reviews"`
		Rating  *domain.BusinessRating `json:"rating"`
	}
	if err := json.NewDecoder(res.Body).Decode(&sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.Reviews == nil || len(sum.Reviews) != 0 || sum.Rating != nil {
		t.Fatalf("unexpected summary %+v", sum)
	}

	if res := get(t, ts.URL+"/healthz", nil); res.StatusCode != http.StatusOK {
		t.Fatalf("healthz %d", res.StatusCode)
	}
}

func TestRemoteIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/reviews", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	if got := remoteIP(r); got != "10.0.0.9" {
		t.Fatalf("remoteIP = %q", got)
	}
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := remoteIP(r); got != "203.0.113.7" {
		t.Fatalf("remoteIP with XFF = %q", got)
	}
}
