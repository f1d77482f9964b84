package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"angels_reviews/internal/app"
	"angels_reviews/internal/domain"
)

type Handlers struct{ R *app.ReviewService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type summary struct {
	Reviews []domain.ReviewRecord  `json:"reviews"`
	Rating  *domain.BusinessRating `json:"rating"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/reviews", h.listReviews)
	s.mux.Get("/v1/reviews/rating", h.getRating)
	s.mux.Get("/v1/reviews/summary", h.getSummary)
	s.mux.Get("/v1/testimonials", h.listTestimonials)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeJSON answers 304 when the client already holds this representation.
func writeJSON(w http.ResponseWriter, r *http.Request, v any, what string) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("handler", what).Msg("failed to write body")
	}
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	force := false
	if v := r.URL.Query().Get("refresh"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid refresh", "refresh must be a boolean")
			return
		}
		force = b
	}
	// new reviews are only reported by the refresher
	out := h.R.GetReviews(r.Context(), force, nil)
	writeJSON(w, r, out, "listReviews")
}

func (h *Handlers) getRating(w http.ResponseWriter, r *http.Request) {
	out := h.R.GetBusinessRating(r.Context())
	if out == nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "business rating unavailable")
		return
	}
	writeJSON(w, r, out, "getRating")
}

func (h *Handlers) listTestimonials(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, h.R.Testimonials(r.Context()), "listTestimonials")
}

func (h *Handlers) getSummary(w http.ResponseWriter, r *http.Request) {
	var out summary
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		out.Reviews = h.R.GetReviews(ctx, false, nil)
		return nil
	})
	g.Go(func() error {
		out.Rating = h.R.GetBusinessRating(ctx)
		return nil
	})
	_ = g.Wait() // both calls degrade instead of failing
	writeJSON(w, r, out, "getSummary")
}
