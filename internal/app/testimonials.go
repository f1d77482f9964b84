package app

import (
	"context"

	"angels_reviews/internal/domain"
)

// curated testimonials shown until Google has reviews to serve
var staticTestimonials = []domain.ReviewRecord{
	{
		AuthorName: "Sarah M.", Initials: "SM", Rating: 5,
		Location: "Orlando, FL", Service: "Spiritual Recovery Coaching",
		Text: "Working with Gladys has completely transformed my life! I was struggling with negative thinking and low self-esteem for years. Through her spiritual recovery coaching, I've learned to love myself and find inner peace. Her guidance is truly life-changing.",
	},
	{
		AuthorName: "Michael R.", Initials: "MR", Rating: 5,
		Location: "Tampa, FL", Service: "Addiction Recovery Support",
		Text: "Gladys helped me break free from destructive patterns that were holding me back. Her holistic approach to addiction recovery combines spiritual guidance with practical tools. I'm now 2 years sober and living my best life.",
	},
	{
		AuthorName: "Jennifer L.", Initials: "JL", Rating: 5,
		Location: "Miami, FL", Service: "Angel Card Reading",
		Text: "The angel card reading with Gladys was incredibly insightful and accurate. She helped me find clarity about my life path and gave me the guidance I needed to make important decisions. I highly recommend her services.",
	},
	{
		AuthorName: "David K.", Initials: "DK", Rating: 5,
		Location: "Jacksonville, FL", Service: "Life Coaching",
		Text: "Gladys is an amazing life coach who truly cares about her clients. She helped me identify my limiting beliefs and develop a clear vision for my future. Her coaching has been instrumental in my personal and professional growth.",
	},
	{
		AuthorName: "Lisa T.", Initials: "LT", Rating: 5,
		Location: "Gainesville, FL", Service: "Spiritual Recovery Coaching",
		Text: "I was skeptical about spiritual coaching at first, but Gladys made me a believer. Her approach is gentle yet powerful, and she has a unique ability to help you see what's hidden within. My life has never been better.",
	},
	{
		AuthorName: "Robert W.", Initials: "RW", Rating: 5,
		Location: "Fort Lauderdale, FL", Service: "Addiction Recovery Support",
		Text: "Gladys helped me understand that I wasn't broken, just in need of healing. Her spiritual approach to addiction recovery has given me tools I use every day. I'm grateful for her guidance and support.",
	},
}

// StaticTestimonials returns a copy of the curated list.
func StaticTestimonials() []domain.ReviewRecord {
	out := make([]domain.ReviewRecord, len(staticTestimonials))
	copy(out, staticTestimonials)
	return out
}

// Testimonials prefers Google reviews and falls back to the curated list.
func (s *ReviewService) Testimonials(ctx context.Context) []domain.ReviewRecord {
	if recs := s.GetReviews(ctx, false, nil); len(recs) > 0 {
		return recs
	}
	return StaticTestimonials()
}
