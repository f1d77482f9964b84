package memory_test

import (
	"context"
	"testing"

	"angels_reviews/internal/storage/memory"
)

func TestStore_CopiesOnReadAndWrite(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	in := []byte("abc")
	_ = s.Set(ctx, "k", in)
	in[0] = 'X'

	got, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || string(got) != "abc" {
		t.Fatalf("Get = %q %v %v", got, ok, err)
	}
	got[1] = 'Y'
	again, _, _ := s.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("stored value mutated through returned slice: %q", again)
	}

	_ = s.Del(ctx, "k")
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatalf("expected miss after Del")
	}
}
