package places

import (
	"encoding/json"
	"testing"
)

func TestGetFloatFlexible(t *testing.T) {
	var m map[string]any
	if err := json.Unmarshal([]byte(`{"rating": 5, "legacy": {"rating": "4,8"}, "blank": " "}`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f := getFloatFlexible(m, "rating"); f == nil || *f != 5 {
		t.Fatalf("json integer should decode as float64, got %v", f)
	}
	if f := getFloatFlexible(m, "blank", "legacy.rating"); f == nil || *f != 4.8 {
		t.Fatalf("comma decimal string: got %v", f)
	}
	if f := getFloatFlexible(m, "missing"); f != nil {
		t.Fatalf("missing path should be nil, got %v", *f)
	}
}
