package options

import "testing"

func TestSetAndValidate(t *testing.T) {
	s := NewSet(SessionDefaults)
	if err := s.Set("status", "off"); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if s.GetBool("status") {
		t.Fatalf("status should be off")
	}
	if err := s.Set("status", "maybe"); err == nil {
		t.Fatalf("expected validation error for bad bool")
	}
	if err := s.Set("history-limit", "abc"); err == nil {
		t.Fatalf("expected validation error for bad int")
	}
	if err := s.Set("nope", "x"); err == nil {
		t.Fatalf("expected error for unknown option")
	}
}
