package clients

import (
	"testing"
)

func TestNewMagicToken(t *testing.T) {
	a, b := NewMagicToken(), NewMagicToken()
	if len(a) != 32 {
		t.Fatalf("want 32 chars, got %d (%s)", len(a), a)
	}
	if a == b {
		t.Fatalf("tokens must differ")
	}
}

func TestUpdateFields(t *testing.T) {
	name, email, active := "  Ana  ", " ANA@Example.com ", false
	got := updateFields(UpdateRequest{Name: &name, Email: &email, Active: &active})
	if len(got) != 3 {
		t.Fatalf("want 3 fields, got %v", got)
	}
	if got["name"] != "Ana" || got["email"] != "ana@example.com" || got["active"] != false {
		t.Fatalf("unexpected fields %v", got)
	}
	if len(updateFields(UpdateRequest{})) != 0 {
		t.Fatalf("empty request must change nothing")
	}
}
