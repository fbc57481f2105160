package sanitize

import (
	"strings"
	"testing"
)

func Test_RedactPII(t *testing.T) {
	got := RedactPII("fale comigo em ana@example.com ou +55 11 99999-0000")
	if strings.Contains(got, "@") || strings.Contains(got, "99999") {
		t.Fatalf("not redacted: %q", got)
	}
}

func Test_Summary_WordBoundaryAndRunes(t *testing.T) {
	got := Summary("Revisão da entrega final do projeto", 12)
	if got != "Revisão da…" {
		t.Fatalf("got %q", got)
	}
	if Summary("curto", 40) != "curto" {
		t.Fatalf("short strings stay intact")
	}
}
