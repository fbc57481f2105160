package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestDeliveryKey(t *testing.T) {
	pid := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	key := DeliveryKey(pid, `C:\Users\ana\logo final.pdf`)
	if !strings.HasPrefix(key, "deliveries/11111111-1111-1111-1111-111111111111/") {
		t.Fatalf("unexpected prefix: %s", key)
	}
	if !strings.HasSuffix(key, "-logo_final.pdf") {
		t.Fatalf("unexpected name: %s", key)
	}
}

func TestSignedURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/storage/v1/object/sign/files/deliveries/a.pdf" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("apikey") != "k" || r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("missing auth headers")
		}
		var body map[string]int
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["expiresIn"] != 60 {
			t.Errorf("want expiresIn 60, got %d", body["expiresIn"])
		}
		_, _ = io.WriteString(w, `{"signedURL":"/object/sign/files/deliveries/a.pdf?token=t"}`)
	}))
	defer srv.Close()

	sb := NewSupabase(srv.URL+"/", "k", "files")
	url, err := sb.SignedURL(context.Background(), "deliveries/a.pdf", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if url != srv.URL+"/storage/v1/object/sign/files/deliveries/a.pdf?token=t" {
		t.Fatalf("unexpected url %s", url)
	}
}

func TestUploadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, "denied")
	}))
	defer srv.Close()

	err := NewSupabase(srv.URL, "k", "files").Upload(context.Background(), "x", strings.NewReader("data"), "application/pdf")
	if err == nil || !strings.Contains(err.Error(), "denied") {
		t.Fatalf("want upload error with body, got %v", err)
	}
}

func TestNotConfigured(t *testing.T) {
	if _, err := NewSupabase("", "", "").SignedURL(context.Background(), "x", time.Minute); err != ErrNotConfigured {
		t.Fatalf("want ErrNotConfigured, got %v", err)
	}
}

func TestDeleteNotFoundIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	if err := NewSupabase(srv.URL, "k", "files").Delete(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}
}
