package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotConfigured is returned when no storage URL or key is set.
var ErrNotConfigured = errors.New("file storage is not configured")

/*
Supabase wraps the few Storage REST calls delivery files need.

Authorization: a legacy service_role JWT needs both `apikey` and
`Authorization: Bearer <token>`; both are always sent.
*/
type Supabase struct {
	baseURL string // e.g. https://<project>.supabase.co
	apiKey  string
	bucket  string
	client  *http.Client
}

func NewSupabase(baseURL, apiKey, bucket string) *Supabase {
	return &Supabase{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		bucket:  bucket,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether uploads and signed URLs can work.
func (s *Supabase) Configured() bool {
	return s != nil && s.baseURL != "" && s.apiKey != "" && s.bucket != ""
}

// DeliveryKey builds the object key for a delivery file:
// deliveries/<projectID>/<random>-<basename>. The random prefix keeps
// re-uploads of the same file name apart.
func DeliveryKey(projectID uuid.UUID, filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.ReplaceAll(base, " ", "_")
	if base == "." || base == "/" || base == "" {
		base = "file"
	}
	return path.Join("deliveries", projectID.String(), uuid.NewString()[:8]+"-"+base)
}

func (s *Supabase) newRequest(ctx context.Context, method, url string, body io.Reader, contentType string) (*http.Request, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	return req, nil
}

// Upload sends a new object: POST /storage/v1/object/{bucket}/{key}
func (s *Supabase) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, key)
	req, err := s.newRequest(ctx, http.MethodPost, url, r, contentType)
	if err != nil {
		return err
	}

	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("supabase upload error: %s | %s", res.Status, string(body))
	}
	return nil
}

// SignedURL creates a short-lived download link:
// POST /storage/v1/object/sign/{bucket}/{key}  body: {"expiresIn": <seconds>}
func (s *Supabase) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	url := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", s.baseURL, s.bucket, key)

	body, _ := json.Marshal(map[string]int{"expiresIn": int(ttl.Seconds())})
	req, err := s.newRequest(ctx, http.MethodPost, url, bytes.NewReader(body), "application/json")
	if err != nil {
		return "", err
	}

	res, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("supabase sign error: %s | %s", res.Status, string(b))
	}

	var out struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.SignedURL == "" {
		return "", fmt.Errorf("empty signedURL in response")
	}

	// The API answers with a path relative to /storage/v1.
	return s.baseURL + "/storage/v1" + out.SignedURL, nil
}

// Delete removes an object. 404 counts as success.
func (s *Supabase) Delete(ctx context.Context, key string) error {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, key)
	req, err := s.newRequest(ctx, http.MethodDelete, url, nil, "")
	if err != nil {
		return err
	}

	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("supabase delete error: %s | %s", res.Status, string(b))
	}
	return nil
}
