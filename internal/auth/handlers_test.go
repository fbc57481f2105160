package auth

import (
	"context"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/aldoetobex/freelance-portal/internal/store"
	"github.com/aldoetobex/freelance-portal/pkg/database"
	"github.com/aldoetobex/freelance-portal/pkg/models"
)

// openTestStore opens TEST_DATABASE_URL and truncates the auth tables after
// the test. Tests skip when no database is configured.
func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	_ = godotenv.Load()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is empty")
	}
	db, err := database.Open(dsn, false)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		sql := `
TRUNCATE TABLE
	users,
	activity_logs,
	clients
RESTART IDENTITY CASCADE`
		if err := db.Exec(sql).Error; err != nil {
			t.Logf("truncate failed (ignored): %v", err)
		}
	})
	return store.New(db)
}

func seedMagicLink(t *testing.T, st *store.Store) string {
	t.Helper()
	ctx := context.Background()
	cl := &models.Client{Name: "Ana", Email: uuid.NewString() + "@example.com", Active: true}
	if err := st.CreateClient(ctx, cl); err != nil {
		t.Fatalf("create client: %v", err)
	}
	token := uuid.NewString()
	exp := time.Now().Add(time.Hour)
	if err := st.SetMagicToken(ctx, cl.ID, &token, &exp); err != nil {
		t.Fatalf("set magic token: %v", err)
	}
	return token
}

func newMagicLinkApp(st *store.Store) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	h := NewHandler(st, NewTokens("secret", time.Hour), zap.NewNop())
	app.Post("/magic-link/verify", h.VerifyMagicLink)
	return app
}

func verify(t *testing.T, app *fiber.App, token string) int {
	t.Helper()
	req := httptest.NewRequest("POST", "/magic-link/verify", strings.NewReader(`{"token":"`+token+`"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Errorf("verify: %v", err)
		return 0
	}
	return resp.StatusCode
}

func Test_VerifyMagicLink_TokenIsSingleUse(t *testing.T) {
	st := openTestStore(t)
	app := newMagicLinkApp(st)
	token := seedMagicLink(t, st)

	if code := verify(t, app, token); code != 200 {
		t.Fatalf("first verify: want 200, got %d", code)
	}
	if code := verify(t, app, token); code != 401 {
		t.Fatalf("second verify: want 401, got %d", code)
	}
}

func Test_VerifyMagicLink_ConcurrentRequestsLogInOnce(t *testing.T) {
	st := openTestStore(t)
	app := newMagicLinkApp(st)
	token := seedMagicLink(t, st)

	const n = 8
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = verify(t, app, token)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, code := range codes {
		switch code {
		case 200:
			ok++
		case 401:
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	if ok != 1 {
		t.Fatalf("want exactly one login, got %d", ok)
	}
}
