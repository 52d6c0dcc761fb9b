package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func TestRateLimitBlocksAfterThreshold(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	app := fiber.New()
	app.Post("/purchases", RateLimit(cache, "purchase", 2), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusCreated)
	})

	for i, want := range []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests} {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/purchases", nil))
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if resp.StatusCode != want {
			t.Fatalf("request %d: expected %d got %d", i, want, resp.StatusCode)
		}
	}

	keys := mr.Keys()
	if len(keys) != 1 || !strings.HasPrefix(keys[0], "rl:purchase:") {
		t.Fatalf("expected one purchase counter, got %v", keys)
	}
	ttl := mr.TTL(keys[0])
	if ttl <= 0 {
		t.Fatalf("expected window expiry on counter, got %v", ttl)
	}

	mr.FastForward(ttl)
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/purchases", nil))
	if err != nil {
		t.Fatalf("request after window: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected window reset, got %d", resp.StatusCode)
	}
}

func TestRateLimitWithoutCacheIsNoop(t *testing.T) {
	app := fiber.New()
	app.Post("/purchases", RateLimit(nil, "purchase", 1), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusCreated)
	})
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/purchases", nil))
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("request %d: expected 201 got %d", i, resp.StatusCode)
		}
	}
}
