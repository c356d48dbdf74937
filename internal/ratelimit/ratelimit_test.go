package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func limitedRouter(t *testing.T, rdb *redis.Client, max int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", PerIP(rdb, "login", max, time.Minute), func(c *gin.Context) {
		c.Status(200)
	})
	return r
}

func post(r *gin.Engine) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	r.ServeHTTP(w, req)
	return w.Code
}

func TestPerIP_BlocksOverLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	r := limitedRouter(t, rdb, 3)
	for i := 0; i < 3; i++ {
		if code := post(r); code != 200 {
			t.Fatalf("request %d should pass, got %d", i+1, code)
		}
	}
	if code := post(r); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 over limit, got %d", code)
	}
}

func TestPerIP_WindowResets(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	r := limitedRouter(t, rdb, 1)
	if code := post(r); code != 200 {
		t.Fatalf("first request should pass, got %d", code)
	}
	if code := post(r); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}

	mr.FastForward(2 * time.Minute)
	if code := post(r); code != 200 {
		t.Fatalf("expected pass after window reset, got %d", code)
	}
}

func TestPerIP_FailsOpenWithoutRedis(t *testing.T) {
	r := limitedRouter(t, nil, 1)
	for i := 0; i < 5; i++ {
		if code := post(r); code != 200 {
			t.Fatalf("expected fail-open pass, got %d", code)
		}
	}
}
