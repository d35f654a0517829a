package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/hitoshi/hourman/internal/model"
)

// requestAs はユーザーIDを注入したGETリクエストを生成する。
func requestAs(userID, path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	return req.WithContext(ContextWithUserID(req.Context(), userID))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// --- API全般のレート制限 ---

func TestRateLimitMiddleware_AllowsRequestsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     2, // 2 req/sec
		GeneralBurst:    5, // バースト5
		ExportRate:      1,
		ExportBurst:     1,
		CleanupInterval: 1 * time.Minute,
	})
	defer rl.Stop()

	handlerCallCount := 0
	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCallCount++
		w.WriteHeader(http.StatusOK)
	}))

	// バースト内の5リクエストは全て通る
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestAs("user-1", "/api/work-records"))

		if w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}

	if handlerCallCount != 5 {
		t.Errorf("handler call count = %d, want 5", handlerCallCount)
	}
}

func TestRateLimitMiddleware_Returns429WithRetryAfter(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     0.5, // 2秒に1トークン
		GeneralBurst:    2,
		ExportRate:      1,
		ExportBurst:     1,
		CleanupInterval: 1 * time.Minute,
	})
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestAs("user-1", "/api/work-records"))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs("user-1", "/api/work-records"))

	resp := w.Result()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}

	retryAfter, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil {
		t.Fatalf("Retry-After should be an integer: %v", err)
	}
	if retryAfter != 2 {
		t.Errorf("Retry-After = %d, want 2", retryAfter)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for _, key := range []string{"code", "message", "category", "action"} {
		if body[key] == "" {
			t.Errorf("expected %q field in error response", key)
		}
	}
}

func TestRateLimitMiddleware_IsolatesUserRateLimits(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    1,
		ExportRate:      1,
		ExportBurst:     1,
		CleanupInterval: 1 * time.Minute,
	})
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs("user-a", "/api/work-records"))
	if w.Code != http.StatusOK {
		t.Fatalf("user-a first request: status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs("user-a", "/api/work-records"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("user-a second request: status = %d, want 429", w.Code)
	}

	// 別ユーザーは影響を受けない
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs("user-b", "/api/work-records"))
	if w.Code != http.StatusOK {
		t.Errorf("user-b request: status = %d, want 200", w.Code)
	}

	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Errorf("GeneralLimiterCount = %d, want 2", got)
	}
}

func TestRateLimitMiddleware_NoUserID_Returns401(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/work-records", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// --- エクスポートのレート制限 ---

func TestExportRateLimit_IndependentFromGeneralLimit(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     100,
		GeneralBurst:    100,
		ExportRate:      1,
		ExportBurst:     1,
		CleanupInterval: 1 * time.Minute,
	})
	defer rl.Stop()

	// General -> Export -> Handler
	handler := rl.GeneralMiddleware()(rl.ExportMiddleware()(okHandler()))
	general := rl.GeneralMiddleware()(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs("user-1", "/api/work-records/export"))
	if w.Code != http.StatusOK {
		t.Fatalf("first export: status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs("user-1", "/api/work-records/export"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second export: status = %d, want 429", w.Code)
	}

	// エクスポートの制限に達しても一般APIは通る
	w = httptest.NewRecorder()
	general.ServeHTTP(w, requestAs("user-1", "/api/work-records"))
	if w.Code != http.StatusOK {
		t.Errorf("general request: status = %d, want 200", w.Code)
	}

	if got := rl.ExportLimiterCount(); got != 1 {
		t.Errorf("ExportLimiterCount = %d, want 1", got)
	}
}

// --- クリーンアップ ---

func TestRateLimiter_CleanupRemovesExpiredEntries(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     2,
		GeneralBurst:    5,
		ExportRate:      1,
		ExportBurst:     5,
		CleanupInterval: 50 * time.Millisecond, // テスト用に短く
	})
	defer rl.Stop()

	rl.GeneralMiddleware()(okHandler()).ServeHTTP(httptest.NewRecorder(), requestAs("user-cleanup", "/api/work-records"))
	rl.ExportMiddleware()(okHandler()).ServeHTTP(httptest.NewRecorder(), requestAs("user-cleanup", "/api/work-records/export"))

	if rl.GeneralLimiterCount() == 0 || rl.ExportLimiterCount() == 0 {
		t.Fatal("expected limiter entries in both buckets")
	}

	// TTLはCleanupIntervalの2倍（100ms）。200ms待てば削除される
	time.Sleep(200 * time.Millisecond)

	if count := rl.GeneralLimiterCount(); count != 0 {
		t.Errorf("expected 0 general entries after cleanup, got %d", count)
	}
	if count := rl.ExportLimiterCount(); count != 0 {
		t.Errorf("expected 0 export entries after cleanup, got %d", count)
	}
}

// --- ミドルウェアチェーンとの統合テスト ---

func TestRateLimitMiddleware_InChainWithSessionAndCORS(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    2,
		ExportRate:      1,
		ExportBurst:     1,
		CleanupInterval: 1 * time.Minute,
	})
	defer rl.Stop()

	sessionMW := NewSessionMiddleware(validSessions(), usersWithRole(model.RoleEmployee))
	corsMW := NewCORSMiddleware("http://localhost:3000")
	rateMW := rl.GeneralMiddleware()

	// CORS -> Session -> RateLimit -> Handler
	handler := corsMW(sessionMW(rateMW(okHandler())))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/work-records", nil)
		req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session-id"})
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		want := http.StatusOK
		if i == 2 {
			want = http.StatusTooManyRequests
		}
		if w.Code != want {
			t.Errorf("request %d: status = %d, want %d", i, w.Code, want)
		}
	}
}

// --- 設定値 ---

func TestDefaultRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()

	if cfg.GeneralRate != 2.0 { // 120/60 = 2
		t.Errorf("GeneralRate = %f, want 2.0", cfg.GeneralRate)
	}
	if cfg.GeneralBurst != 120 {
		t.Errorf("GeneralBurst = %d, want 120", cfg.GeneralBurst)
	}
	if cfg.ExportRate == 0 {
		t.Error("ExportRate should not be 0")
	}
	if cfg.ExportBurst != 10 {
		t.Errorf("ExportBurst = %d, want 10", cfg.ExportBurst)
	}
}

func TestPerMinuteRateLimiterConfig(t *testing.T) {
	cfg := PerMinuteRateLimiterConfig(60, 6)

	if cfg.GeneralRate != 1.0 {
		t.Errorf("GeneralRate = %f, want 1.0", cfg.GeneralRate)
	}
	if cfg.ExportRate != 0.1 {
		t.Errorf("ExportRate = %f, want 0.1", cfg.ExportRate)
	}
	if cfg.GeneralBurst != 60 || cfg.ExportBurst != 6 {
		t.Errorf("bursts = %d/%d, want 60/6", cfg.GeneralBurst, cfg.ExportBurst)
	}
}
