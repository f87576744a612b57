package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
}

func TestStripTrailingSlash(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		query      string
		wantStatus int
		wantLoc    string
	}{
		{"root untouched", "/", "", http.StatusOK, ""},
		{"no slash untouched", "/posts", "", http.StatusOK, ""},
		{"slash redirects", "/posts/", "", http.StatusMovedPermanently, "/posts"},
		{"query preserved", "/search/", "q=go", http.StatusMovedPermanently, "/search?q=go"},
	}

	handler := StripTrailingSlash(okHandler())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := tt.path
			if tt.query != "" {
				target += "?" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantLoc != "" {
				if loc := rec.Header().Get("Location"); loc != tt.wantLoc {
					t.Errorf("Location = %q, want %q", loc, tt.wantLoc)
				}
			}
		})
	}
}

func TestTimeout_CompletesInTime(t *testing.T) {
	handler := Timeout(time.Second)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestTimeout_Expires(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})
	handler := Timeout(10 * time.Millisecond)(slow)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestSecurityHeaders(t *testing.T) {
	cfg := DefaultSecurityHeadersConfig(false)
	handler := SecurityHeaders(cfg)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "SAMEORIGIN" {
		t.Errorf("X-Frame-Options = %q, want SAMEORIGIN", got)
	}
	if got := rec.Header().Get("Content-Security-Policy"); got == "" {
		t.Error("Content-Security-Policy not set")
	}
	if got := rec.Header().Get("Strict-Transport-Security"); got == "" {
		t.Error("Strict-Transport-Security not set in production")
	}
}

func TestSecurityHeaders_DevSkipsHSTS(t *testing.T) {
	cfg := DefaultSecurityHeadersConfig(true)
	handler := SecurityHeaders(cfg)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("Strict-Transport-Security = %q, want empty in development", got)
	}
}

func TestGlobalRateLimiter(t *testing.T) {
	rl := NewGlobalRateLimiter(1, 2)
	handler := rl.Middleware()(okHandler())

	makeReq := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Real-IP", ip)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// Burst of 2 allowed, third rejected
	if code := makeReq("10.0.0.1"); code != http.StatusOK {
		t.Errorf("first request = %d, want 200", code)
	}
	if code := makeReq("10.0.0.1"); code != http.StatusOK {
		t.Errorf("second request = %d, want 200", code)
	}
	if code := makeReq("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", code)
	}

	// Separate IP has its own budget
	if code := makeReq("10.0.0.2"); code != http.StatusOK {
		t.Errorf("other IP request = %d, want 200", code)
	}
}

func TestLoginProtection_Lockout(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		MaxFailedAttempts: 3,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})

	if locked, _ := lp.IsAccountLocked("alice"); locked {
		t.Fatal("account should not start locked")
	}

	lp.RecordFailedAttempt("alice")
	lp.RecordFailedAttempt("alice")
	if remaining := lp.GetRemainingAttempts("alice"); remaining != 1 {
		t.Errorf("remaining = %d, want 1", remaining)
	}

	locked, duration := lp.RecordFailedAttempt("alice")
	if !locked {
		t.Fatal("third failure should lock the account")
	}
	if duration != time.Minute {
		t.Errorf("duration = %v, want %v", duration, time.Minute)
	}

	if locked, _ := lp.IsAccountLocked("alice"); !locked {
		t.Error("IsAccountLocked = false after lockout")
	}

	// Other accounts are unaffected
	if locked, _ := lp.IsAccountLocked("bob"); locked {
		t.Error("unrelated account locked")
	}
}

func TestLoginProtection_SuccessClearsAttempts(t *testing.T) {
	lp := NewLoginProtection(DefaultLoginProtectionConfig())

	lp.RecordFailedAttempt("carol")
	lp.RecordFailedAttempt("carol")
	lp.RecordSuccessfulLogin("carol")

	if remaining := lp.GetRemainingAttempts("carol"); remaining != 5 {
		t.Errorf("remaining = %d, want 5 after successful login", remaining)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		realIP string
		fwdFor string
		remote string
		want   string
	}{
		{"x-real-ip preferred", "1.2.3.4", "5.6.7.8", "9.9.9.9:1234", "1.2.3.4"},
		{"x-forwarded-for fallback", "", "5.6.7.8", "9.9.9.9:1234", "5.6.7.8"},
		{"remote addr fallback", "", "", "9.9.9.9:1234", "9.9.9.9:1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.fwdFor != "" {
				req.Header.Set("X-Forwarded-For", tt.fwdFor)
			}

			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
