package api

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestIPRateLimiter_PerIP(t *testing.T) {
	l := NewIPRateLimiter(0.001, 1)
	if !l.Allow("10.0.0.1") {
		t.Fatal("first request from 10.0.0.1 rejected")
	}
	if l.Allow("10.0.0.1") {
		t.Error("second request from 10.0.0.1 allowed past burst")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("other IP shares the bucket")
	}
}

func TestIPRateLimiter_Prune(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	l.Allow("10.0.0.1")
	if n := l.Prune(time.Now().Add(time.Minute)); n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}
	if n := l.Prune(time.Now().Add(time.Minute)); n != 0 {
		t.Errorf("pruned %d on empty limiter, want 0", n)
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:5555"
	if got := clientIP(r); got != "203.0.113.7" {
		t.Errorf("clientIP = %q", got)
	}
	r.RemoteAddr = "bogus"
	if got := clientIP(r); got != "bogus" {
		t.Errorf("clientIP = %q", got)
	}
}
