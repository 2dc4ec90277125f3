package httputil

import (
	"strings"
	"testing"
	"time"
)

func TestClientSingletonPerTier(t *testing.T) {
	if Client(TierFast) != Client(TierFast) {
		t.Error("TierFast client is not a singleton")
	}
	if Client(TierFast) == Client(TierMedium) {
		t.Error("tiers must not share a client")
	}
}

func TestClientTimeouts(t *testing.T) {
	cases := []struct {
		tier TimeoutTier
		want time.Duration
	}{
		{TierFast, 5 * time.Second},
		{TierMedium, 30 * time.Second},
		{TierSlow, 60 * time.Second},
	}
	for _, tc := range cases {
		if got := Client(tc.tier).Timeout; got != tc.want {
			t.Errorf("tier %d timeout = %v, want %v", tc.tier, got, tc.want)
		}
	}
}

func TestUnknownTierFallsBackToMedium(t *testing.T) {
	if Client(TimeoutTier(99)) != Client(TierMedium) {
		t.Error("unknown tier should return the medium client")
	}
}

func TestReadResponseBodyLimit(t *testing.T) {
	body := strings.NewReader(strings.Repeat("a", 100))
	data, err := ReadResponseBody(body, 10)
	if err != nil {
		t.Fatalf("ReadResponseBody: %v", err)
	}
	if len(data) != 10 {
		t.Errorf("read %d bytes, want 10", len(data))
	}
}

func TestReadResponseBodyDefaultLimit(t *testing.T) {
	body := strings.NewReader("short")
	data, err := ReadResponseBody(body, 0)
	if err != nil {
		t.Fatalf("ReadResponseBody: %v", err)
	}
	if string(data) != "short" {
		t.Errorf("got %q", data)
	}
}
