package ml

import (
	"context"
	"hash/fnv"
	"strings"
	"testing"
)

// bagEmbedder is a deterministic bag-of-words embedder: identical sentences
// embed identically, disjoint vocabularies produce near-orthogonal vectors.
type bagEmbedder struct{}

const bagDims = 128

func (bagEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, bagDims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum32()%bagDims]++
	}
	return vec, nil
}

func (bagEmbedder) Dimension() int { return bagDims }

func newSeededDetector(t *testing.T) *LureDetector {
	t.Helper()
	det, err := NewLureDetector(bagEmbedder{})
	if err != nil {
		t.Fatalf("NewLureDetector: %v", err)
	}
	if det.IsReady() {
		t.Fatal("detector must not report ready before seeding")
	}
	if err := det.Seed(context.Background()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if !det.IsReady() {
		t.Fatal("detector must report ready after seeding")
	}
	return det
}

func TestNewLureDetectorRequiresEmbedder(t *testing.T) {
	if _, err := NewLureDetector(nil); err == nil {
		t.Error("expected error for nil embedder")
	}
}

func TestDetectBeforeSeedFails(t *testing.T) {
	det, err := NewLureDetector(bagEmbedder{})
	if err != nil {
		t.Fatalf("NewLureDetector: %v", err)
	}
	if _, err := det.Detect(context.Background(), "hello"); err == nil {
		t.Error("expected error before seeding")
	}
}

func TestDetectExactLureIsThreat(t *testing.T) {
	det := newSeededDetector(t)

	match, err := det.Detect(context.Background(),
		"Your account has been suspended, verify your identity immediately")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if !match.IsThreat {
		t.Errorf("exact lure text should clear the threshold, score=%f", match.Score)
	}
	if match.Category != "credential_harvest" {
		t.Errorf("category = %q, want credential_harvest", match.Category)
	}
	if match.MatchedText == "" {
		t.Error("matched text should carry the seed lure")
	}
}

func TestDetectBenignMessageIsNotThreat(t *testing.T) {
	det := newSeededDetector(t)

	match, err := det.Detect(context.Background(),
		"quarterly engineering metrics dashboard refreshed nightly per team")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if match.IsThreat {
		t.Errorf("benign message flagged as lure: score=%f matched=%q", match.Score, match.MatchedText)
	}
}

func TestPhishingLabelMapping(t *testing.T) {
	cases := []struct {
		label string
		want  bool
	}{
		{"phishing", true},
		{"spam", true},
		{"malicious", true},
		{"LABEL_1", true},
		{"benign", false},
		{"ham", false},
		{"LABEL_0", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := isPhishingLabel(tc.label); got != tc.want {
			t.Errorf("isPhishingLabel(%q) = %v, want %v", tc.label, got, tc.want)
		}
	}
}
