package ml

// lure_detector.go - Optional embedding-similarity detection of phishing
// lures. Email bodies are compared against a seed corpus of known lure
// sentences held in an in-memory chromem-go vector store. This is an
// auxiliary signal on top of the text classifier: when no embedding source
// is configured the detector is simply nil and the server skips it.

import (
	"context"
	"fmt"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

// EmbeddingProvider supplies text embeddings for the lure store. Pluggable
// so deployments can back it with a local ONNX embedder or a remote service,
// and tests can use a deterministic fake.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// LureMatch is the closest known lure to the analyzed message.
type LureMatch struct {
	Score       float32 `json:"score"`        // cosine similarity (0.0-1.0)
	Category    string  `json:"category"`     // lure category (credential_harvest, invoice_fraud, ...)
	MatchedText string  `json:"matched_text"` // the seed lure that matched
	IsThreat    bool    `json:"is_threat"`    // true when score >= threshold
}

// LureDetector holds the seeded vector store. Safe for concurrent queries
// once Seed has completed.
type LureDetector struct {
	collection *chromem.Collection
	threshold  float32
	mu         sync.RWMutex
	ready      bool
}

// NewLureDetector builds an empty detector over the given embedder. Call
// Seed before Detect.
func NewLureDetector(embedder EmbeddingProvider) (*LureDetector, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is nil")
	}

	db := chromem.NewDB()
	embeddingFunc := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	}

	collection, err := db.CreateCollection("phishing_lures", nil, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	return &LureDetector{
		collection: collection,
		threshold:  0.72,
	}, nil
}

// Seed loads the lure corpus into the vector store.
func (d *LureDetector) Seed(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	docs := make([]chromem.Document, len(seedLures))
	for i, l := range seedLures {
		docs[i] = chromem.Document{
			ID:      fmt.Sprintf("lure_%d", i),
			Content: l.Text,
			Metadata: map[string]string{
				"category": l.Category,
			},
		}
	}

	if err := d.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("failed to add lures: %w", err)
	}
	d.ready = true
	return nil
}

// IsReady reports whether the corpus has been seeded.
func (d *LureDetector) IsReady() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ready
}

// Detect returns the closest lure match for the message.
func (d *LureDetector) Detect(ctx context.Context, text string) (*LureMatch, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.ready {
		return nil, fmt.Errorf("lure detector not seeded")
	}

	results, err := d.collection.Query(ctx, strings.ToLower(text), 1, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	if len(results) == 0 {
		return &LureMatch{}, nil
	}

	top := results[0]
	return &LureMatch{
		Score:       top.Similarity,
		Category:    top.Metadata["category"],
		MatchedText: top.Content,
		IsThreat:    top.Similarity >= d.threshold,
	}, nil
}

// lure is one seed sentence with its scam category.
type lure struct {
	Text     string
	Category string
}

// seedLures are canonical phishing lure sentences observed across credential
// harvesting, invoice fraud, and delivery scams. Kept short: embeddings
// generalize across paraphrases.
var seedLures = []lure{
	{"your account has been suspended, verify your identity immediately", "credential_harvest"},
	{"unusual sign-in activity detected, confirm your password now", "credential_harvest"},
	{"your mailbox is full, click here to upgrade your storage", "credential_harvest"},
	{"we were unable to deliver your package, update your address to reschedule", "delivery_scam"},
	{"your payment could not be processed, update your billing information", "invoice_fraud"},
	{"attached is the outstanding invoice, please arrange the wire transfer today", "invoice_fraud"},
	{"your tax refund is ready, submit your bank details to receive it", "invoice_fraud"},
	{"this is the ceo, i need you to buy gift cards urgently and keep it confidential", "bec"},
	{"your subscription will be renewed automatically, call this number to cancel", "callback_scam"},
	{"you have won a prize, claim it before it expires", "advance_fee"},
	{"security alert: your documents have been shared with you, sign in to view", "credential_harvest"},
	{"final notice: your account will be permanently closed within 24 hours", "urgency"},
}
