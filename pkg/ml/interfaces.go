// Package ml holds the contracts for the trained-model collaborators (the
// URL decision forest, the email text classifier, and their attribution
// services) plus concrete clients and local inference wrappers. The core
// analyzer packages never import ml; composition happens in the server.
package ml

import (
	"context"
	"errors"

	"github.com/lucidsec/phishsense/pkg/evidence"
	"github.com/lucidsec/phishsense/pkg/urlfeat"
)

// ErrModelUnavailable is returned when a model collaborator is absent or not
// ready. Absence must surface as this distinguishable condition — never as a
// silently defaulted risk score.
var ErrModelUnavailable = errors.New("model unavailable")

// URLClassifier produces the phishing-class probability for a URL feature
// vector. Implementations must be column-order-stable against their
// training-time schema.
type URLClassifier interface {
	// PredictProba returns the probability in [0,1] that the URL is phishing.
	PredictProba(ctx context.Context, vec urlfeat.Vector) (float64, error)
}

// URLAttributor ranks which features drove the classifier's probability,
// descending by signed contribution weight. Consumed only by the evidence
// generator's structural mode.
type URLAttributor interface {
	RankContributions(ctx context.Context, vec urlfeat.Vector) ([]evidence.Contribution, error)
}

// TextResult is a text classification outcome for an email body.
type TextResult struct {
	// RiskScore is the phishing-class probability in [0,1].
	RiskScore float64 `json:"risk_score"`

	// Label is the raw model label; conventions vary by model
	// ("phishing"/"safe", "spam"/"ham", "LABEL_1"/"LABEL_0").
	Label string `json:"label"`

	// IsPhishing is true when the label maps to the phishing class.
	IsPhishing bool `json:"is_phishing"`
}

// TextClassifier scores an email body for phishing likelihood.
type TextClassifier interface {
	Classify(ctx context.Context, text string) (TextResult, error)
}

// TokenAttributor exposes, for each non-zero token of the message, the
// difference between its phishing-class and safe-class log-probabilities.
// Consumed only by the evidence generator's lexical mode.
type TokenAttributor interface {
	TokenScores(ctx context.Context, text string) ([]evidence.TokenScore, error)
}
