package ml

// hugot_classifier.go - Local email text classification using Hugot/ONNX.
//
// Runs a fine-tuned phishing/spam text classification model fully locally
// via ONNX Runtime (fast path) or the pure Go backend (no native deps).
// Initialization failures degrade gracefully: the classifier reports
// ErrModelUnavailable instead of blocking the request path.

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
	"github.com/knights-analytics/hugot/pipelines"
)

// HugotClassifier scores email bodies with a local ONNX text classification
// model. Safe for concurrent use.
type HugotClassifier struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
	mu       sync.RWMutex
	config   HugotConfig
	ready    bool
}

// HugotConfig configures the local text classifier.
type HugotConfig struct {
	// ModelPath is the local path to the ONNX model directory. If empty and
	// ModelName is set, the model is downloaded on first use.
	ModelPath string

	// ModelName is the HuggingFace model name used for download when
	// ModelPath is absent.
	ModelName string

	// OnnxLibraryPath is the path to libonnxruntime.so. When empty, the
	// pure Go backend is used.
	OnnxLibraryPath string

	// Timeout bounds a single inference call.
	Timeout time.Duration
}

// DefaultHugotConfig returns the default phishing-email model configuration.
// The model directory can be overridden with PHISHSENSE_TEXT_MODEL_PATH.
func DefaultHugotConfig() HugotConfig {
	return HugotConfig{
		ModelName:       "ealvaradob/bert-finetuned-phishing",
		ModelPath:       os.Getenv("PHISHSENSE_TEXT_MODEL_PATH"),
		OnnxLibraryPath: defaultOnnxPath(),
		Timeout:         30 * time.Second,
	}
}

func defaultOnnxPath() string {
	if p := os.Getenv("ONNX_LIBRARY_PATH"); p != "" {
		return p
	}
	if _, err := os.Stat("/usr/lib/libonnxruntime.so"); err == nil {
		return "/usr/lib/libonnxruntime.so"
	}
	return ""
}

// NewHugotClassifier initializes the session and pipeline. Prefer
// NewHugotClassifierWithFallback on the request path.
func NewHugotClassifier(cfg HugotConfig) (*HugotClassifier, error) {
	h := &HugotClassifier{config: cfg}
	if err := h.initialize(); err != nil {
		return nil, err
	}
	return h, nil
}

// NewHugotClassifierWithFallback returns a classifier even when
// initialization fails; the degraded instance reports ErrModelUnavailable
// from Classify.
func NewHugotClassifierWithFallback(cfg HugotConfig) *HugotClassifier {
	h, err := NewHugotClassifier(cfg)
	if err != nil {
		log.Printf("WARNING: text classifier initialization failed (graceful degradation): %v", err)
		return &HugotClassifier{config: cfg, ready: false}
	}
	return h
}

func (h *HugotClassifier) initialize() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	session, err := h.createSession()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	h.session = session

	modelPath, err := h.resolveModelPath()
	if err != nil {
		_ = h.session.Destroy()
		return fmt.Errorf("failed to resolve model path: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "phishing-text-classifier",
	})
	if err != nil {
		_ = h.session.Destroy()
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	h.pipeline = pipeline
	h.ready = true
	log.Printf("text classifier initialized (model: %s)", modelPath)
	return nil
}

// createSession prefers the ONNX Runtime backend and falls back to the pure
// Go backend when the native library is missing.
func (h *HugotClassifier) createSession() (*hugot.Session, error) {
	if h.config.OnnxLibraryPath != "" {
		session, err := hugot.NewORTSession(
			options.WithOnnxLibraryPath(h.config.OnnxLibraryPath),
		)
		if err == nil {
			log.Printf("text classifier using ONNX Runtime backend")
			return session, nil
		}
		log.Printf("ONNX Runtime unavailable, falling back to Go backend: %v", err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create Go session: %w", err)
	}
	return session, nil
}

func (h *HugotClassifier) resolveModelPath() (string, error) {
	if h.config.ModelPath != "" {
		if _, err := os.Stat(h.config.ModelPath); err == nil {
			return h.config.ModelPath, nil
		}
	}

	if h.config.ModelName == "" {
		return "", fmt.Errorf("no model path or name specified")
	}

	modelsDir := "./models"
	if err := os.MkdirAll(modelsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create models directory: %w", err)
	}

	log.Printf("downloading model %s...", h.config.ModelName)
	modelPath, err := hugot.DownloadModel(h.config.ModelName, modelsDir, hugot.NewDownloadOptions())
	if err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}
	return modelPath, nil
}

// IsReady reports whether the model loaded successfully.
func (h *HugotClassifier) IsReady() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready
}

// Classify scores a single email body. The risk score is the model
// confidence when the label maps to the phishing class, otherwise its
// complement, so it is always the phishing-class probability.
func (h *HugotClassifier) Classify(ctx context.Context, text string) (TextResult, error) {
	results, err := h.ClassifyBatch(ctx, []string{text})
	if err != nil {
		return TextResult{}, err
	}
	return results[0], nil
}

// ClassifyBatch scores several bodies in one pipeline run. The underlying
// pipeline is batch-native, so this is the cheaper option for bulk rescoring.
func (h *HugotClassifier) ClassifyBatch(ctx context.Context, texts []string) ([]TextResult, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.ready || h.pipeline == nil {
		return nil, ErrModelUnavailable
	}
	if len(texts) == 0 {
		return nil, nil
	}

	result, err := h.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("classification failed: %w", err)
	}
	if len(result.ClassificationOutputs) < len(texts) {
		return nil, fmt.Errorf("expected %d classification outputs, got %d",
			len(texts), len(result.ClassificationOutputs))
	}

	out := make([]TextResult, len(texts))
	for i := range texts {
		if len(result.ClassificationOutputs[i]) == 0 {
			return nil, fmt.Errorf("no classification output for input %d", i)
		}
		top := result.ClassificationOutputs[i][0]
		phishing := isPhishingLabel(top.Label)
		risk := float64(top.Score)
		if !phishing {
			risk = 1.0 - risk
		}
		out[i] = TextResult{
			RiskScore:  risk,
			Label:      top.Label,
			IsPhishing: phishing,
		}
	}
	return out, nil
}

// isPhishingLabel maps the label conventions of common phishing/spam models
// to the phishing class:
//   - ealvaradob/bert-finetuned-phishing: "phishing" vs "benign"
//   - spam models: "spam" vs "ham"
//   - generic heads: "LABEL_1" vs "LABEL_0"
func isPhishingLabel(label string) bool {
	switch label {
	case "phishing", "spam", "malicious", "LABEL_1":
		return true
	default:
		return false
	}
}

// Close releases the ONNX session.
func (h *HugotClassifier) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ready = false
	if h.session != nil {
		if err := h.session.Destroy(); err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
	}
	return nil
}
