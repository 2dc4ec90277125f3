// Command phishsense runs the phishing early-warning backend: URL, email,
// and file risk assessment over HTTP, plus small offline scanning
// subcommands for local use.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/lucidsec/phishsense/pkg/config"
	"github.com/lucidsec/phishsense/pkg/evidence"
	"github.com/lucidsec/phishsense/pkg/feedback"
	"github.com/lucidsec/phishsense/pkg/filescan"
	"github.com/lucidsec/phishsense/pkg/headers"
	"github.com/lucidsec/phishsense/pkg/httputil"
	"github.com/lucidsec/phishsense/pkg/ml"
	"github.com/lucidsec/phishsense/pkg/urlfeat"
)

const Version = "0.3.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		addr := ""
		if len(os.Args) > 2 {
			addr = ":" + os.Args[2]
		}
		runServer(addr)
	case "scan-url":
		if len(os.Args) < 3 {
			fmt.Println("Usage: phishsense scan-url <url>")
			os.Exit(1)
		}
		runScanURL(os.Args[2])
	case "scan-file":
		if len(os.Args) < 3 {
			fmt.Println("Usage: phishsense scan-file <path>")
			os.Exit(1)
		}
		runScanFile(os.Args[2])
	case "version":
		fmt.Printf("phishsense v%s\n", Version)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("phishsense - phishing early-warning backend")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  phishsense serve [port]       Start HTTP server (default: 8000)")
	fmt.Println("  phishsense scan-url <url>     Extract URL features locally")
	fmt.Println("  phishsense scan-file <path>   Run the static file scanner locally")
	fmt.Println("  phishsense version            Show version")
	fmt.Println("")
	fmt.Println("Environment Variables:")
	fmt.Println("  PHISHSENSE_MODEL_SERVICE_URL  URL decision-forest service endpoint")
	fmt.Println("  PHISHSENSE_TEXT_MODEL_PATH    Local ONNX text model directory")
	fmt.Println("  PHISHSENSE_POSTGRES_DSN       Feedback store DSN")
	fmt.Println("  PHISHSENSE_REDIS_ADDR         Retrain queue Redis address")
	fmt.Println("  PHISHSENSE_CONFIG             Optional YAML config file")
}

// ============================================================================
// Offline subcommands
// ============================================================================

func runScanURL(rawURL string) {
	vec := urlfeat.Extract(rawURL)
	printJSON(map[string]any{
		"url":      rawURL,
		"features": vec.Map(),
	})
}

func runScanFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open file: %v", err)
	}
	defer f.Close()

	cfg, err := config.NewDefaultConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	content, err := io.ReadAll(io.LimitReader(f, int64(cfg.MaxUploadBytes)))
	if err != nil {
		log.Fatalf("failed to read file: %v", err)
	}

	printJSON(filescan.Scan(path, content))
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("failed to encode output: %v", err)
	}
}

// ============================================================================
// HTTP server
// ============================================================================

// server holds the detection components. The trained-model collaborators and
// the feedback store are all optional; missing ones surface as explicit
// "unavailable" responses, never as silent default scores.
type server struct {
	cfg       *config.Config
	urlModel  *ml.ModelClient     // nil when no model service is configured
	textModel *ml.HugotClassifier // degraded instance when the model is missing
	lures     *ml.LureDetector    // nil unless lure similarity is enabled
	store     *feedback.Store     // nil when Postgres is not configured
	slots     *httputil.Semaphore // bounds concurrent scan/inference work
}

func newServer(cfg *config.Config) *server {
	s := &server{
		cfg:   cfg,
		slots: httputil.NewSemaphore(cfg.ScanSlots),
	}

	if cfg.ModelServiceURL != "" {
		s.urlModel = ml.NewModelClient(cfg.ModelServiceURL)
		log.Printf("url model service: %s", cfg.ModelServiceURL)
	} else {
		log.Printf("url model service not configured - /predict/url will report unavailable")
	}

	if cfg.TextModelPath != "" {
		s.textModel = ml.NewHugotClassifierWithFallback(ml.HugotConfig{
			ModelPath: cfg.TextModelPath,
			ModelName: cfg.TextModelName,
		})
	} else {
		log.Printf("text model not configured - email scoring uses headers only")
	}

	if cfg.EnableLures && s.urlModel != nil {
		lures, err := ml.NewLureDetector(s.urlModel)
		if err != nil {
			log.Printf("WARNING: lure detector init failed: %v", err)
		} else if err := lures.Seed(context.Background()); err != nil {
			log.Printf("WARNING: lure corpus seeding failed: %v", err)
		} else {
			s.lures = lures
		}
	}

	if cfg.PostgresDSN != "" {
		pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
		if err != nil {
			log.Printf("WARNING: feedback store unavailable: %v", err)
		} else {
			var queue *feedback.RetrainQueue
			if cfg.RedisAddr != "" {
				rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
				queue = feedback.NewRetrainQueue(rdb, "")
			}
			store := feedback.NewStore(pool, queue, int64(cfg.RetrainThreshold))
			if err := store.EnsureSchema(context.Background()); err != nil {
				log.Printf("WARNING: feedback schema setup failed: %v", err)
			} else {
				s.store = store
			}
		}
	}

	return s
}

func runServer(addr string) {
	cfg, err := config.NewDefaultConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if addr != "" {
		cfg.ListenAddr = addr
	}

	s := newServer(cfg)

	app := fiber.New(fiber.Config{
		AppName:   "phishsense",
		BodyLimit: cfg.MaxUploadBytes + 64*1024, // upload ceiling plus multipart overhead
	})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": Version})
	})

	app.Post("/predict/url", s.handlePredictURL)
	app.Post("/predict/email", s.handlePredictEmail)
	app.Post("/scan/file", s.handleScanFile)
	app.Post("/feedback", s.handleFeedback)

	log.Printf("phishsense v%s listening on %s", Version, cfg.ListenAddr)
	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// handlePredictURL extracts the 30-feature vector, asks the decision forest
// for a probability, and explains phishing verdicts via ranked attributions.
func (s *server) handlePredictURL(c fiber.Ctx) error {
	var req struct {
		URL string `json:"url"`
	}
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "url field is required"})
	}

	if err := s.slots.Acquire(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "server busy"})
	}
	defer s.slots.Release()

	vec := urlfeat.Extract(req.URL)

	if s.urlModel == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "url model unavailable"})
	}

	prob, err := s.urlModel.PredictProba(c.Context(), vec)
	if err != nil {
		if errors.Is(err, ml.ErrModelUnavailable) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "url model unavailable"})
		}
		log.Printf("url prediction failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "prediction failed"})
	}

	prediction := "safe"
	explanations := []string{}
	degraded := false
	if prob > s.cfg.PhishThreshold {
		prediction = "phishing"
		contribs, err := s.urlModel.RankContributions(c.Context(), vec)
		if err != nil {
			log.Printf("attribution failed: %v", err)
		}
		result := evidence.FromContributions(contribs)
		explanations = result.Reasons
		degraded = result.Degraded
	}

	return c.JSON(fiber.Map{
		"assessment_id": uuid.NewString(),
		"url":           req.URL,
		"risk_score":    round3(prob),
		"prediction":    prediction,
		"explanations":  explanations,
		"degraded":      degraded,
		"features":      vec.Map(),
	})
}

// handlePredictEmail combines header anomaly scoring with the text
// classifier (and optionally lure similarity); email risk is the max of the
// two channels since either alone is disqualifying.
func (s *server) handlePredictEmail(c fiber.Ctx) error {
	var req struct {
		BodyText string            `json:"body_text"`
		Headers  map[string]string `json:"headers"`
	}
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	if err := s.slots.Acquire(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "server busy"})
	}
	defer s.slots.Release()

	headerRes := headers.Assess(req.Headers)

	textRisk := 0.0
	textPrediction := "unknown"
	if s.textModel != nil {
		res, err := s.textModel.Classify(c.Context(), req.BodyText)
		switch {
		case errors.Is(err, ml.ErrModelUnavailable):
			// keep "unknown": header anomalies still score the email
		case err != nil:
			log.Printf("text classification failed: %v", err)
		default:
			textRisk = res.RiskScore
			textPrediction = "safe"
			if res.IsPhishing {
				textPrediction = "phishing"
			}
		}
	}

	explanations := append([]string{}, headerRes.Anomalies...)

	if s.lures != nil && s.lures.IsReady() && req.BodyText != "" {
		if match, err := s.lures.Detect(c.Context(), req.BodyText); err == nil && match.IsThreat {
			if float64(match.Score) > textRisk {
				textRisk = float64(match.Score)
			}
			explanations = append(explanations, fmt.Sprintf(
				"The message closely resembles a known %s lure.", match.Category))
		}
	}

	combined := textRisk
	if headerRes.Score > combined {
		combined = headerRes.Score
	}
	prediction := "safe"
	if combined > s.cfg.PhishThreshold {
		prediction = "phishing"
	}

	if textRisk > 0.5 && s.urlModel != nil {
		if tokens, err := s.urlModel.TokenScores(c.Context(), req.BodyText); err == nil {
			result := evidence.FromTokenScores(tokens)
			explanations = append(explanations, result.Reasons...)
		}
	}

	subject := req.Headers["Subject"]
	if subject == "" {
		subject = "Email"
	}

	return c.JSON(fiber.Map{
		"assessment_id":   uuid.NewString(),
		"url_or_subject":  subject,
		"risk_score":      round2(combined),
		"prediction":      prediction,
		"text_risk":       round2(textRisk),
		"text_prediction": textPrediction,
		"header_risk":     round2(headerRes.Score),
		"explanations":    explanations,
	})
}

// handleScanFile runs the static scanner over an uploaded file. The body
// limit enforces the documented 10 MiB scanned-content ceiling.
func (s *server) handleScanFile(c fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file field is required"})
	}

	if fh.Size > int64(s.cfg.MaxUploadBytes) {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "file exceeds scan size limit"})
	}

	if err := s.slots.Acquire(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "server busy"})
	}
	defer s.slots.Release()

	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to open upload"})
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, int64(s.cfg.MaxUploadBytes)))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to read upload"})
	}

	assessment := filescan.Scan(fh.Filename, content)
	return c.JSON(fiber.Map{
		"assessment_id": uuid.NewString(),
		"filename":      assessment.Filename,
		"size_bytes":    assessment.SizeBytes,
		"risk_score":    assessment.Score,
		"verdict":       assessment.Verdict,
		"detected_type": assessment.DetectedType,
		"entropy":       assessment.Entropy,
		"reasons":       assessment.Reasons,
	})
}

// handleFeedback stores a user label correction together with the feature
// vector extracted at prediction time. Retraining happens out-of-band when a
// batch fills up.
func (s *server) handleFeedback(c fiber.Ctx) error {
	var req struct {
		URL           string          `json:"url"`
		UserLabel     string          `json:"user_label"`
		PredictionWas string          `json:"prediction_was"`
		Features      map[string]int8 `json:"features"`
	}
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	if req.UserLabel != "safe" && req.UserLabel != "phishing" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_label must be 'safe' or 'phishing'"})
	}

	if s.store == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "feedback store unavailable"})
	}

	if req.Features == nil {
		// Re-derive so the training row is always complete.
		req.Features = urlfeat.Extract(req.URL).Map()
	}

	pending, err := s.store.Record(c.Context(), feedback.Correction{
		URL:           req.URL,
		UserLabel:     req.UserLabel,
		PredictionWas: req.PredictionWas,
		Features:      req.Features,
	})
	if err != nil {
		log.Printf("feedback store failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store feedback"})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"pending": pending,
	})
}

func round2(x float64) float64 { return float64(int(x*100+0.5)) / 100 }
func round3(x float64) float64 { return float64(int(x*1000+0.5)) / 1000 }
