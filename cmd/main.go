package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/voicearena/server/adapters/embedding"
	"github.com/voicearena/server/adapters/llm"
	"github.com/voicearena/server/adapters/profiles"
	"github.com/voicearena/server/adapters/stt"
	"github.com/voicearena/server/adapters/tts"
	"github.com/voicearena/server/domain/repositories"
	"github.com/voicearena/server/internal/api"
	"github.com/voicearena/server/internal/auth"
	"github.com/voicearena/server/internal/choreo"
	"github.com/voicearena/server/internal/commands"
	"github.com/voicearena/server/internal/config"
	"github.com/voicearena/server/internal/narrator"
	"github.com/voicearena/server/internal/pipeline"
	"github.com/voicearena/server/internal/speakers"
	"github.com/voicearena/server/internal/websocket"
)

// recognitionWorkers bounds concurrent model work across all connections.
// Two workers let one window's speaker-ID and transcription run in parallel.
const recognitionWorkers = 2

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	var logger *zap.Logger
	if cfg.Server.LogLevel == "debug" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	ctx := context.Background()

	// Profile store
	store, err := profiles.NewBadgerStore(profiles.Options{Dir: cfg.Store.Path}, logger)
	if err != nil {
		logger.Fatal("Failed to open profile store", zap.Error(err))
	}
	defer store.Close()

	// Transcription backend, mock when Google credentials are absent
	var transcriber repositories.Transcriber
	if googleSTT, err := stt.NewGoogleTranscriber(ctx, logger); err == nil {
		transcriber = googleSTT
		defer googleSTT.Close()
	} else {
		logger.Warn("Google Speech unavailable, using mock transcriber", zap.Error(err))
		transcriber = stt.NewMockTranscriber(logger)
	}

	// Generation backend, mock when no API key is configured
	var model repositories.LargeLanguageModel
	if cfg.Gemini.APIKey != "" {
		gemini, err := llm.NewGeminiLLM(cfg.Gemini.APIKey, cfg.Gemini.Model, logger)
		if err != nil {
			logger.Fatal("Failed to create Gemini client", zap.Error(err))
		}
		model = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set, using mock LLM")
		model = llm.NewMockGeminiLLM(logger)
	}

	// Embedding sidecar
	var extractor repositories.EmbeddingExtractor
	if cfg.Embedding.ServiceURL != "" {
		extractor = embedding.NewHTTPExtractor(cfg.Embedding.ServiceURL, logger)
	} else {
		logger.Warn("EMBEDDING_SERVICE_URL not set, using mock extractor")
		extractor = embedding.NewMockExtractor(logger)
	}

	// Commentary is optional; it needs a synthesis backend
	var narr *narrator.Narrator
	if cfg.Eleven.APIKey != "" {
		elevenTTS, err := tts.NewElevenLabsTTS(tts.ElevenLabsConfig{
			APIKey:  cfg.Eleven.APIKey,
			VoiceID: cfg.Eleven.VoiceID,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create Eleven Labs client", zap.Error(err))
		}
		narr = narrator.New(model, elevenTTS, logger)
	} else {
		logger.Info("ELEVENLABS_API_KEY not set, narration disabled")
	}

	// Recognition machinery shared by all connections
	pool := pipeline.NewPool(recognitionWorkers)
	defer pool.Close()

	parser := commands.NewParser(transcriber, model, cfg.Commands.Valid, logger)
	matcher := speakers.NewMatcher(cfg.Speakers.MatchThreshold)
	recognizer := pipeline.NewRecognizer(pool, matcher, extractor, store, parser, cfg.Audio.SampleRate, logger)
	processor := choreo.NewProcessor(transcriber, choreo.NewGenerator(model, logger), cfg.Audio.SampleRate, logger)
	enrollment := speakers.NewEnrollment(extractor, store, logger)

	hub := websocket.NewHub(recognizer, processor, enrollment, store, narr, websocket.Config{
		SampleRate:           cfg.Audio.SampleRate,
		WindowSeconds:        cfg.Audio.WindowSeconds,
		EnrollmentMinSeconds: cfg.Audio.EnrollmentMinSeconds,
		PlayerAssignments:    cfg.Speakers.Assignments,
	}, logger)
	go hub.Run()

	// Periodic value-log compaction for the embedded store
	gcTicker := time.NewTicker(10 * time.Minute)
	defer gcTicker.Stop()
	go func() {
		for range gcTicker.C {
			store.RunGC()
		}
	}()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	authn := auth.New(cfg.Auth.JWTSecret)
	api.InitRoutes(e, hub, store, authn, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Server.Port),
		zap.Int("sampleRate", cfg.Audio.SampleRate),
		zap.Bool("authEnabled", authn.Enabled()))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
