package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/icco/gutil/logging"
	"github.com/icco/spot"
	"github.com/icco/spot/ai"
	"github.com/icco/spot/cmd/server/docs"
	"github.com/icco/spot/play"
	"github.com/microcosm-cc/bluemonday"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/unrolled/render"
	"github.com/unrolled/secure"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// Renderer is a renderer for all occasions. These are our preferred default options.
	// See:
	//  - https://github.com/unrolled/render/blob/v1/README.md
	Renderer = render.New(render.Options{
		Charset:                   "UTF-8",
		DisableHTTPErrorRendering: false,
		IndentJSON:                false,
	})

	log       = logging.Must(logging.NewLogger(spot.Service))
	ugcPolicy = bluemonday.StrictPolicy()
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error" example:"could not get game"`
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Healthy  string `json:"healthy" example:"true"`
	Revision string `json:"revision,omitempty"`
	Tag      string `json:"tag,omitempty"`
	Branch   string `json:"branch,omitempty"`
}

// app is the server's state.
type app struct {
	cfg     *Config
	db      *gorm.DB
	tokens  *tokens
	local   map[spot.Owner]*ai.LocalGenerator
	engines engines

	mu   sync.Mutex
	live map[string]*play.Session
}

func newApp(cfg *Config) (*app, error) {
	level, err := ai.ParseLevel(cfg.EngineLevel)
	if err != nil {
		return nil, err
	}

	db, err := openDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not open db: %w", err)
	}

	toks, err := newTokens(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	local := map[spot.Owner]*ai.LocalGenerator{}
	for _, side := range []spot.Owner{spot.PlayerOne, spot.PlayerTwo} {
		local[side] = ai.NewLocalGenerator(ai.AIConfig{Level: level, Player: side, Seed: cfg.EngineSeed})
	}

	return &app{
		cfg:     cfg,
		db:      db,
		tokens:  toks,
		local:   local,
		engines: newEngines(cfg, local),
		live:    map[string]*play.Session{},
	}, nil
}

// Close stops engine processes and the database.
func (a *app) Close() error {
	errs := []error{a.engines.Close()}
	if sqlDB, err := a.db.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	return errors.Join(errs...)
}

// startSession builds a live session for row and keeps it.
func (a *app) startSession(row *Session, state spot.GameState) (*play.Session, error) {
	mode, err := play.ParseMode(row.Mode)
	if err != nil {
		return nil, err
	}

	human := spot.Owner(row.Human)
	var source play.BridgeSource
	if mode == play.SinglePlayer {
		side := spot.InvertPlayer(human)
		if _, err := a.engines.bridge(side); err != nil {
			return nil, err
		}
		// Looked up per move so a replaced engine process reaches live games.
		source = func() (*ai.Bridge, error) { return a.engines.bridge(side) }
	}

	slug := row.Slug
	sess := play.New(state, mode, nil,
		play.WithBridgeSource(source),
		play.WithHuman(human),
		play.WithEngineDelay(a.cfg.EngineDelay),
		play.WithLogger(log.With("slug", slug)),
		play.WithRecorder(func(ctx context.Context, before spot.GameState, out play.Outcome) error {
			return recordOutcome(a.db.WithContext(ctx), slug, before, out)
		}),
	)

	a.mu.Lock()
	defer a.mu.Unlock()
	if existing, ok := a.live[slug]; ok {
		return existing, nil
	}
	a.live[slug] = sess
	return sess, nil
}

// liveSession finds the session for slug, loading it from the database if
// needed. It renders the error itself when it returns false.
func (a *app) liveSession(w http.ResponseWriter, slug string) (*play.Session, bool) {
	a.mu.Lock()
	sess, ok := a.live[slug]
	a.mu.Unlock()
	if ok {
		return sess, true
	}

	row, err := getSession(a.db, slug)
	if err != nil {
		log.Errorw("could not get game", "slug", slug, zap.Error(err))
		renderError(w, lookupStatus(err), "could not get game")
		return nil, false
	}
	state, err := row.GameState()
	if err != nil {
		log.Errorw("stored game is corrupt", "slug", slug, zap.Error(err))
		renderError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}

	sess, err = a.startSession(row, state)
	if err != nil {
		log.Errorw("could not start game", "slug", slug, zap.Error(err))
		renderError(w, http.StatusBadGateway, err.Error())
		return nil, false
	}
	return sess, true
}

func (a *app) routes(metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(log.Desugar()))
	r.Use(middleware.Recoverer)

	r.Use(cors.New(cors.Options{
		AllowCredentials:   true,
		OptionsPassthrough: true,
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:     []string{"Link"},
		MaxAge:             300, // Maximum value not ignored by any of major browsers
	}).Handler)

	r.NotFound(notFoundHandler)

	// Probes and the engine protocol do not ssl redirect.
	r.Get("/healthz", healthCheckHandler)
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}
	r.Post(ai.MovePath, a.engineHandler("move", (*ai.LocalGenerator).GenerateMove))
	r.Post(ai.InvertPath, a.engineHandler("invert", (*ai.LocalGenerator).InvertPlayer))

	r.Group(func(r chi.Router) {
		r.Use(secure.New(secure.Options{
			BrowserXssFilter:     true,
			ContentTypeNosniff:   true,
			FrameDeny:            true,
			HostsProxyHeaders:    []string{"X-Forwarded-Host"},
			IsDevelopment:        a.cfg.IsDev(),
			SSLProxyHeaders:      map[string]string{"X-Forwarded-Proto": "https"},
			SSLRedirect:          !a.cfg.IsDev(),
			STSIncludeSubdomains: true,
			STSPreload:           true,
			STSSeconds:           315360000,
		}).Handler)

		r.Get("/", rootHandler)
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))

		r.Post("/game/new", a.newGameHandler)
		r.Get("/game/{slug}", a.getGameHandler)
		r.Get("/game/{slug}/moves", a.getMovesHandler)

		r.Group(func(r chi.Router) {
			r.Use(a.tokens.sessionAuth)
			r.Post("/game/{slug}/click", a.clickHandler)
			r.Post("/game/{slug}/move", a.moveHandler)
			r.Post("/game/{slug}/ai-move", a.aiMoveHandler)
		})
	})

	return r
}

// @title Spot API
// @version 1.0
// @description A Spot game server. Each game is driven by the bearer token returned when it is created.
// @contact.name API Support
// @contact.url http://github.com/icco/spot
// @license.name MIT
// @license.url https://github.com/icco/spot/blob/main/LICENSE
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token in format: Bearer {token}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalw("could not load config", zap.Error(err))
	}
	log.Infow("Starting up", "port", cfg.Port, "env", cfg.Env)

	metrics, shutdown, err := setupMetrics()
	if err != nil {
		log.Fatalw("could not set up metrics", zap.Error(err))
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Errorw("could not stop metrics", zap.Error(err))
		}
	}()

	a, err := newApp(cfg)
	if err != nil {
		log.Fatalw("could not start", zap.Error(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Errorw("could not shut down cleanly", zap.Error(err))
		}
	}()

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        otelhttp.NewHandler(a.routes(metrics), spot.Service),
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   cfg.EngineDelay + cfg.EngineTimeout + 15*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorw("server stopped", zap.Error(err))
	}
}

// @Summary Get API information
// @Description Returns basic API information and available endpoints
// @Tags info
// @Produce html
// @Success 200 {string} string "HTML page with API information"
// @Router / [get]
func rootHandler(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	b.WriteString(`<html>
  <head>
    <title>Spot API</title>
    <style>
      body { font-family: Arial, sans-serif; max-width: 800px; margin: 40px auto; padding: 20px; }
      .endpoint { margin: 20px 0; padding: 15px; border-left: 4px solid #007acc; background: #f8f9fa; }
      .method { font-weight: bold; color: #007acc; text-transform: uppercase; }
      .path { font-family: monospace; }
    </style>
  </head>
  <body>
    <h1>Spot API</h1>
    <p><a href="/swagger/">View Swagger Documentation</a></p>
`)

	spec, err := docs.GetSwaggerSpec()
	if err != nil {
		log.Errorw("failed to parse swagger.json", zap.Error(err))
	} else {
		paths := make([]string, 0, len(spec.Paths))
		for path := range spec.Paths {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		for _, path := range paths {
			for method, info := range spec.Paths[path] {
				fmt.Fprintf(&b, `    <div class="endpoint"><div class="method">%s</div><div class="path">%s</div><div>%s</div></div>
`, method, path, info.Summary)
			}
		}
	}
	b.WriteString("  </body>\n</html>\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(b.String())); err != nil {
		log.Errorw("failed to write response", zap.Error(err))
	}
}

// @Summary Health check
// @Description Returns service health status
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if err := Renderer.JSON(w, http.StatusOK, HealthResponse{
		Healthy:  "true",
		Revision: os.Getenv("GIT_REVISION"),
		Tag:      os.Getenv("GIT_TAG"),
		Branch:   os.Getenv("GIT_BRANCH"),
	}); err != nil {
		log.Errorw("failed to render JSON", zap.Error(err))
	}
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	renderError(w, http.StatusNotFound, "404: This page could not be found")
}
