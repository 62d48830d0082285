package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/icco/spot"
	"github.com/icco/spot/ai"
	"go.uber.org/zap"
)

// maxEngineBody caps the engine protocol request body.
const maxEngineBody = 4 << 10

// engines hands out a bridge to an engine that moves for a given side.
type engines interface {
	bridge(side spot.Owner) (*ai.Bridge, error)
	Close() error
}

func newEngines(cfg *Config, local map[spot.Owner]*ai.LocalGenerator) engines {
	opts := []ai.Option{ai.WithTimeout(cfg.EngineTimeout), ai.WithLogger(log)}

	switch {
	case cfg.EngineURL != "":
		log.Infow("using remote engine", "url", cfg.EngineURL)
		return &remoteEngines{url: cfg.EngineURL, opts: opts, bridges: map[spot.Owner]*ai.Bridge{}}
	case cfg.EngineCmd != "":
		log.Infow("using engine process", "cmd", cfg.EngineCmd)
		return &processEngines{
			args:    strings.Fields(cfg.EngineCmd),
			level:   cfg.EngineLevel,
			opts:    opts,
			procs:   map[spot.Owner]*ai.ProcessGenerator{},
			bridges: map[spot.Owner]*ai.Bridge{},
		}
	}

	le := &localEngines{bridges: map[spot.Owner]*ai.Bridge{}}
	for side, gen := range local {
		le.bridges[side] = ai.NewBridge(gen, opts...)
	}
	return le
}

type localEngines struct {
	bridges map[spot.Owner]*ai.Bridge
}

func (e *localEngines) bridge(side spot.Owner) (*ai.Bridge, error) {
	b, ok := e.bridges[side]
	if !ok {
		return nil, fmt.Errorf("%w: no engine for %s", spot.ErrInvalidPlayer, side)
	}
	return b, nil
}

func (e *localEngines) Close() error { return nil }

type remoteEngines struct {
	url  string
	opts []ai.Option

	mu      sync.Mutex
	bridges map[spot.Owner]*ai.Bridge
}

func (e *remoteEngines) bridge(side spot.Owner) (*ai.Bridge, error) {
	if !side.IsPlayer() {
		return nil, fmt.Errorf("%w: no engine for %s", spot.ErrInvalidPlayer, side)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if b, ok := e.bridges[side]; ok {
		return b, nil
	}
	gen := ai.NewRemoteGenerator(e.url)
	gen.Player = side
	b := ai.NewBridge(gen, e.opts...)
	e.bridges[side] = b
	return b, nil
}

func (e *remoteEngines) Close() error { return nil }

// processEngines runs one engine process per side and replaces a process once
// it has failed.
type processEngines struct {
	args  []string
	level string
	opts  []ai.Option

	mu      sync.Mutex
	procs   map[spot.Owner]*ai.ProcessGenerator
	bridges map[spot.Owner]*ai.Bridge
}

func (e *processEngines) bridge(side spot.Owner) (*ai.Bridge, error) {
	if !side.IsPlayer() {
		return nil, fmt.Errorf("%w: no engine for %s", spot.ErrInvalidPlayer, side)
	}
	if len(e.args) == 0 {
		return nil, fmt.Errorf("%w: empty engine command", ai.ErrEngineUnavailable)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if p, ok := e.procs[side]; ok {
		if p.Err() == nil {
			return e.bridges[side], nil
		}
		log.Infow("restarting engine process", "player", side.String(), zap.Error(p.Err()))
		_ = p.Close()
	}

	args := append(append([]string{}, e.args[1:]...), "--level", e.level, "--player", string(side.Code()))
	p, err := ai.StartProcess(e.args[0], args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrEngineUnavailable, err)
	}
	b := ai.NewBridge(p, e.opts...)
	e.procs[side] = p
	e.bridges[side] = b
	return b, nil
}

func (e *processEngines) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	for side, p := range e.procs {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("engine for %s: %w", side, err))
		}
		delete(e.procs, side)
	}
	return errors.Join(errs...)
}

// localGenerator picks the built-in generator for the player query parameter,
// PlayerTwo when it is absent.
func (a *app) localGenerator(r *http.Request) (*ai.LocalGenerator, error) {
	side := spot.PlayerTwo
	if q := r.URL.Query().Get("player"); q != "" {
		p, err := spot.ParseOwner(q)
		if err != nil {
			return nil, err
		}
		side = p
	}

	gen, ok := a.local[side]
	if !ok {
		return nil, fmt.Errorf("%w: no engine for %s", spot.ErrInvalidPlayer, side)
	}
	return gen, nil
}

type engineOp func(*ai.LocalGenerator, context.Context, string) (string, error)

// engineHandler serves one engine protocol request from the built-in
// generators. Bodies are bare protocol text.
func (a *app) engineHandler(op string, fn engineOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gen, err := a.localGenerator(r)
		if err != nil {
			if err := Renderer.Text(w, http.StatusBadRequest, err.Error()); err != nil {
				log.Errorw("failed to render text", zap.Error(err))
			}
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxEngineBody))
		if err != nil {
			log.Errorw("could not read body", zap.Error(err))
			if err := Renderer.Text(w, http.StatusBadRequest, err.Error()); err != nil {
				log.Errorw("failed to render text", zap.Error(err))
			}
			return
		}

		reply, err := fn(gen, r.Context(), strings.TrimSpace(string(body)))
		if err != nil {
			log.Errorw("engine request failed", "op", op, "payload", string(body), zap.Error(err))
			if err := Renderer.Text(w, http.StatusUnprocessableEntity, err.Error()); err != nil {
				log.Errorw("failed to render text", zap.Error(err))
			}
			return
		}

		if err := Renderer.Text(w, http.StatusOK, reply+"\n"); err != nil {
			log.Errorw("failed to render text", zap.Error(err))
		}
	}
}

// @Summary Ask the engine to move
// @Description Has the engine move now in a single player game, for example after a failed reply
// @Tags game
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Game slug identifier"
// @Success 200 {object} PlayResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} PlayResponse
// @Failure 502 {object} PlayResponse
// @Failure 504 {object} PlayResponse
// @Router /game/{slug}/ai-move [post]
func (a *app) aiMoveHandler(w http.ResponseWriter, r *http.Request) {
	slug := slugFromContext(r.Context())
	sess, ok := a.liveSession(w, slug)
	if !ok {
		return
	}

	out, err := sess.EngineMove(r.Context())
	a.respondPlay(w, slug, sess, out, err, nil)
}
