package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/icco/spot"
	"github.com/icco/spot/ai"
	"github.com/icco/spot/play"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateGameRequest represents the request body for creating a new game
type CreateGameRequest struct {
	Size  int    `json:"size" example:"7"`
	Mode  string `json:"mode" example:"single"`
	First int    `json:"first" example:"1"`
	Human int    `json:"human" example:"1"`
}

// GameResponse is a game as clients see it.
type GameResponse struct {
	Slug  string         `json:"slug"`
	Mode  string         `json:"mode"`
	Human int            `json:"human,omitempty"`
	Game  spot.GameState `json:"game"`
}

// NewGameResponse carries the token needed to play the new game.
type NewGameResponse struct {
	GameResponse
	Token  string     `json:"token"`
	Engine *spot.Move `json:"engine,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// PlayResponse is the result of one input.
type PlayResponse struct {
	GameResponse
	Human   *spot.Move `json:"human,omitempty"`
	Engine  *spot.Move `json:"engine,omitempty"`
	Ignored string     `json:"ignored,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// ClickRequest is a click on a board cell.
type ClickRequest struct {
	Row *int `json:"row" example:"0"`
	Col *int `json:"col" example:"0"`
}

// MoveRequest represents the request body for making a move
type MoveRequest struct {
	Text string `json:"move" example:"0,0>1,1"`
}

// MovesResponse lists the committed moves of a game.
type MovesResponse struct {
	Slug  string `json:"slug"`
	Moves []Move `json:"moves"`
}

func renderError(w http.ResponseWriter, status int, msg string) {
	if err := Renderer.JSON(w, status, ErrorResponse{Error: msg}); err != nil {
		log.Errorw("failed to render JSON", zap.Error(err))
	}
}

func lookupStatus(err error) int {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// @Summary Create a new game
// @Description Starts a game and returns the token that drives it. In a single player game where the engine moves first, its move is made before the response is sent.
// @Tags game
// @Accept json
// @Produce json
// @Param game body CreateGameRequest false "Game configuration"
// @Success 200 {object} NewGameResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /game/new [post]
func (a *app) newGameHandler(w http.ResponseWriter, r *http.Request) {
	var data CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil && !errors.Is(err, io.EOF) {
		log.Errorw("could not read body", zap.Error(err))
		renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	mode, err := play.ParseMode(data.Mode)
	if err != nil {
		renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	size := a.cfg.EdgeSize
	if data.Size != 0 {
		size = data.Size
	}
	first := spot.PlayerOne
	if data.First != 0 {
		first = spot.Owner(data.First)
	}
	human := spot.PlayerOne
	if data.Human != 0 {
		human = spot.Owner(data.Human)
	}
	if !human.IsPlayer() {
		renderError(w, http.StatusBadRequest, "human must be player 1 or 2")
		return
	}

	state, err := spot.NewGame(size, first)
	if err != nil {
		renderError(w, http.StatusBadRequest, err.Error())
		return
	}
	if mode == play.HotSeat {
		human = spot.NoOne
	}

	row, err := createSession(a.db.WithContext(r.Context()), mode, human, state)
	if err != nil {
		log.Errorw("could not create game", zap.Error(err))
		renderError(w, http.StatusInternalServerError, "could not create game")
		return
	}

	sess, err := a.startSession(row, state)
	if err != nil {
		log.Errorw("could not start game", "slug", row.Slug, zap.Error(err))
		renderError(w, http.StatusBadGateway, err.Error())
		return
	}

	token, err := a.tokens.issue(row.Slug)
	if err != nil {
		log.Errorw("could not issue token", "slug", row.Slug, zap.Error(err))
		renderError(w, http.StatusInternalServerError, "could not issue token")
		return
	}

	resp := NewGameResponse{Token: token}
	if mode == play.SinglePlayer && state.Turn != human {
		out, err := sess.EngineMove(r.Context())
		resp.Engine = out.Engine
		if err != nil {
			resp.Error = err.Error()
		}
	}
	resp.GameResponse = a.view(row.Slug, sess, sess.State())

	log.Infow("game created", "slug", row.Slug, "mode", mode.String(), "size", size, "first", first.String())
	if err := Renderer.JSON(w, http.StatusOK, resp); err != nil {
		log.Errorw("failed to render JSON", zap.Error(err))
	}
}

// @Summary Get game state
// @Description Returns the current state of a game
// @Tags game
// @Produce json
// @Param slug path string true "Game slug identifier"
// @Success 200 {object} GameResponse
// @Failure 404 {object} ErrorResponse
// @Router /game/{slug} [get]
func (a *app) getGameHandler(w http.ResponseWriter, r *http.Request) {
	slug := ugcPolicy.Sanitize(chi.URLParamFromCtx(r.Context(), "slug"))

	row, err := getSession(a.db.WithContext(r.Context()), slug)
	if err != nil {
		log.Errorw("could not get game", "slug", slug, zap.Error(err))
		renderError(w, lookupStatus(err), "could not get game")
		return
	}

	state, err := row.GameState()
	if err != nil {
		log.Errorw("stored game is corrupt", "slug", slug, zap.Error(err))
		renderError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := GameResponse{Slug: row.Slug, Mode: row.Mode, Human: row.Human, Game: state}
	if err := Renderer.JSON(w, http.StatusOK, resp); err != nil {
		log.Errorw("failed to render JSON", zap.Error(err))
	}
}

// @Summary Get move history
// @Description Returns every committed move in order with the board after it
// @Tags game
// @Produce json
// @Param slug path string true "Game slug identifier"
// @Success 200 {object} MovesResponse
// @Failure 404 {object} ErrorResponse
// @Router /game/{slug}/moves [get]
func (a *app) getMovesHandler(w http.ResponseWriter, r *http.Request) {
	slug := ugcPolicy.Sanitize(chi.URLParamFromCtx(r.Context(), "slug"))

	moves, err := getMoves(a.db.WithContext(r.Context()), slug)
	if err != nil {
		log.Errorw("could not get moves", "slug", slug, zap.Error(err))
		renderError(w, lookupStatus(err), "could not get moves")
		return
	}

	if err := Renderer.JSON(w, http.StatusOK, MovesResponse{Slug: slug, Moves: moves}); err != nil {
		log.Errorw("failed to render JSON", zap.Error(err))
	}
}

// @Summary Click a cell
// @Description Selects, deselects or targets a cell. Clicks that do nothing are answered with ignored set.
// @Tags game
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Game slug identifier"
// @Param click body ClickRequest true "Cell"
// @Success 200 {object} PlayResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} PlayResponse
// @Failure 502 {object} PlayResponse
// @Failure 504 {object} PlayResponse
// @Router /game/{slug}/click [post]
func (a *app) clickHandler(w http.ResponseWriter, r *http.Request) {
	slug := slugFromContext(r.Context())

	var data ClickRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		log.Errorw("could not read body", zap.Error(err))
		renderError(w, http.StatusBadRequest, err.Error())
		return
	}
	if data.Row == nil || data.Col == nil {
		renderError(w, http.StatusBadRequest, "row and col are required")
		return
	}

	sess, ok := a.liveSession(w, slug)
	if !ok {
		return
	}

	out, err := sess.Click(r.Context(), spot.Cell{Row: *data.Row, Col: *data.Col})
	a.respondPlay(w, slug, sess, out, err, []error{spot.ErrIllegalSelection, spot.ErrIllegalTarget})
}

// @Summary Make a move in a game
// @Description Commits a move for the side to move
// @Tags game
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Game slug identifier"
// @Param move body MoveRequest true "Move in r,c>r,c form"
// @Success 200 {object} PlayResponse
// @Failure 400 {object} PlayResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} PlayResponse
// @Failure 502 {object} PlayResponse
// @Failure 504 {object} PlayResponse
// @Router /game/{slug}/move [post]
func (a *app) moveHandler(w http.ResponseWriter, r *http.Request) {
	slug := slugFromContext(r.Context())

	var data MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		log.Errorw("could not read body", zap.Error(err))
		renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	m, err := spot.ParseMove(data.Text)
	if err != nil {
		renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, ok := a.liveSession(w, slug)
	if !ok {
		return
	}

	out, err := sess.Move(r.Context(), m)
	a.respondPlay(w, slug, sess, out, err, nil)
}

func (a *app) view(slug string, sess *play.Session, state spot.GameState) GameResponse {
	resp := GameResponse{Slug: slug, Mode: sess.Mode().String(), Game: state}
	if sess.Mode() == play.SinglePlayer {
		resp.Human = int(sess.Human())
	}
	return resp
}

// respondPlay renders the result of an input. Errors in ignore are no-ops and
// answered with 200.
func (a *app) respondPlay(w http.ResponseWriter, slug string, sess *play.Session, out play.Outcome, err error, ignore []error) {
	resp := PlayResponse{
		GameResponse: a.view(slug, sess, out.State),
		Human:        out.Human,
		Engine:       out.Engine,
	}

	status := http.StatusOK
	switch {
	case err == nil:
	case isAny(err, ignore):
		resp.Ignored = err.Error()
	case errors.Is(err, play.ErrBusy), errors.Is(err, play.ErrNotYourTurn):
		status = http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, ai.ErrEngineUnavailable),
		errors.Is(err, ai.ErrMalformedEngineResponse),
		errors.Is(err, ai.ErrEngineIllegalMove):
		status = http.StatusBadGateway
	case errors.Is(err, spot.ErrIllegalSelection),
		errors.Is(err, spot.ErrIllegalTarget),
		errors.Is(err, spot.ErrInvalidPlayer):
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}
	if err != nil && resp.Ignored == "" {
		resp.Error = err.Error()
	}
	if status >= http.StatusInternalServerError {
		log.Errorw("input failed", "slug", slug, "status", status, zap.Error(err))
	}

	if err := Renderer.JSON(w, status, resp); err != nil {
		log.Errorw("failed to render JSON", zap.Error(err))
	}
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
