package ai

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/icco/spot"
)

// AIConfig holds configuration for the built-in generator.
type AIConfig struct {
	Level DifficultyLevel
	// Player is the side the generator moves for. It defaults to PlayerTwo,
	// the engine's side in single player games.
	Player spot.Owner
	// Seed feeds tie breaks and Beginner play. Zero picks a time based seed.
	Seed int64
}

// LocalGenerator is an in-process Generator. It reads and writes the same
// text a remote generator would.
type LocalGenerator struct {
	cfg AIConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewLocalGenerator builds a generator from cfg.
func NewLocalGenerator(cfg AIConfig) *LocalGenerator {
	if !cfg.Player.IsPlayer() {
		cfg.Player = spot.PlayerTwo
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &LocalGenerator{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// Config returns the generator settings.
func (g *LocalGenerator) Config() AIConfig {
	return g.cfg
}

// GenerateMove implements Generator.
func (g *LocalGenerator) GenerateMove(ctx context.Context, board string) (string, error) {
	b, err := spot.ParseBoard(board)
	if err != nil {
		return "", err
	}

	m, err := g.BestMove(ctx, b)
	if err != nil {
		return "", err
	}
	return m.String(), nil
}

// InvertPlayer implements Generator.
func (g *LocalGenerator) InvertPlayer(ctx context.Context, player string) (string, error) {
	p, err := spot.ParseOwner(player)
	if err != nil {
		return "", err
	}
	return string(spot.InvertPlayer(p).Code()), nil
}

// BestMove picks a move for the configured player on b.
func (g *LocalGenerator) BestMove(ctx context.Context, b spot.Board) (spot.Move, error) {
	me := g.cfg.Player
	moves := spot.LegalMoves(b, me)
	if len(moves) == 0 {
		return spot.Move{}, fmt.Errorf("%w for %s", ErrNoLegalMoves, me)
	}

	if g.cfg.Level == Beginner {
		return moves[g.intn(len(moves))], nil
	}

	best := math.MinInt
	var candidates []spot.Move
	for _, m := range moves {
		if err := ctx.Err(); err != nil {
			return spot.Move{}, err
		}

		after, err := spot.ApplyMove(b, m, me)
		if err != nil {
			return spot.Move{}, err
		}

		score := material(after, me)
		if g.cfg.Level >= Advanced {
			score = worstReply(after, me)
		}

		switch {
		case score > best:
			best = score
			candidates = append(candidates[:0], m)
		case score == best:
			candidates = append(candidates, m)
		}
	}

	return candidates[g.intn(len(candidates))], nil
}

func (g *LocalGenerator) intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Intn(n)
}

// material is how many more cells me holds than the opponent.
func material(b spot.Board, me spot.Owner) int {
	return b.Count(me) - b.Count(spot.InvertPlayer(me))
}

// worstReply is the material me is left with after the opponent's best
// answer on b.
func worstReply(b spot.Board, me spot.Owner) int {
	opp := spot.InvertPlayer(me)
	replies := spot.LegalMoves(b, opp)
	if len(replies) == 0 {
		return material(b, me)
	}

	worst := math.MaxInt
	for _, r := range replies {
		after, err := spot.ApplyMove(b, r, opp)
		if err != nil {
			continue
		}
		if s := material(after, me); s < worst {
			worst = s
		}
	}
	return worst
}
