package main

import (
	"encoding/json"
	"fmt"

	"github.com/icco/spot"
	"github.com/icco/spot/play"
	"github.com/ifo/sanic"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"moul.io/zapgorm2"
)

// Move sources.
const (
	sourceHuman  = "human"
	sourceEngine = "engine"
)

var slugs = sanic.NewWorker7()

func openDB(dsn string) (*gorm.DB, error) {
	zl := zapgorm2.New(log.Desugar())
	zl.SetAsDefault()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: zl.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// An in-memory database lives as long as its one connection.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to run auto-migration: %w", err)
	}

	return db, nil
}

func createSession(db *gorm.DB, mode play.Mode, human spot.Owner, state spot.GameState) (*Session, error) {
	sess := &Session{
		Slug:  slugs.IDString(slugs.NextID()),
		Mode:  mode.String(),
		Human: int(human),
		Size:  state.Board.Size(),
	}
	if err := sess.setState(state); err != nil {
		return nil, err
	}

	if err := db.Create(sess).Error; err != nil {
		return nil, err
	}
	return sess, nil
}

func getSession(db *gorm.DB, slug string) (*Session, error) {
	var sess Session
	if err := db.Where("slug = ?", slug).First(&sess).Error; err != nil {
		return nil, err
	}
	return &sess, nil
}

func getMoves(db *gorm.DB, slug string) ([]Move, error) {
	sess, err := getSession(db, slug)
	if err != nil {
		return nil, err
	}

	var moves []Move
	if err := db.Where("session_id = ?", sess.ID).Order("seq").Find(&moves).Error; err != nil {
		return nil, err
	}
	return moves, nil
}

// recordOutcome stores the state after out along with any moves it committed.
// before is the state the input was applied to.
func recordOutcome(db *gorm.DB, slug string, before spot.GameState, out play.Outcome) error {
	return db.Transaction(func(tx *gorm.DB) error {
		sess, err := getSession(tx, slug)
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&Move{}).Where("session_id = ?", sess.ID).Count(&count).Error; err != nil {
			return err
		}

		mover := before.Turn
		board := before.Board
		for _, c := range []struct {
			source string
			move   *spot.Move
		}{{sourceHuman, out.Human}, {sourceEngine, out.Engine}} {
			if c.move == nil {
				continue
			}
			if board, err = spot.ApplyMove(board, *c.move, mover); err != nil {
				return err
			}
			count++
			row := Move{
				SessionID: sess.ID,
				Seq:       int(count),
				Player:    int(mover),
				Source:    c.source,
				Text:      c.move.String(),
				Board:     board.Serialize(),
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			mover = spot.InvertPlayer(mover)
		}

		if err := sess.setState(out.State); err != nil {
			return err
		}
		return tx.Model(sess).Select("board", "turn", "selection").Updates(sess).Error
	})
}

func (s *Session) setState(g spot.GameState) error {
	sel, err := json.Marshal(g.Selection)
	if err != nil {
		return err
	}
	s.Board = g.Board.Serialize()
	s.Turn = int(g.Turn)
	s.Selection = string(sel)
	return nil
}

// GameState rebuilds the stored game.
func (s *Session) GameState() (spot.GameState, error) {
	b, err := spot.ParseBoard(s.Board)
	if err != nil {
		return spot.GameState{}, err
	}

	g := spot.GameState{Board: b, Turn: spot.Owner(s.Turn), Selection: spot.NoSelection()}
	if !g.Turn.IsPlayer() {
		return spot.GameState{}, fmt.Errorf("%w: stored turn %d", spot.ErrInvalidPlayer, s.Turn)
	}
	if s.Selection != "" {
		if err := json.Unmarshal([]byte(s.Selection), &g.Selection); err != nil {
			return spot.GameState{}, err
		}
	}
	return g, nil
}
