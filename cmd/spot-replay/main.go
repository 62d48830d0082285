// Command spot-replay plays a file of moves from the starting position and
// prints the board after each one.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/icco/spot"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
)

type options struct {
	Filename flags.Filename `short:"f" long:"filename" description:"File of moves, one r,c>r,c per line" required:"true"`
	Size     int            `long:"size" default:"7" description:"Board edge size"`
	First    int            `long:"first" default:"1" description:"Player who moves first"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	log := logger.Sugar()

	file, err := os.Open(string(opts.Filename))
	if err != nil {
		log.Fatalw("could not open moves", "file", opts.Filename, zap.Error(err))
	}
	defer file.Close()

	if err := replay(file, os.Stdout, opts.Size, spot.Owner(opts.First)); err != nil {
		log.Errorw("replay stopped", "file", opts.Filename, zap.Error(err))
		os.Exit(1)
	}
}

// replay commits each move in r for the side to move, writing the move number,
// mover, move and resulting board to w. Blank lines and # comments are
// skipped.
func replay(r io.Reader, w io.Writer, size int, first spot.Owner) error {
	g, err := spot.NewGame(size, first)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "0 - - %s\n", g.Board); err != nil {
		return err
	}

	scanner := bufio.NewScanner(r)
	line, n := 0, 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		m, err := spot.ParseMove(text)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		mover := g.Turn
		if g, err = g.Commit(m); err != nil {
			return fmt.Errorf("line %d: %s for %s: %w", line, m, mover, err)
		}

		n++
		if _, err := fmt.Fprintf(w, "%d %c %s %s\n", n, mover.Code(), m, g.Board); err != nil {
			return err
		}
	}

	return scanner.Err()
}
