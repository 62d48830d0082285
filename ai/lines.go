package ai

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Line protocol used between ProcessGenerator and an engine executable. Each
// request is one line, "move <board>" or "invert <code>", and each reply is
// one line holding the result or "error <message>".
const (
	opMove   = "move"
	opInvert = "invert"
	opError  = "error"
)

// errRemote is a failure reported by the engine itself.
var errRemote = errors.New("engine error")

func formatRequest(op, payload string) string {
	return op + " " + payload + "\n"
}

func parseReply(line string) (string, error) {
	line = strings.TrimRight(line, "\r\n")
	if msg, ok := strings.CutPrefix(line, opError+" "); ok {
		return "", fmt.Errorf("%w: %s", errRemote, msg)
	}
	if line == opError {
		return "", errRemote
	}
	return line, nil
}

// Serve answers line protocol requests from r on w using gen until r is
// exhausted or ctx is done. A failed request is answered with an error line
// and does not stop the loop.
func Serve(ctx context.Context, r io.Reader, w io.Writer, gen Generator) error {
	scanner := bufio.NewScanner(r)
	out := bufio.NewWriter(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		op, payload, _ := strings.Cut(line, " ")
		var (
			result string
			err    error
		)
		switch op {
		case opMove:
			result, err = gen.GenerateMove(ctx, payload)
		case opInvert:
			result, err = gen.InvertPlayer(ctx, payload)
		default:
			err = fmt.Errorf("unknown request %q", op)
		}

		if err != nil {
			result = opError + " " + strings.ReplaceAll(err.Error(), "\n", " ")
		}
		if _, err := fmt.Fprintln(out, result); err != nil {
			return err
		}
		if err := out.Flush(); err != nil {
			return err
		}
	}

	return scanner.Err()
}
