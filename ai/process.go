package ai

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// ProcessGenerator runs an engine executable and talks the line protocol to
// it over stdin and stdout. Requests are serialized; the process is killed if
// a reply does not arrive before the request context ends, after which every
// call fails.
type ProcessGenerator struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	broken error
}

// StartProcess launches name with args. The engine's stderr is passed through
// to ours.
func StartProcess(name string, args ...string) (*ProcessGenerator, error) {
	return startProcess(exec.Command(name, args...))
}

func startProcess(cmd *exec.Cmd) (*ProcessGenerator, error) {
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine %s: %w", cmd.Path, err)
	}

	return &ProcessGenerator{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
	}, nil
}

// GenerateMove implements Generator.
func (p *ProcessGenerator) GenerateMove(ctx context.Context, board string) (string, error) {
	return p.roundTrip(ctx, opMove, board)
}

// InvertPlayer implements Generator.
func (p *ProcessGenerator) InvertPlayer(ctx context.Context, player string) (string, error) {
	return p.roundTrip(ctx, opInvert, player)
}

func (p *ProcessGenerator) roundTrip(ctx context.Context, op, payload string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.broken != nil {
		return "", p.broken
	}

	if _, err := io.WriteString(p.stdin, formatRequest(op, payload)); err != nil {
		p.fail(err)
		return "", p.broken
	}

	ch := make(chan reply, 1)
	go func() {
		line, err := p.stdout.ReadString('\n')
		ch <- reply{text: line, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			p.fail(r.err)
			return "", p.broken
		}
		return parseReply(r.text)
	case <-ctx.Done():
		p.fail(ctx.Err())
		// The reader goroutine returns once the killed process closes stdout.
		<-ch
		return "", p.broken
	}
}

// fail marks the process unusable and kills it. Callers hold p.mu.
func (p *ProcessGenerator) fail(err error) {
	p.broken = fmt.Errorf("%w: engine process: %w", ErrEngineUnavailable, err)
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
}

// Err reports why the process can no longer be used. It is nil while the
// process is healthy.
func (p *ProcessGenerator) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.broken
}

// Close stops the engine.
func (p *ProcessGenerator) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.broken == nil {
		p.broken = fmt.Errorf("%w: engine process closed", ErrEngineUnavailable)
	}
	_ = p.stdin.Close()
	err := p.cmd.Wait()

	var exit *exec.ExitError
	if errors.As(err, &exit) {
		// Killed or exited non-zero after we asked it to stop.
		return nil
	}
	return err
}
