package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hamed0406/healthwatch/internal/domain"
)

// Prompt is the interactive input mode: it reads one command per line.
type Prompt struct {
	In       io.Reader
	Out      io.Writer
	Services func() []domain.ServiceSnapshot
}

// Run handles commands until exit, EOF or ctx cancellation.
func (p *Prompt) Run(ctx context.Context) error {
	lines := make(chan string)
	errs := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		sc := bufio.NewScanner(p.In)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		errs <- sc.Err()
	}()

	for {
		fmt.Fprint(p.Out, "\nCmd: ")
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			return err
		case line := <-lines:
			if !p.handle(line) {
				return nil
			}
		}
	}
}

func (p *Prompt) handle(line string) bool {
	cmd := strings.ToLower(strings.TrimSpace(line))
	fmt.Fprintln(p.Out)
	switch cmd {
	case "list":
		PrintStatus(p.Out, p.Services())
	case "exit", "quit", "q":
		return false
	default:
		fmt.Fprintf(p.Out, "Invalid command: %s\n", cmd)
	}
	return true
}
