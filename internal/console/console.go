package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/zenit-dash/internal/probe"
	"github.com/woozymasta/zenit-dash/internal/report"
	"github.com/woozymasta/zenit-dash/internal/session"
)

const prompt = "zenit> "

// Console is an interactive loop over one session.
type Console struct {
	sess   *session.Session
	pinger probe.Pinger
	in     *bufio.Scanner
	out    io.Writer
	format report.Format
}

// New creates a Console reading commands from in and writing to out.
// A nil pinger disables single node pings.
func New(sess *session.Session, pinger probe.Pinger, in io.Reader, out io.Writer, format report.Format) *Console {
	return &Console{
		sess:   sess,
		pinger: pinger,
		in:     bufio.NewScanner(in),
		out:    out,
		format: format,
	}
}

// Run reads commands until quit, end of input or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	c.print(report.Snapshot(c.out, c.format, c.sess.Snapshot()))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, _ = fmt.Fprint(c.out, prompt)
		line, ok := c.readLine()
		if !ok {
			_, _ = fmt.Fprintln(c.out)
			return c.in.Err()
		}

		quit, err := c.Execute(ctx, line)
		if errors.Is(err, ErrEmpty) {
			continue
		}
		if err != nil {
			_, _ = fmt.Fprintf(c.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// Execute runs one command line and reports whether the console should stop.
func (c *Console) Execute(ctx context.Context, line string) (bool, error) {
	cmd, err := Parse(line)
	if err != nil {
		return false, err
	}

	log.Trace().Str("command", line).Msg("Console command")

	switch cmd.Action {
	case ActionQuit:
		return true, nil

	case ActionHelp:
		_, err := fmt.Fprintln(c.out, Help)
		return false, err

	case ActionShow:
		return false, report.Snapshot(c.out, c.format, c.sess.Snapshot())

	case ActionTable:
		snap := c.sess.Snapshot()
		if cmd.Event != nil {
			snap = c.sess.Dispatch(cmd.Event)
		}
		return false, report.Table(c.out, c.format, snap)

	case ActionRefresh:
		if err := c.sess.Refresh(ctx); err != nil {
			return false, err
		}
		return false, report.Snapshot(c.out, c.format, c.sess.Snapshot())

	case ActionFormat:
		f, err := report.ParseFormat(cmd.Format)
		if err != nil {
			return false, err
		}
		c.format = f
		return false, nil

	case ActionPingPage:
		results, err := c.sess.PingPage(ctx)
		if err != nil {
			return false, err
		}
		return false, report.Pings(c.out, c.format, results)
	}

	key, err := cmd.Target.Resolve(c.sess.Snapshot().Table)
	if err != nil {
		return false, err
	}

	switch cmd.Action {
	case ActionNode:
		rec, err := c.sess.Node(ctx, key)
		if err != nil {
			return false, err
		}
		return false, report.Node(c.out, c.format, *rec)

	case ActionDelete:
		if !c.confirm(fmt.Sprintf("Delete node %s? [y/N] ", key)) {
			_, err := fmt.Fprintln(c.out, "cancelled")
			return false, err
		}
		if err := c.sess.Delete(ctx, key); err != nil {
			return false, err
		}
		return false, report.Table(c.out, c.format, c.sess.Snapshot())

	case ActionPing:
		if c.pinger == nil {
			return false, session.ErrNoProber
		}
		info, err := c.pinger.Ping(ctx, key.IP, key.Port)
		if err != nil {
			return false, fmt.Errorf("%s is offline: %w", key, err)
		}
		return false, report.Info(c.out, c.format, info)
	}

	return false, nil
}

func (c *Console) confirm(question string) bool {
	_, _ = fmt.Fprint(c.out, question)
	answer, ok := c.readLine()
	if !ok {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (c *Console) readLine() (string, bool) {
	if !c.in.Scan() {
		return "", false
	}
	return c.in.Text(), true
}

func (c *Console) print(err error) {
	if err != nil {
		_, _ = fmt.Fprintf(c.out, "error: %v\n", err)
	}
}
