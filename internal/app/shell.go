package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"feedgrid/internal/gallery"
)

const shellHelp = `commands:
  ls                  show the grid
  add FILE...         upload images (last file first)
  mv MOVED TARGET     drop MOVED onto TARGET's position
  order ID...         set the full order
  rm ID               remove an item
  undo | redo         step through history
  dark                toggle dark mode
  offset              cycle the grid offset
  help                show this help
  quit                leave the shell`

// Shell is a line-oriented session over one FeedApp. Keeping one process
// alive keeps one history timeline, so undo and redo span commands.
type Shell struct {
	app   *FeedApp
	in    io.Reader
	out   io.Writer
	color bool

	// Prompt is written before each line; empty disables it.
	Prompt string
}

// NewShell creates a shell reading commands from in and writing to out.
// color enables ANSI styling in grid output.
func NewShell(app *FeedApp, in io.Reader, out io.Writer, color bool) *Shell {
	return &Shell{app: app, in: in, out: out, color: color}
}

// Run reads commands until quit, EOF or ctx is done.
// Command errors are printed and the session continues.
func (s *Shell) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	for {
		if s.Prompt != "" {
			fmt.Fprint(s.out, s.Prompt)
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		quit, err := s.exec(ctx, fields[0], fields[1:])
		if err != nil {
			s.report(err)
		}
		if quit {
			return nil
		}
	}
}

func (s *Shell) exec(ctx context.Context, cmd string, args []string) (bool, error) {
	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help", "?":
		fmt.Fprintln(s.out, shellHelp)
		return false, nil
	case "ls":
		return false, s.show(ctx)
	case "add":
		if len(args) == 0 {
			return false, errors.New("usage: add FILE...")
		}
		created, err := s.app.Add(ctx, args)
		for _, it := range created {
			fmt.Fprintf(s.out, "added %s\n", it.ID)
		}
		return false, err
	case "mv":
		if len(args) != 2 {
			return false, errors.New("usage: mv MOVED TARGET")
		}
		return false, s.app.Move(ctx, args[0], args[1])
	case "order":
		return false, s.app.Reorder(ctx, args)
	case "rm":
		if len(args) != 1 {
			return false, errors.New("usage: rm ID")
		}
		return false, s.app.Remove(ctx, args[0])
	case "undo":
		ok, err := s.app.Undo(ctx)
		if !ok && err == nil {
			fmt.Fprintln(s.out, "nothing to undo")
		}
		return false, err
	case "redo":
		ok, err := s.app.Redo(ctx)
		if !ok && err == nil {
			fmt.Fprintln(s.out, "nothing to redo")
		}
		return false, err
	case "dark":
		on, err := s.app.ToggleDarkMode(ctx)
		if err == nil {
			fmt.Fprintf(s.out, "dark mode %s\n", onOff(on))
		}
		return false, err
	case "offset":
		n, err := s.app.CycleGridOffset(ctx)
		if err == nil {
			fmt.Fprintf(s.out, "grid offset %d\n", n)
		}
		return false, err
	default:
		return false, fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

func (s *Shell) show(ctx context.Context) error {
	dark, err := s.app.Preferences().DarkMode(ctx)
	if err != nil {
		return err
	}
	offset, err := s.app.Preferences().GridOffset(ctx)
	if err != nil {
		return err
	}
	if err := RenderGrid(s.out, s.app.IDs(), GridOptions{Offset: offset, Dark: dark, Color: s.color}); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "undo: %s  redo: %s\n", yesNo(s.app.CanUndo()), yesNo(s.app.CanRedo()))
	return nil
}

func (s *Shell) report(err error) {
	if errors.Is(err, gallery.ErrOrderNotPersisted) {
		fmt.Fprintf(s.out, "warning: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "error: %v\n", err)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
