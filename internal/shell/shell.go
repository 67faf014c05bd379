package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/genricoloni/capview/internal/domain"
	"github.com/genricoloni/capview/internal/navigator"
	"github.com/genricoloni/capview/internal/viewport"
	"go.uber.org/zap"
)

// Navigator is the navigation surface driven by shell commands
type Navigator interface {
	First() (domain.CaptionPair, error)
	Random() (domain.CaptionPair, error)
	Next() (domain.CaptionPair, error)
	Prev() (domain.CaptionPair, error)
	NextSub() (domain.CaptionPair, error)
	PrevSub() (domain.CaptionPair, error)
	Delete() (domain.CaptionPair, error)
	CurrentName() string
	CurrentSubName() (string, bool)
	SubIndex() int
	Position() navigator.Position
	Restore(pos navigator.Position) (domain.CaptionPair, error)
}

// Opener creates frame sources for resolved media
type Opener interface {
	Open(ctx context.Context, path string) (domain.FrameSource, error)
}

// Shell reads one command per line and applies it to the navigator and the current viewport.
// All navigation, decoding and rendering happens on the goroutine running Run.
type Shell struct {
	logger   *zap.Logger
	cfg      domain.Config
	nav      Navigator
	opener   Opener
	notifier domain.Notifier
	size     domain.ScreenResolution
	in       io.Reader
	out      io.Writer

	view          *viewport.Viewport
	pendingDelete bool
}

// New creates a shell rendering frames of the given viewport size
func New(
	logger *zap.Logger,
	cfg domain.Config,
	nav Navigator,
	opener Opener,
	notifier domain.Notifier,
	size domain.ScreenResolution,
	in io.Reader,
	out io.Writer,
) *Shell {
	return &Shell{
		logger:   logger,
		cfg:      cfg,
		nav:      nav,
		opener:   opener,
		notifier: notifier,
		size:     size,
		in:       in,
		out:      out,
	}
}

// Show displays pair: prints its caption and renders the first frame of its media
func (s *Shell) Show(ctx context.Context, pair domain.CaptionPair) error {
	s.closeView()

	if err := s.printCaption(pair.Caption); err != nil {
		return err
	}

	src, err := s.opener.Open(ctx, pair.Media)
	if err != nil {
		return err
	}
	s.view = viewport.New(s.logger, src, s.cfg.GetMinScale(), s.cfg.GetDefaultFrameDuration())

	return s.render()
}

// Run processes commands until quit, end of input or ctx cancellation.
// With redraw enabled, frames are re-rendered on the frame timer between commands.
func (s *Shell) Run(ctx context.Context) error {
	lines := make(chan string)
	go s.readLines(ctx, lines)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	s.schedule(timer)

	s.prompt()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Shell loop stopped")
			return nil

		case line, ok := <-lines:
			if !ok {
				s.logger.Info("Input closed")
				return nil
			}
			if s.Execute(ctx, line) {
				return nil
			}
			s.schedule(timer)
			s.prompt()

		case <-timer.C:
			if err := s.render(); err != nil {
				s.report(ctx, "redraw", err)
			}
			s.schedule(timer)
		}
	}
}

// Execute runs one command line and reports whether the shell should quit.
// Failures are reported and never end the loop.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	cmd := strings.ToLower(strings.TrimSpace(line))

	if s.pendingDelete {
		s.pendingDelete = false
		if cmd == "y" || cmd == "yes" {
			s.navigate(ctx, "delete", s.nav.Delete)
		} else {
			fmt.Fprintln(s.out, "Delete cancelled")
		}
		return false
	}

	w, h := s.size.Width, s.size.Height
	step := s.cfg.GetScrollStep()

	switch cmd {
	case "":
	case "quit", "exit":
		return true
	case "first":
		s.navigate(ctx, cmd, s.nav.First)
	case "random":
		s.navigate(ctx, cmd, s.nav.Random)
	case "next", "e":
		s.navigate(ctx, "next", s.nav.Next)
	case "prev", "q":
		s.navigate(ctx, "prev", s.nav.Prev)
	case "next-sub", "c":
		s.navigate(ctx, "next-sub", s.nav.NextSub)
	case "prev-sub", "z":
		s.navigate(ctx, "prev-sub", s.nav.PrevSub)
	case "delete", "x":
		s.pendingDelete = true
		fmt.Fprintf(s.out, "Deleting %s is permanent. Proceed? [y/N] ", filepath.Base(s.nav.CurrentName()))
	case "zoom-in", "r":
		s.transform(ctx, func(v *viewport.Viewport) { v.Zoom(s.cfg.GetZoomStep(), w, h) })
	case "zoom-out", "f":
		s.transform(ctx, func(v *viewport.Viewport) { v.Zoom(-s.cfg.GetZoomStep(), w, h) })
	case "w":
		s.transform(ctx, func(v *viewport.Viewport) { v.ScrollVert(-step, h) })
	case "s":
		s.transform(ctx, func(v *viewport.Viewport) { v.ScrollVert(step, h) })
	case "a":
		s.transform(ctx, func(v *viewport.Viewport) { v.ScrollHor(-step, w) })
	case "d":
		s.transform(ctx, func(v *viewport.Viewport) { v.ScrollHor(step, w) })
	case "redraw":
		s.transform(ctx, func(*viewport.Viewport) {})
	case "help", "?":
		fmt.Fprintln(s.out, usage)
	default:
		fmt.Fprintf(s.out, "Unknown command %q, type help for a list\n", cmd)
	}
	return false
}

// Close releases the current frame source
func (s *Shell) Close() error {
	s.closeView()
	return nil
}

const usage = `Commands:
  first, random            jump to the first or a random entry
  next (e), prev (q)       move between entries
  next-sub (c), prev-sub (z)
                           move between album members
  delete (x)               delete the current entry (asks for y)
  zoom-in (r), zoom-out (f)
  w, a, s, d               scroll up, left, down, right
  redraw                   render the next frame
  quit                     exit`

// navigate closes the current source before the navigator wipes scratch space.
// On failure the previous position is restored so something stays on screen.
func (s *Shell) navigate(ctx context.Context, action string, move func() (domain.CaptionPair, error)) {
	s.closeView()
	prev := s.nav.Position()

	pair, err := move()
	if err != nil {
		s.report(ctx, action, err)
		if pair, err = s.nav.Restore(prev); err != nil {
			s.report(ctx, "reload", err)
			return
		}
	}

	if err := s.Show(ctx, pair); err != nil {
		s.report(ctx, action, err)
	}
}

func (s *Shell) transform(ctx context.Context, apply func(*viewport.Viewport)) {
	if s.view == nil {
		fmt.Fprintln(s.out, "Nothing to display")
		return
	}
	apply(s.view)
	if err := s.render(); err != nil {
		s.report(ctx, "render", err)
	}
}

// render writes the next visible frame as PNG to the output path
func (s *Shell) render() error {
	if s.view == nil {
		return nil
	}

	frame, err := s.view.GetFrame(s.size.Width, s.size.Height)
	if err != nil {
		return err
	}

	output := s.cfg.GetOutputPath()
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return fmt.Errorf("%w: failed to create output directory: %w", domain.ErrIO, err)
	}

	// Written through a temp file so viewers never read a partial frame
	tmp := output + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("%w: failed to create frame file: %w", domain.ErrIO, err)
	}
	if err := imaging.Encode(f, frame, imaging.PNG); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: failed to encode frame: %w", domain.ErrIO, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: failed to write frame: %w", domain.ErrIO, err)
	}
	if err := os.Rename(tmp, output); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: failed to publish frame: %w", domain.ErrIO, err)
	}

	s.logger.Debug("Frame rendered",
		zap.String("path", output),
		zap.Int("w", frame.Bounds().Dx()),
		zap.Int("h", frame.Bounds().Dy()))
	return nil
}

func (s *Shell) printCaption(path string) error {
	text, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: failed to read caption: %w", domain.ErrIO, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Filename: %s\n", filepath.Base(s.nav.CurrentName()))
	if sub, ok := s.nav.CurrentSubName(); ok {
		fmt.Fprintf(&b, "Subfile %d: %s\n", s.nav.SubIndex(), sub)
	}
	b.WriteString("\n")
	b.Write(text)
	if len(text) > 0 && text[len(text)-1] != '\n' {
		b.WriteString("\n")
	}

	_, err = io.WriteString(s.out, b.String())
	return err
}

// report logs err, prints it and raises a desktop notification
func (s *Shell) report(ctx context.Context, action string, err error) {
	s.logger.Error("Command failed", zap.String("action", action), zap.Error(err))
	fmt.Fprintf(s.out, "%s failed: %v\n", action, err)

	if s.notifier == nil {
		return
	}
	if nerr := s.notifier.Notify(ctx, "capview: "+action+" failed", summarize(err)); nerr != nil {
		s.logger.Debug("Failed to send notification", zap.Error(nerr))
	}
}

func summarize(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "Not found: " + err.Error()
	case errors.Is(err, domain.ErrDecode):
		return "Cannot decode media: " + err.Error()
	case errors.Is(err, domain.ErrNotInAlbum):
		return "The current entry is not an album"
	default:
		return err.Error()
	}
}

func (s *Shell) schedule(timer *time.Timer) {
	if !s.cfg.GetRedraw() || s.view == nil {
		timer.Stop()
		return
	}
	timer.Reset(s.view.FrameDuration())
}

func (s *Shell) prompt() {
	fmt.Fprint(s.out, "> ")
}

func (s *Shell) closeView() {
	if s.view == nil {
		return
	}
	if err := s.view.Close(); err != nil {
		s.logger.Warn("Failed to close frame source", zap.Error(err))
	}
	s.view = nil
}

// readLines forwards input lines until EOF or cancellation, then closes lines
func (s *Shell) readLines(ctx context.Context, lines chan<- string) {
	defer close(lines)

	scanner := bufio.NewScanner(s.in)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		s.logger.Warn("Failed to read input", zap.Error(err))
	}
}
