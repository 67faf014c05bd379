package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/genricoloni/capview/internal/archive"
	"github.com/genricoloni/capview/internal/bookmark"
	"github.com/genricoloni/capview/internal/config"
	"github.com/genricoloni/capview/internal/display"
	"github.com/genricoloni/capview/internal/domain"
	"github.com/genricoloni/capview/internal/media"
	"github.com/genricoloni/capview/internal/navigator"
	"github.com/genricoloni/capview/internal/notify"
	"github.com/genricoloni/capview/internal/resolver"
	"github.com/genricoloni/capview/internal/resources"
	"github.com/genricoloni/capview/internal/scratch"
	"github.com/genricoloni/capview/internal/shell"
	"github.com/mattn/go-isatty"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// appOptions is the viewer's dependency graph
func appOptions(opts *viewOptions) fx.Option {
	return fx.Options(
		// Logger configuration
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),

		fx.Supply(opts, config.Path(opts.config)),

		// Provide dependencies
		fx.Provide(
			newLogger,
			fx.Annotate(config.NewAppConfig, fx.As(new(domain.Config))),
			newScratch,
			newPlaceholders,
			fx.Annotate(archive.NewZip, fx.As(new(domain.Archive))),
			fx.Annotate(media.NewClassifier, fx.As(new(domain.Classifier))),
			fx.Annotate(notify.NewDesktopNotifier, fx.As(fx.Self()), fx.As(new(domain.Notifier))),
			newViewportSize,
			media.NewOpener,
			newResolver,
			newNavigator,
			newShell,
		),

		// Lifecycle hooks
		fx.Invoke(registerHooks),
	)
}

// newLogger creates a development logger on a terminal and a production logger otherwise
func newLogger() (*zap.Logger, error) {
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newScratch takes the scratch lock; it is released, and the directory emptied, on stop
func newScratch(lc fx.Lifecycle, logger *zap.Logger, cfg domain.Config) (*scratch.Space, error) {
	sp, err := scratch.New(logger, cfg.GetScratchDir())
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return sp.Close()
		},
	})
	return sp, nil
}

func newPlaceholders(logger *zap.Logger, cfg domain.Config) (*resources.Placeholders, error) {
	return resources.Materialize(logger, cfg.GetResourceDir())
}

func newResolver(logger *zap.Logger, arc domain.Archive, sp *scratch.Space, ph *resources.Placeholders) *resolver.Resolver {
	return resolver.NewResolver(logger, arc, sp, ph)
}

func newNavigator(logger *zap.Logger, opts *viewOptions, res *resolver.Resolver, sp *scratch.Space) (*navigator.Navigator, error) {
	entries, err := navigator.ListDir(opts.dirname)
	if err != nil {
		return nil, err
	}
	return navigator.New(logger, entries, res, sp), nil
}

func newViewportSize(logger *zap.Logger, cfg domain.Config) domain.ScreenResolution {
	return display.ViewportSize(logger, cfg, display.PrimaryScreen)
}

func newShell(
	logger *zap.Logger,
	cfg domain.Config,
	nav *navigator.Navigator,
	opener *media.Opener,
	notifier domain.Notifier,
	size domain.ScreenResolution,
) *shell.Shell {
	return shell.New(logger, cfg, nav, opener, notifier, size, os.Stdin, os.Stdout)
}

// starter is the part of the navigator that picks the first entry
type starter interface {
	First() (domain.CaptionPair, error)
	Random() (domain.CaptionPair, error)
	ByName(name string) (domain.CaptionPair, error)
}

// startEntry picks the first entry: --filename, then --begin, then the bookmark, then a random one
func startEntry(logger *zap.Logger, nav starter, opts *viewOptions) (domain.CaptionPair, error) {
	switch {
	case opts.filename != "":
		return nav.ByName(opts.filename)
	case opts.begin:
		return nav.First()
	}

	if !opts.ignoreMark {
		name, ok, err := bookmark.Load(opts.bookmark)
		switch {
		case err != nil:
			logger.Warn("Failed to read bookmark", zap.String("path", opts.bookmark), zap.Error(err))
		case ok:
			pair, err := nav.ByName(name)
			if err == nil || !errors.Is(err, domain.ErrNotFound) {
				return pair, err
			}
			logger.Warn("Bookmarked entry is gone, starting at random", zap.String("name", name))
		}
	}

	return nav.Random()
}

// registerHooks sets up application lifecycle hooks
func registerHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	logger *zap.Logger,
	opts *viewOptions,
	nav *navigator.Navigator,
	sh *shell.Shell,
	notifier *notify.DesktopNotifier,
) {
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			pair, err := startEntry(logger, nav, opts)
			if err != nil {
				cancel()
				close(done)
				return err
			}
			if err := sh.Show(ctx, pair); err != nil {
				logger.Error("Failed to display the first entry", zap.Error(err))
			}

			go func() {
				defer close(done)
				if err := sh.Run(runCtx); err != nil {
					logger.Error("Shell stopped with error", zap.Error(err))
				}
				if err := shutdowner.Shutdown(); err != nil {
					logger.Debug("Shutdown already requested", zap.Error(err))
				}
			}()

			logger.Info("Viewer started",
				zap.String("dir", opts.dirname),
				zap.Int("entries", nav.Len()))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down")
			cancel()
			select {
			case <-done:
			case <-ctx.Done():
				return ctx.Err()
			}

			if err := sh.Close(); err != nil {
				logger.Warn("Failed to close shell", zap.Error(err))
			}
			if err := notifier.Close(); err != nil {
				logger.Warn("Failed to close notifier", zap.Error(err))
			}

			if opts.noMarking || nav.Len() == 0 {
				return nil
			}
			path := opts.markingPath()
			if err := bookmark.Save(path, filepath.Base(nav.CurrentName())); err != nil {
				return err
			}
			logger.Info("Position saved", zap.String("bookmark", path))
			return nil
		},
	})
}
