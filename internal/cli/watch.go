package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/worldloom/worldloom/pkg/engine"
	"github.com/worldloom/worldloom/pkg/errors"
	"github.com/worldloom/worldloom/pkg/graph"
	"github.com/worldloom/worldloom/pkg/pipeline"
	"github.com/worldloom/worldloom/pkg/publish"
)

// watchDebounce coalesces the burst of events editors emit on save.
const watchDebounce = 150 * time.Millisecond

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		lf         layoutFlags
		output     string
		publishURL string
	)

	cmd := &cobra.Command{
		Use:   "watch <world-file>",
		Short: "Recompute the layout whenever a world file changes",
		Long: `Watch a world file and recompute its layout on every change.

Each save submits a new layout request. Requests run concurrently and the
newest one wins, so a slow layout never overwrites a newer one. The current
layout is written to the output file after each publication.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.pipelineOptions()
			lf.apply(cmd, &opts)
			opts.WorldFile, opts.Source = args[0], ""
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			if opts.IsAll() {
				return errors.New(errors.ErrCodeInvalidStrategy, "watch computes a single strategy, not %q", opts.Strategy)
			}
			if output == "" {
				output = strings.TrimSuffix(opts.WorldFile, filepath.Ext(opts.WorldFile)) + ".layout.json"
			}
			if !cmd.Flags().Changed("publish") {
				publishURL = c.Config.Server.PublishRedisURL
			}
			return c.runWatch(cmd.Context(), opts, output, publishURL)
		},
	}

	lf.register(cmd, false)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVar(&publishURL, "publish", "", "also publish layouts to this Redis URL")

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, opts pipeline.Options, output, publishURL string) error {
	coord := engine.NewCoordinator(c.Logger, engine.ObserverFunc(func(s *engine.Snapshot) {
		if err := graph.WriteLayoutFile(graph.FromSnapshot(s), output); err != nil {
			printWarning("write %s: %v", output, err)
			return
		}
		printSuccess("Layout %d written (%d nodes, %s)", s.Seq, len(s.Nodes), s.Duration.Round(time.Millisecond))
	}))

	if publishURL != "" {
		pub, err := publish.NewRedisPublisher(ctx, publishURL, c.Config.Server.PublishChannel, c.Logger)
		if err != nil {
			return fmt.Errorf("connect publisher: %w", err)
		}
		defer pub.Close()
		coord.Subscribe(pub)
		printInfo("Publishing to %s", pub.Channel())
	}

	printInfo("Watching %s", opts.WorldFile)
	printFile(output)

	w := newWorldWatcher(opts, coord, loggerFromContext(ctx))
	err := w.Run(ctx)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// worldWatcher submits a layout request to a coordinator each time a world
// file changes.
type worldWatcher struct {
	path     string
	opts     pipeline.Options
	coord    *engine.Coordinator
	logger   *log.Logger
	debounce time.Duration
}

func newWorldWatcher(opts pipeline.Options, coord *engine.Coordinator, logger *log.Logger) *worldWatcher {
	return &worldWatcher{
		path:     opts.WorldFile,
		opts:     opts,
		coord:    coord,
		logger:   logger,
		debounce: watchDebounce,
	}
}

// Run blocks until ctx is cancelled or the watcher fails. In-flight
// requests are drained before it returns.
func (w *worldWatcher) Run(ctx context.Context) error {
	abs, err := filepath.Abs(w.path)
	if err != nil {
		return err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()
	defer w.coord.Wait()

	// Watch the directory: editors often replace the file instead of
	// writing it in place.
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	if w.opts.Select != "" {
		w.coord.Select(w.opts.Select)
	}
	w.submit(ctx)

	trigger := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			w.logger.Debug("world file changed", "file", ev.Name, "op", ev.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case <-trigger:
			w.submit(ctx)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "err", err)
		}
	}
}

// submit reads the world and hands it to the coordinator. An unreadable
// world keeps the last published layout.
func (w *worldWatcher) submit(ctx context.Context) {
	wld, err := graph.ReadWorldFile(w.path)
	if err != nil {
		w.logger.Warn("keeping last layout", "err", err)
		return
	}
	strategies := w.opts.Strategies()
	if len(strategies) != 1 {
		return
	}
	p := w.coord.Submit(ctx, wld.Elements, wld.Relationships, w.opts.Request(strategies[0]))
	w.logger.Debug("submitted layout", "seq", p.Seq, "elements", len(wld.Elements))
}
