package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mschulkind/layman/internal/config"
	"github.com/mschulkind/layman/internal/control"
	"github.com/mschulkind/layman/internal/engine"
	"github.com/mschulkind/layman/internal/ipc"
	"github.com/mschulkind/layman/internal/logging"
	"github.com/mschulkind/layman/internal/state"
)

func main() {
	var (
		cfgPath  string
		logLevel string
		dryRun   bool
	)

	rootCmd := &cobra.Command{
		Use:           "layman",
		Short:         "Layout manager daemon for i3 and Sway",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfgPath, logLevel, dryRun)
		},
	}
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", config.DefaultPath(), "path to TOML config")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (trace|debug|info|warn|error), overrides config")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "log compositor commands instead of running them")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath, logLevel string, dryRun bool) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel()
	}
	logging.Setup(logLevel)
	logger := logging.NewLogger("main")

	cfgFullPath, err := filepath.Abs(cfgPath)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	cfgFullPath = filepath.Clean(cfgFullPath)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(cfgFullPath)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}
	if err := watcher.Add(cfgFullPath); err != nil {
		logger.Debugf("unable to watch config file directly: %v", err)
	}
	reloadRequests := make(chan string, 1)
	go watchConfig(logger, watcher, cfgFullPath, reloadRequests)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := ipc.NewClient(logging.NewLogger("ipc"))
	if err != nil {
		return fmt.Errorf("connect to compositor: %w", err)
	}
	defer client.Close()

	var conn engine.Conn = client
	if dryRun {
		logger.Info("dry run: compositor commands will be logged, not executed")
		conn = &dryRunConn{client: client, logger: logging.NewLogger("dry-run")}
	}

	queue := engine.NewQueue(64)
	eng, err := engine.New(conn, cfg, cfgFullPath, queue)
	if err != nil {
		return err
	}

	// Subscriptions go up before the engine takes its seed snapshot so no
	// event can fall between the two.
	events, err := ipc.Subscribe(ctx, logging.NewLogger("ipc.events"))
	if err != nil {
		return fmt.Errorf("subscribe to events: %w", err)
	}
	go func() {
		for ev := range events {
			ev := ev
			queue.Push(engine.Notification{Event: &ev})
		}
	}()

	ctrlSrv, err := control.NewServer(queue, cfg.ControlSocket())
	if err != nil {
		return fmt.Errorf("start control server: %w", err)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	reload := func(reason string) {
		logger.Infof("%s, reloading config", reason)
		queue.PushCommand("reload")
	}

	errs := make(chan error, 2)
	go func() {
		errs <- eng.Run(ctx)
	}()
	go func() {
		errs <- ctrlSrv.Serve(ctx)
	}()

	for {
		select {
		case err := <-errs:
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("engine exited: %w", err)
			}
			logger.Info("layman stopped")
			return nil
		case reason := <-reloadRequests:
			reload(reason)
		case sig := <-sigs:
			switch sig {
			case syscall.SIGHUP:
				reload("received SIGHUP")
			case os.Interrupt, syscall.SIGTERM:
				logger.Infof("received %s, shutting down", sig)
				cancel()
			}
		}
	}
}

// watchConfig debounces filesystem events on the config file into reload
// requests. Editors replace files with rename and create dances, so the
// whole directory is watched and filtered by name.
func watchConfig(logger *logrus.Entry, watcher *fsnotify.Watcher, target string, reloadRequests chan<- string) {
	const debounceWindow = 250 * time.Millisecond
	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerCh = timer.C
			} else {
				if !timer.Stop() {
					<-timerCh
				}
				timer.Reset(debounceWindow)
			}
		case <-timerCh:
			timer = nil
			timerCh = nil
			select {
			case reloadRequests <- "config file updated":
			default:
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("config watcher error: %v", err)
		}
	}
}

// dryRunConn logs commands instead of sending them. Tree reads still hit
// the compositor so layouts see real state.
type dryRunConn struct {
	client *ipc.Client
	logger *logrus.Entry
}

func (d *dryRunConn) Command(command string) error {
	d.logger.Infof("would run: %s", command)
	return nil
}

func (d *dryRunConn) Tree() (*state.Node, error) {
	return d.client.Tree()
}
