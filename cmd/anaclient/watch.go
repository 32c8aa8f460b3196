package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dshills/anaclient/internal/protocol"
	"github.com/dshills/anaclient/internal/remote"
)

var errEngineExited = errors.New("analysis engine exited")

func newWatchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "watch ROOT",
		Short: "Analyzes a directory and prints errors as the engine reports them",
		Long: `Sets ROOT as the only analysis root and prints every analysis.errors
notification until interrupted. When the supervisor is enabled, an engine
that dies is restarted and given the same root again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := absPaths(args)
			if err != nil {
				return err
			}
			info, err := os.Stat(root[0])
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", root[0])
			}

			client := c.newClient()
			client.AddListener(&printer{out: c.out})

			if c.cfg.Supervisor.Enabled {
				return c.superviseWatch(cmd.Context(), client, root[0])
			}
			return c.watch(cmd.Context(), client, root[0])
		},
	}
}

// watchSetup points the engine at root and subscribes to status updates.
func watchSetup(ctx context.Context, client *remote.Client, root string) error {
	err := awaitDone(ctx, func(cb func(*protocol.RequestError)) string {
		return client.AnalysisSetAnalysisRoots([]string{root}, nil, nil, cb)
	})
	if err != nil {
		return fmt.Errorf("setting analysis roots: %w", err)
	}

	err = awaitDone(ctx, func(cb func(*protocol.RequestError)) string {
		return client.ServerSetSubscriptions([]string{"STATUS"}, cb)
	})
	if err != nil {
		return fmt.Errorf("subscribing to status: %w", err)
	}
	return nil
}

func (c *cli) watch(ctx context.Context, client *remote.Client, root string) error {
	if err := client.Start(ctx); err != nil {
		return err
	}
	defer c.shutdown(client)

	if err := watchSetup(ctx, client, root); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return nil
	case <-client.Done():
		if client.StopRequested() {
			return nil
		}
		return errEngineExited
	}
}

func (c *cli) superviseWatch(ctx context.Context, client *remote.Client, root string) error {
	sc := c.cfg.Supervisor
	sup := remote.NewSupervisor(client, remote.SupervisorConfig{
		MaxRestarts:       sc.MaxRestarts,
		InitialBackoff:    sc.InitialBackoff.Std(),
		MaxBackoff:        sc.MaxBackoff.Std(),
		BackoffMultiplier: sc.BackoffMultiplier,
		ResetWindow:       sc.ResetWindow.Std(),
	},
		remote.WithSupervisorLogger(c.log.WithName("supervisor")),
		remote.WithRestartHook(func(ctx context.Context, client *remote.Client) error {
			return watchSetup(ctx, client, root)
		}),
	)

	if err := sup.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := sup.Stop(stopCtx); err != nil {
			c.log.Error(err, "Stopping engine failed")
		}
	}()

	if err := watchSetup(ctx, client, root); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sup.Events():
			if !ok {
				return nil
			}
			switch ev.Type {
			case remote.SupervisorEventRestarting:
				fmt.Fprintf(c.errOut, "engine died, restarting in %s (attempt %d)\n", ev.NextRetry, ev.Attempt)
			case remote.SupervisorEventRecovered:
				fmt.Fprintln(c.errOut, "engine restarted")
			case remote.SupervisorEventFailed:
				return fmt.Errorf("%w: gave up after %d attempts: %w", errEngineExited, ev.Attempt-1, ev.Error)
			}
		}
	}
}

// printer writes notifications from the engine as they arrive.
type printer struct {
	remote.BaseListener

	mu  sync.Mutex
	out io.Writer
}

func (p *printer) ServerConnected(sc protocol.ServerConnected) {
	p.printf("connected to analysis engine %s (pid %d)\n", sc.Version, sc.PID)
}

func (p *printer) ServerStatus(s protocol.ServerStatus) {
	if s.Analysis == nil {
		return
	}
	if s.Analysis.IsAnalyzing {
		p.printf("analyzing...\n")
	} else {
		p.printf("analysis complete\n")
	}
}

func (p *printer) ServerError(e protocol.ServerError) {
	p.printf("engine error: %s\n", e.Message)
}

func (p *printer) ServerCrashReport(e protocol.ServerError) {
	p.printf("engine crashed: %s\n%s\n", e.Message, e.StackTrace)
}

func (p *printer) ServerIncompatibleVersion(version string) {
	if version == "" {
		version = "unknown"
	}
	p.printf("analysis engine version %s is not supported\n", version)
}

func (p *printer) ComputedErrors(fe protocol.FileErrors) {
	p.mu.Lock()
	defer p.mu.Unlock()
	printErrors(p.out, fe.Errors)
}

func (p *printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}
