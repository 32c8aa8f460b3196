package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/dshills/anaclient/internal/protocol"
	"github.com/dshills/anaclient/internal/remote"
	"github.com/dshills/anaclient/internal/transport"
)

const (
	requestTimeout  = 2 * time.Minute
	shutdownTimeout = 5 * time.Second
)

// newClient builds a client for the configured engine. It does not start it.
func (c *cli) newClient() *remote.Client {
	engine := c.cfg.Engine
	tr := transport.NewProcessTransport(transport.EngineConfig{
		Command:     engine.Command,
		Args:        engine.Args,
		Env:         engine.Env,
		WorkDir:     engine.WorkDir,
		StopTimeout: engine.StopTimeout.Std(),
		RequestTime: engine.RequestTime,
	}, transport.WithLogger(c.log.WithName("transport")))

	opts := []remote.ClientOption{
		remote.WithLogger(c.log.WithName("client")),
		remote.WithMetrics(c.metrics),
		remote.WithWatchInterval(c.cfg.Client.WatchInterval.Std()),
	}
	if c.cfg.Client.VersionCheck {
		opts = append(opts, remote.WithVersionCheck(c.cfg.Client.MinVersion, c.cfg.Client.MaxVersion))
	}
	if c.trace {
		opts = append(opts, remote.WithTracer(newTracer(c.errOut)))
	}
	return remote.NewClient(tr, opts...)
}

// shutdown asks the engine to exit and forces it when it does not.
func (c *cli) shutdown(client *remote.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := client.Shutdown(ctx); err != nil {
		c.log.V(1).Info("Engine did not shut down cleanly", "error", err.Error())
		if err := client.Stop(); err != nil {
			c.log.Error(err, "Stopping engine failed")
		}
	}
}

// await issues a request through send and waits for its result.
func await[T any](ctx context.Context, send func(cb func(T, *protocol.RequestError)) string) (T, error) {
	type result struct {
		value T
		err   *protocol.RequestError
	}
	ch := make(chan result, 1)

	var zero T
	id := send(func(v T, rerr *protocol.RequestError) {
		ch <- result{value: v, err: rerr}
	})
	if id == "" {
		return zero, remote.ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	select {
	case r := <-ch:
		if r.err != nil {
			return zero, r.err
		}
		return r.value, nil
	case <-ctx.Done():
		return zero, fmt.Errorf("waiting for response to request %s: %w", id, ctx.Err())
	}
}

// awaitDone is await for requests without a result.
func awaitDone(ctx context.Context, send func(cb func(*protocol.RequestError)) string) error {
	_, err := await(ctx, func(cb func(struct{}, *protocol.RequestError)) string {
		return send(func(rerr *protocol.RequestError) { cb(struct{}{}, rerr) })
	})
	return err
}

// tracer prints raw traffic, one pretty-printed JSON document per message.
type tracer struct {
	mu  sync.Mutex
	out io.Writer
}

func newTracer(out io.Writer) remote.Tracer {
	t := &tracer{out: out}
	return remote.TraceFuncs{
		OnRequest: t.request,
		OnMessage: t.message,
	}
}

func (t *tracer) request(req protocol.Request) {
	data, err := protocol.EncodeRequest(req)
	if err != nil {
		return
	}
	t.print("-->", data)
}

func (t *tracer) message(msg gjson.Result) {
	t.print("<--", []byte(msg.Raw))
}

func (t *tracer) print(dir string, data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "%s %s", dir, pretty.Pretty(data))
}
