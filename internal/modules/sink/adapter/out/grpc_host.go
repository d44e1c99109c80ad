package out

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	sinkrpc "pagetrack/internal/modules/sink/adapter/out/rpc"
	"pagetrack/internal/modules/sink/domain"
	sinkout "pagetrack/internal/modules/sink/port/out"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
)

type conn struct {
	client *plugin.Client
	sink   sinkrpc.SessionSinkClient
	binary string
}

// GRPCHost keeps one plugin process per sink alive between deliveries. A
// failed call drops the process so the next delivery starts a fresh one.
type GRPCHost struct {
	logger hclog.Logger

	mu    sync.Mutex
	conns map[string]*conn
}

// NewGRPCHost routes plugin process output to w at level ("" silences it).
func NewGRPCHost(w io.Writer, level string) sinkout.Host {
	lvl := hclog.LevelFromString(level)
	if w == nil || level == "" {
		w, lvl = io.Discard, hclog.NoLevel
	}
	return &GRPCHost{
		logger: hclog.New(&hclog.LoggerOptions{Name: "sink", Output: w, Level: lvl}),
		conns:  map[string]*conn{},
	}
}

func (h *GRPCHost) CheckLifecycle(ctx context.Context, manifest domain.Manifest) error {
	client, closeFn, err := h.connect(manifest)
	if err != nil {
		return err
	}
	defer closeFn()

	callCtx, cancel := h.callContext(ctx, defaultCallTimeout)
	defer cancel()
	if _, err := client.GetMetadata(callCtx); err != nil {
		return fmt.Errorf("get metadata: %w", err)
	}
	return nil
}

func (h *GRPCHost) GetMetadata(ctx context.Context, manifest domain.Manifest) (domain.Metadata, error) {
	client, closeFn, err := h.connect(manifest)
	if err != nil {
		return domain.Metadata{}, err
	}
	defer closeFn()

	callCtx, cancel := h.callContext(ctx, defaultCallTimeout)
	defer cancel()

	meta, err := client.GetMetadata(callCtx)
	if err != nil {
		return domain.Metadata{}, fmt.Errorf("get metadata: %w", err)
	}
	return domain.Metadata{Name: meta.Name, Version: meta.Version}, nil
}

func (h *GRPCHost) Deliver(ctx context.Context, manifest domain.Manifest, session domain.Session) error {
	c, err := h.cached(manifest)
	if err != nil {
		return err
	}

	callCtx, cancel := h.callContext(ctx, defaultCallTimeout)
	defer cancel()
	response, err := c.sink.Deliver(callCtx, &sinkrpc.DeliverRequest{Session: toWire(session)})
	if err != nil {
		h.drop(manifest.Name, c)
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", domain.ErrSinkTimeout, manifest.Name)
		}
		return fmt.Errorf("deliver to %s: %w", manifest.Name, err)
	}
	if !response.Accepted {
		return fmt.Errorf("%w: %s: %s", domain.ErrSinkRejected, manifest.Name, response.Message)
	}
	return nil
}

// Close kills every cached plugin process.
func (h *GRPCHost) Close() error {
	h.mu.Lock()
	conns := h.conns
	h.conns = map[string]*conn{}
	h.mu.Unlock()
	for _, c := range conns {
		c.client.Kill()
	}
	return nil
}

func (h *GRPCHost) cached(manifest domain.Manifest) (*conn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.conns[manifest.Name]; ok {
		if c.binary == manifest.Binary && !c.client.Exited() {
			return c, nil
		}
		c.client.Kill()
		delete(h.conns, manifest.Name)
	}
	client, err := h.start(manifest)
	if err != nil {
		return nil, err
	}
	h.conns[manifest.Name] = client
	return client, nil
}

func (h *GRPCHost) drop(name string, c *conn) {
	h.mu.Lock()
	if h.conns[name] == c {
		delete(h.conns, name)
	}
	h.mu.Unlock()
	c.client.Kill()
}

func (h *GRPCHost) connect(manifest domain.Manifest) (sinkrpc.SessionSinkClient, func(), error) {
	c, err := h.start(manifest)
	if err != nil {
		return nil, nil, err
	}
	return c.sink, func() { c.client.Kill() }, nil
}

func (h *GRPCHost) start(manifest domain.Manifest) (*conn, error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  sinkrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          sinkrpc.PluginMap(nil),
		Cmd:              exec.Command(manifest.Binary),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger:           h.logger.Named(manifest.Name),
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("start sink %s: %w", manifest.Name, err)
	}
	raw, err := rpcClient.Dispense(sinkrpc.PluginMapKey)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispense sink %s: %w", manifest.Name, err)
	}
	typed, ok := raw.(sinkrpc.SessionSinkClient)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("sink rpc client type mismatch")
	}
	return &conn{client: client, sink: typed, binary: manifest.Binary}, nil
}

func (h *GRPCHost) callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

func toWire(s domain.Session) sinkrpc.Session {
	pages := make([]sinkrpc.PageDwell, 0, len(s.Pages))
	for _, p := range s.Pages {
		pages = append(pages, sinkrpc.PageDwell{Page: p.Page, DurationMs: p.DurationMs, VisitCount: p.VisitCount})
	}
	return sinkrpc.Session{
		ID:               s.ID,
		LogicalSessionID: s.LogicalSessionID,
		Chunk:            s.Chunk,
		DocumentID:       s.DocumentID,
		DocumentTitle:    s.DocumentTitle,
		StartedAt:        s.StartedAt.Format(time.RFC3339Nano),
		EndedAt:          s.EndedAt.Format(time.RFC3339Nano),
		TotalDurationMs:  s.TotalDurationMs,
		PagesRead:        s.PagesRead,
		AvgTimePerPageMs: s.AvgTimePerPageMs,
		FastestPageMs:    s.FastestPageMs,
		SlowestPageMs:    s.SlowestPageMs,
		PageHistory:      pages,
	}
}
