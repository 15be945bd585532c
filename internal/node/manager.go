// Package node runs a development node: an in-memory chain served by the RPC add-ons, with
// optional block production through its own Engine API.
package node

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/rs/zerolog"
	"github.com/thep2p/go-eth-rpcnode/internal/addons"
	"github.com/thep2p/go-eth-rpcnode/internal/capability"
	"github.com/thep2p/go-eth-rpcnode/internal/model"
	"github.com/thep2p/go-eth-rpcnode/internal/tasks"
	"go.uber.org/atomic"
)

const (
	// ShutdownTimeout bounds how long tests wait for a node to stop.
	ShutdownTimeout = 10 * time.Second
	// OperationTimeout bounds how long tests wait for a node operation.
	OperationTimeout = 5 * time.Second
)

// ErrAlreadyStarted is returned by Start on a manager that was started before.
var ErrAlreadyStarted = errors.New("node already started")

// Manager starts and stops a single development node.
type Manager struct {
	logger  zerolog.Logger
	cfg     model.NodeConfig
	dataDir string
	addons  *addons.AddOns
	opts    []tasks.Option

	started *atomic.Bool
	cancel  context.CancelFunc
	chain   *DevChain
	handle  addons.Handle
	jwtPath string
	ready   chan struct{}
	done    chan struct{}
}

// NewManager constructs a Manager serving cfg through a. The JWT secret is read from
// cfg.RPC.Auth.JWTSecretPath, or generated in dataDir when that path is empty.
func NewManager(logger zerolog.Logger, cfg model.NodeConfig, dataDir string, a *addons.AddOns, opts ...tasks.Option) *Manager {
	return &Manager{
		logger:  logger.With().Str("component", "node-manager").Logger(),
		cfg:     cfg,
		dataDir: dataDir,
		addons:  a,
		opts:    opts,
		started: atomic.NewBool(false),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the node and returns once both servers accept connections. The node runs
// until ctx is cancelled, Stop is called or a critical task fails.
func (m *Manager) Start(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	if err := m.cfg.Validate(); err != nil {
		return err
	}

	jwtPath, secret, err := LoadOrGenerateJWTSecret(m.cfg.RPC.Auth.JWTSecretPath, m.dataDir)
	if err != nil {
		return fmt.Errorf("load jwt secret: %w", err)
	}
	m.jwtPath = jwtPath

	chain, err := NewDevChain(m.logger, m.cfg.Chain)
	if err != nil {
		return fmt.Errorf("create dev chain: %w", err)
	}
	m.chain = chain

	ctx, m.cancel = context.WithCancel(ctx)
	opts := append([]tasks.Option{tasks.WithCriticalHandler(m.onCriticalFailure)}, m.opts...)
	executor := tasks.NewExecutor(ctx, m.logger, opts...)
	components := capability.NewComponents(chain, chain, chain, nil, nil, executor, chain)

	handle, err := m.addons.Launch(ctx, &capability.AddOnsContext{
		Node:         components,
		Config:       &m.cfg,
		BeaconEngine: chain,
		JWTSecret:    secret,
		EngineEvents: new(event.Feed),
	})
	if err != nil {
		m.cancel()
		m.shutdown(handle, executor)
		return fmt.Errorf("launch rpc add-ons: %w", err)
	}
	m.handle = handle

	if m.cfg.Dev.BlockPeriodMs > 0 {
		client, err := handle.Auth().Client(ctx)
		if err != nil {
			m.cancel()
			m.shutdown(handle, executor)
			return fmt.Errorf("dial engine api: %w", err)
		}
		period := time.Duration(m.cfg.Dev.BlockPeriodMs) * time.Millisecond
		beacon := NewSimulatedBeacon(m.logger, client, m.cfg.Chain, period)
		executor.Spawn(SimulatedBeaconTaskName, func(ctx context.Context) error {
			defer client.Close()
			return beacon.Run(ctx)
		})
	}

	go func() {
		<-ctx.Done()
		m.shutdown(handle, executor)
		m.logger.Info().Msg("node stopped")
	}()

	m.logger.Info().
		Str("http", handle.RPC().HTTPURL()).
		Str("auth", handle.Auth().HTTPURL()).
		Str("jwt", jwtPath).
		Msg("node started")
	close(m.ready)
	return nil
}

// shutdown stops the servers, ends the canonical state stream and waits for every task.
func (m *Manager) shutdown(handle addons.Handle, executor *tasks.Executor) {
	if err := handle.Stop(); err != nil {
		m.logger.Error().Err(err).Msg("failed to stop servers")
	}
	m.chain.Close()
	executor.Wait()
	close(m.done)
}

func (m *Manager) onCriticalFailure(err *tasks.CriticalTaskError) {
	m.logger.Error().Err(err).Str("task", err.Name).Msg("critical task failed, stopping node")
	m.cancel()
}

// Stop shuts the node down. Done is closed once shutdown completes.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

// Ready is closed once Start returned successfully.
func (m *Manager) Ready() <-chan struct{} { return m.ready }

// Done is closed once the node has shut down.
func (m *Manager) Done() <-chan struct{} { return m.done }

// Handle returns the handle of the running add-ons.
func (m *Manager) Handle() addons.Handle { return m.handle }

// Chain returns the chain served by the node.
func (m *Manager) Chain() *DevChain { return m.chain }

// JWTPath returns the path of the secret shared with consensus clients.
func (m *Manager) JWTPath() string { return m.jwtPath }
