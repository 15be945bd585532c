// Package server binds the JSON-RPC transports and the authenticated Engine API server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/thep2p/go-eth-rpcnode/internal/model"
	"github.com/thep2p/go-eth-rpcnode/internal/modules"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// RPCLauncher binds the general transports.
type RPCLauncher interface {
	// Start binds every enabled transport of mods and serves it until the handle is stopped.
	// Either every enabled transport is bound or none is.
	Start(ctx context.Context, mods *modules.TransportModules) (*RPCServerHandle, error)
}

// AuthLauncher binds the authenticated server.
type AuthLauncher interface {
	Start(ctx context.Context, module *modules.AuthModule, cfg model.AuthServerConfig) (*AuthServerHandle, error)
}

// RPCServerLauncher is the default RPCLauncher.
type RPCServerLauncher struct {
	logger zerolog.Logger
	cfg    model.RPCServerConfig
}

var _ RPCLauncher = (*RPCServerLauncher)(nil)

// NewRPCServerLauncher creates a launcher binding the general transports at the addresses of cfg.
func NewRPCServerLauncher(logger zerolog.Logger, cfg model.RPCServerConfig) *RPCServerLauncher {
	return &RPCServerLauncher{
		logger: logger.With().Str("component", "rpc-server").Logger(),
		cfg:    cfg,
	}
}

// Start implements RPCLauncher.
func (l *RPCServerLauncher) Start(ctx context.Context, mods *modules.TransportModules) (*RPCServerHandle, error) {
	var (
		stack    teardown
		httpAddr net.Addr
		wsAddr   net.Addr
		ipcPath  string
	)
	if mods == nil {
		mods = &modules.TransportModules{}
	}
	fail := func(err error) (*RPCServerHandle, error) {
		if stopErr := stack.run(); stopErr != nil {
			l.logger.Warn().Err(stopErr).Msg("failed to tear down partially started transports")
		}
		return nil, err
	}

	shared := mods.HTTP != nil && mods.WS != nil && sharesListener(l.cfg.HTTPAddr, l.cfg.WSAddr)
	if mods.HTTP != nil {
		srv, err := newRPCServer(mods.HTTP)
		if err != nil {
			return fail(fmt.Errorf("http transport: %w", err))
		}
		stack.push(stopRPC(srv))

		handler := corsHandler(l.cfg.CorsDomains, srv)
		if shared {
			wsSrv, err := newRPCServer(mods.WS)
			if err != nil {
				return fail(fmt.Errorf("ws transport: %w", err))
			}
			stack.push(stopRPC(wsSrv))
			handler = upgradeRouter(wsSrv.WebsocketHandler(l.cfg.WSOrigins), handler)
		}

		addr, stop, err := serveHTTP(ctx, l.logger, l.cfg.HTTPAddr, handler)
		if err != nil {
			return fail(fmt.Errorf("http transport: %w", err))
		}
		stack.push(stop)
		httpAddr = addr
		l.logger.Info().Str("url", "http://"+addr.String()).Strs("modules", mods.HTTP.Namespaces()).Msg("RPC HTTP server started")
		if shared {
			wsAddr = addr
			l.logger.Info().Str("url", "ws://"+addr.String()).Strs("modules", mods.WS.Namespaces()).Msg("RPC WS server started")
		}
	}

	if mods.WS != nil && !shared {
		srv, err := newRPCServer(mods.WS)
		if err != nil {
			return fail(fmt.Errorf("ws transport: %w", err))
		}
		stack.push(stopRPC(srv))

		addr, stop, err := serveHTTP(ctx, l.logger, l.cfg.WSAddr, srv.WebsocketHandler(l.cfg.WSOrigins))
		if err != nil {
			return fail(fmt.Errorf("ws transport: %w", err))
		}
		stack.push(stop)
		wsAddr = addr
		l.logger.Info().Str("url", "ws://"+addr.String()).Strs("modules", mods.WS.Namespaces()).Msg("RPC WS server started")
	}

	if mods.IPC != nil {
		srv, err := newRPCServer(mods.IPC)
		if err != nil {
			return fail(fmt.Errorf("ipc transport: %w", err))
		}
		stack.push(stopRPC(srv))

		stop, err := serveIPC(ctx, l.logger, l.cfg.IPCPath, srv)
		if err != nil {
			return fail(fmt.Errorf("ipc transport: %w", err))
		}
		stack.push(stop)
		ipcPath = l.cfg.IPCPath
		l.logger.Info().Str("path", ipcPath).Strs("modules", mods.IPC.Namespaces()).Msg("RPC IPC server started")
	}

	return NewRPCServerHandle(httpAddr, wsAddr, ipcPath, stack.run), nil
}

// AuthServerLauncher is the default AuthLauncher.
type AuthServerLauncher struct {
	logger zerolog.Logger
}

var _ AuthLauncher = (*AuthServerLauncher)(nil)

func NewAuthServerLauncher(logger zerolog.Logger) *AuthServerLauncher {
	return &AuthServerLauncher{logger: logger.With().Str("component", "auth-server").Logger()}
}

// Start implements AuthLauncher. Every request must carry a JWT signed with cfg.Secret.
func (l *AuthServerLauncher) Start(ctx context.Context, module *modules.AuthModule, cfg model.AuthServerConfig) (*AuthServerHandle, error) {
	if module == nil || module.Module == nil {
		return nil, fmt.Errorf("auth module is required")
	}
	if cfg.Secret == ([32]byte{}) {
		return nil, fmt.Errorf("jwt secret is required")
	}

	srv, err := newRPCServer(module.Module)
	if err != nil {
		return nil, fmt.Errorf("auth transport: %w", err)
	}

	logger := l.logger
	var handler http.Handler = srv
	if cfg.EnableWS {
		handler = upgradeRouter(srv.WebsocketHandler([]string{"*"}), srv)
	}
	handler = jwtHandler(logger, cfg.Secret, handler)

	addr, stop, err := serveHTTP(ctx, logger, cfg.Addr, handler)
	if err != nil {
		srv.Stop()
		return nil, fmt.Errorf("auth transport: %w", err)
	}

	var stack teardown
	stack.push(stopRPC(srv))
	stack.push(stop)
	logger.Info().Str("url", "http://"+addr.String()).Bool("ws", cfg.EnableWS).Strs("modules", module.Namespaces()).Msg("RPC auth server started")

	return NewAuthServerHandle(addr, cfg.EnableWS, cfg.Secret, stack.run), nil
}

func newRPCServer(m *modules.Module) (*rpc.Server, error) {
	srv := rpc.NewServer()
	for _, api := range m.APIs() {
		if err := srv.RegisterName(api.Namespace, api.Service); err != nil {
			srv.Stop()
			return nil, fmt.Errorf("register namespace %s: %w", api.Namespace, err)
		}
	}
	return srv, nil
}

func corsHandler(domains []string, next http.Handler) http.Handler {
	if len(domains) == 0 {
		return next
	}
	return cors.New(cors.Options{
		AllowedOrigins: domains,
		AllowedMethods: []string{http.MethodPost, http.MethodGet},
		AllowedHeaders: []string{"*"},
		MaxAge:         600,
	}).Handler(next)
}

// upgradeRouter sends websocket upgrades to ws and everything else to plain.
func upgradeRouter(ws, plain http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			ws.ServeHTTP(w, r)
			return
		}
		plain.ServeHTTP(w, r)
	})
}

// sharesListener reports whether http and websocket are configured on the same fixed
// address. Two requests for an OS-assigned port get a listener each.
func sharesListener(httpAddr, wsAddr string) bool {
	if httpAddr != wsAddr {
		return false
	}
	_, port, err := net.SplitHostPort(httpAddr)
	return err == nil && port != "" && port != "0"
}

// serveLogged runs serve and logs any error other than the one returned on shutdown.
func serveLogged(logger zerolog.Logger, addr string, serve func() error) {
	err := serve()
	if err == nil || errors.Is(err, http.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
		return
	}
	logger.Error().Err(err).Str("addr", addr).Msg("server stopped serving")
}

func serveHTTP(ctx context.Context, logger zerolog.Logger, addr string, handler http.Handler) (net.Addr, func() error, error) {
	if addr == "" {
		return nil, nil, fmt.Errorf("no listen address configured")
	}
	listener, err := new(net.ListenConfig).Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: readHeaderTimeout}
	go serveLogged(logger, listener.Addr().String(), func() error {
		return srv.Serve(listener)
	})

	stop := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shutdown %s: %w", listener.Addr(), err)
		}
		return nil
	}
	return listener.Addr(), stop, nil
}

func serveIPC(ctx context.Context, logger zerolog.Logger, path string, srv *rpc.Server) (func() error, error) {
	if path == "" {
		return nil, fmt.Errorf("no ipc path configured")
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove stale ipc socket: %w", err)
	}
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", path, err)
	}
	go serveLogged(logger, path, func() error {
		return srv.ServeListener(listener)
	})

	return func() error {
		if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			return fmt.Errorf("close ipc listener: %w", err)
		}
		return nil
	}, nil
}

func stopRPC(srv *rpc.Server) func() error {
	return func() error {
		srv.Stop()
		return nil
	}
}

// teardown runs stop functions in reverse order of registration.
type teardown struct {
	steps []func() error
}

func (t *teardown) push(step func() error) {
	t.steps = append(t.steps, step)
}

func (t *teardown) run() error {
	var result *multierror.Error
	for i := len(t.steps) - 1; i >= 0; i-- {
		if err := t.steps[i](); err != nil {
			result = multierror.Append(result, err)
		}
	}
	t.steps = nil
	return result.ErrorOrNil()
}
