package server

import (
	"context"
	"fmt"
	"net"

	"github.com/ethereum/go-ethereum/node"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/atomic"
)

// RPCServerHandle is the handle of the running general transports.
type RPCServerHandle struct {
	httpAddr net.Addr
	wsAddr   net.Addr
	ipcPath  string
	stop     func() error
	stopped  *atomic.Bool
}

// NewRPCServerHandle returns a handle over already bound transports. A nil address or an
// empty path marks the transport as disabled. stop is called at most once.
func NewRPCServerHandle(httpAddr, wsAddr net.Addr, ipcPath string, stop func() error) *RPCServerHandle {
	return &RPCServerHandle{
		httpAddr: httpAddr,
		wsAddr:   wsAddr,
		ipcPath:  ipcPath,
		stop:     stop,
		stopped:  atomic.NewBool(false),
	}
}

// HTTPLocalAddr returns the bound http address, or nil if http is disabled.
func (h *RPCServerHandle) HTTPLocalAddr() net.Addr {
	if h == nil {
		return nil
	}
	return h.httpAddr
}

// WSLocalAddr returns the bound websocket address, or nil if websocket is disabled.
func (h *RPCServerHandle) WSLocalAddr() net.Addr {
	if h == nil {
		return nil
	}
	return h.wsAddr
}

// IPCEndpoint returns the ipc socket path, or "" if ipc is disabled.
func (h *RPCServerHandle) IPCEndpoint() string {
	if h == nil {
		return ""
	}
	return h.ipcPath
}

// HTTPURL returns the http endpoint, or "" if http is disabled.
func (h *RPCServerHandle) HTTPURL() string {
	if h == nil || h.httpAddr == nil {
		return ""
	}
	return "http://" + h.httpAddr.String()
}

// WSURL returns the websocket endpoint, or "" if websocket is disabled.
func (h *RPCServerHandle) WSURL() string {
	if h == nil || h.wsAddr == nil {
		return ""
	}
	return "ws://" + h.wsAddr.String()
}

// Stop shuts every transport down. Only the first call has an effect.
func (h *RPCServerHandle) Stop() error {
	if h == nil || !h.stopped.CompareAndSwap(false, true) || h.stop == nil {
		return nil
	}
	return h.stop()
}

// AuthServerHandle is the handle of the running authenticated server.
type AuthServerHandle struct {
	addr    net.Addr
	ws      bool
	secret  [32]byte
	stop    func() error
	stopped *atomic.Bool
}

// NewAuthServerHandle returns a handle over an already bound auth server.
func NewAuthServerHandle(addr net.Addr, ws bool, secret [32]byte, stop func() error) *AuthServerHandle {
	return &AuthServerHandle{
		addr:    addr,
		ws:      ws,
		secret:  secret,
		stop:    stop,
		stopped: atomic.NewBool(false),
	}
}

// LocalAddr returns the bound address, or nil for a nil handle.
func (h *AuthServerHandle) LocalAddr() net.Addr {
	if h == nil {
		return nil
	}
	return h.addr
}

// HTTPURL returns the http endpoint.
func (h *AuthServerHandle) HTTPURL() string {
	if h == nil || h.addr == nil {
		return ""
	}
	return "http://" + h.addr.String()
}

// WSURL returns the websocket endpoint, or "" if the auth server does not accept websocket.
func (h *AuthServerHandle) WSURL() string {
	if h == nil || h.addr == nil || !h.ws {
		return ""
	}
	return "ws://" + h.addr.String()
}

// Client dials the auth server over http, signing every request with the server secret.
func (h *AuthServerHandle) Client(ctx context.Context) (*rpc.Client, error) {
	client, err := rpc.DialOptions(ctx, h.HTTPURL(), rpc.WithHTTPAuth(node.NewJWTAuth(h.secret)))
	if err != nil {
		return nil, fmt.Errorf("dial auth server: %w", err)
	}
	return client, nil
}

// Stop shuts the auth server down. Only the first call has an effect.
func (h *AuthServerHandle) Stop() error {
	if h == nil || !h.stopped.CompareAndSwap(false, true) || h.stop == nil {
		return nil
	}
	return h.stop()
}

// Handles holds the handles of both servers of a launch.
type Handles struct {
	RPC  *RPCServerHandle
	Auth *AuthServerHandle
}

// Stop shuts both servers down and aggregates their errors.
func (h Handles) Stop() error {
	var result *multierror.Error
	if h.RPC != nil {
		if err := h.RPC.Stop(); err != nil {
			result = multierror.Append(result, fmt.Errorf("stop rpc server: %w", err))
		}
	}
	if h.Auth != nil {
		if err := h.Auth.Stop(); err != nil {
			result = multierror.Append(result, fmt.Errorf("stop auth server: %w", err))
		}
	}
	return result.ErrorOrNil()
}
