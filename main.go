package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/thep2p/go-eth-rpcnode/internal/addons"
	"github.com/thep2p/go-eth-rpcnode/internal/metrics"
	"github.com/thep2p/go-eth-rpcnode/internal/model"
	"github.com/thep2p/go-eth-rpcnode/internal/node"
	"github.com/thep2p/go-eth-rpcnode/internal/tasks"
	"github.com/urfave/cli/v2"
)

var (
	dataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "directory for the generated JWT secret and the IPC socket",
		Value: "node0",
	}
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML configuration file applied on top of the defaults",
	}
	httpPortFlag = &cli.IntFlag{
		Name:  "http.port",
		Usage: "http JSON-RPC port",
		Value: model.DefaultHTTPPort,
	}
	wsFlag = &cli.BoolFlag{
		Name:  "ws",
		Usage: "enable the websocket JSON-RPC transport",
	}
	wsPortFlag = &cli.IntFlag{
		Name:  "ws.port",
		Usage: "websocket JSON-RPC port",
		Value: model.DefaultWSPort,
	}
	ipcPathFlag = &cli.StringFlag{
		Name:  "ipcpath",
		Usage: "enable the ipc transport on this socket path",
	}
	authPortFlag = &cli.IntFlag{
		Name:  "authrpc.port",
		Usage: "Engine API port",
		Value: model.DefaultAuthPort,
	}
	jwtSecretFlag = &cli.StringFlag{
		Name:  "authrpc.jwtsecret",
		Usage: "hex encoded JWT secret file, generated in the data directory if unset",
	}
	devFlag = &cli.BoolFlag{
		Name:  "dev",
		Usage: "inject the development signer accounts",
	}
	devPeriodFlag = &cli.IntFlag{
		Name:  "dev.period",
		Usage: "produce a block every period in milliseconds, 0 waits for a consensus client",
	}
	metricsAddrFlag = &cli.StringFlag{
		Name:  "metrics.addr",
		Usage: "serve prometheus metrics on this address",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log.level",
		Usage: "log level (trace, debug, info, warn, error)",
		Value: "info",
	}
)

func main() {
	app := &cli.App{
		Name:  "rpcnode",
		Usage: "development execution node serving the JSON-RPC and Engine APIs",
		Flags: []cli.Flag{
			dataDirFlag,
			configFlag,
			httpPortFlag,
			wsFlag,
			wsPortFlag,
			ipcPathFlag,
			authPortFlag,
			jwtSecretFlag,
			devFlag,
			devPeriodFlag,
			metricsAddrFlag,
			logLevelFlag,
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	level, err := zerolog.ParseLevel(c.String(logLevelFlag.Name))
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	if addr := c.String(metricsAddrFlag.Name); addr != "" {
		server, err := metrics.NewServer(ctx, logger, addr, reg)
		if err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		defer func() {
			if err := server.Stop(); err != nil {
				logger.Error().Err(err).Msg("failed to stop metrics server")
			}
		}()
	}

	manager := node.NewManager(
		logger,
		cfg,
		c.String(dataDirFlag.Name),
		addons.NewDefault(logger, addons.WithMetrics(collector)),
		tasks.WithMetrics(collector),
	)
	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("start node: %w", err)
	}
	<-manager.Done()
	return nil
}

// loadConfig reads the optional config file and applies the flags set on the command line.
func loadConfig(c *cli.Context) (model.NodeConfig, error) {
	cfg := model.DefaultNodeConfig()
	if path := c.String(configFlag.Name); path != "" {
		loaded, err := model.LoadConfig(path)
		if err != nil {
			return model.NodeConfig{}, err
		}
		cfg = loaded
	}

	if c.IsSet(httpPortFlag.Name) {
		cfg.RPC.HTTP.Port = c.Int(httpPortFlag.Name)
	}
	if c.IsSet(wsFlag.Name) {
		cfg.RPC.WS.Enabled = c.Bool(wsFlag.Name)
	}
	if c.IsSet(wsPortFlag.Name) {
		cfg.RPC.WS.Port = c.Int(wsPortFlag.Name)
	}
	if path := c.String(ipcPathFlag.Name); path != "" {
		cfg.RPC.IPC.Enabled = true
		cfg.RPC.IPC.Path = path
		if cfg.RPC.IPC.Modules == nil {
			cfg.RPC.IPC.Modules = []string{model.NamespaceEth, model.NamespaceNet, model.NamespaceWeb3}
		}
	}
	if c.IsSet(authPortFlag.Name) {
		cfg.RPC.Auth.Port = c.Int(authPortFlag.Name)
	}
	if path := c.String(jwtSecretFlag.Name); path != "" {
		cfg.RPC.Auth.JWTSecretPath = path
	}
	if c.IsSet(devFlag.Name) {
		cfg.Dev.Enabled = c.Bool(devFlag.Name)
	}
	if c.IsSet(devPeriodFlag.Name) {
		cfg.Dev.BlockPeriodMs = c.Int(devPeriodFlag.Name)
	}
	return cfg, nil
}
