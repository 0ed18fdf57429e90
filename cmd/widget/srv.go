package main

import (
	"context"

	"github.com/questx-lab/poolwidget/config"
	"github.com/questx-lab/poolwidget/internal/domain/blockchain/eth"
	"github.com/questx-lab/poolwidget/pkg/logger"
	"github.com/questx-lab/poolwidget/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

type syncer interface {
	Sync() error
}

type srv struct {
	app *cli.App
	ctx context.Context
	log syncer
}

func (s *srv) loadConfig(c *cli.Context) error {
	cfg, err := config.LoadConfigs(c.String("config"))
	if err != nil {
		return err
	}

	log := logger.NewLogger(logger.ParseLevel(cfg.LogLevel))
	s.log = log

	s.ctx = xcontext.WithLogger(c.Context, log)
	s.ctx = xcontext.WithConfigs(s.ctx, cfg)
	return nil
}

func (s *srv) flushLogger(*cli.Context) error {
	if s.log != nil {
		_ = s.log.Sync()
	}

	return nil
}

func (s *srv) loadEthClient() eth.EthClient {
	client := eth.NewEthClients(xcontext.Configs(s.ctx).Chain)
	client.Start(s.ctx)
	return client
}
