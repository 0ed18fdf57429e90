package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/questx-lab/poolwidget/internal/domain/registry"
	"github.com/questx-lab/poolwidget/internal/domain/safehost"
	"github.com/questx-lab/poolwidget/internal/domain/session"
	"github.com/questx-lab/poolwidget/pkg/prometheus"
	"github.com/questx-lab/poolwidget/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startServe(*cli.Context) error {
	cfg := xcontext.Configs(s.ctx)

	client := s.loadEthClient()
	defer client.Close()

	host, err := safehost.Dial(s.ctx, cfg.SafeHost.URL)
	if err != nil {
		xcontext.Logger(s.ctx).Errorf("Cannot connect to safe host: %v", err)
		return err
	}
	defer host.Close()

	widget := session.New(s.ctx, client, host, registry.NewResolver(cfg.Networks))
	widget.OnChange = func() {
		xcontext.Logger(s.ctx).Debugf("Widget view changed")
	}
	if err := widget.Start(s.ctx); err != nil {
		xcontext.Logger(s.ctx).Errorf("Cannot start widget: %v", err)
		return err
	}
	defer widget.Close()

	go func() {
		promHandler := prometheus.NewHandler()

		httpSrv := &http.Server{
			Addr:    cfg.PrometheusServer.Address(),
			Handler: promHandler,
		}
		xcontext.Logger(s.ctx).Infof("Starting prometheus on port: %s", cfg.PrometheusServer.Port)
		if err := httpSrv.ListenAndServe(); err != nil {
			xcontext.Logger(s.ctx).Errorf("Prometheus server stopped: %v", err)
		}
	}()

	rpcHandler := rpc.NewServer()
	defer rpcHandler.Stop()
	err = rpcHandler.RegisterName(cfg.RPCServer.RPCName, session.NewAPI(widget))
	if err != nil {
		xcontext.Logger(s.ctx).Errorf("Cannot register widget api: %v", err)
		return err
	}

	httpSrv := &http.Server{
		Handler: rpcHandler,
		Addr:    cfg.RPCServer.Address(),
	}

	go func() {
		termSignal := make(chan os.Signal, 1)
		signal.Notify(termSignal, syscall.SIGINT, syscall.SIGTERM)
		sig := <-termSignal
		xcontext.Logger(s.ctx).Infof("Got a signal of %s", sig.String())
		if err := httpSrv.Close(); err != nil {
			xcontext.Logger(s.ctx).Errorf("Cannot close rpc server: %v", err)
		}
	}()

	xcontext.Logger(s.ctx).Infof("Started rpc server of widget on %s", cfg.RPCServer.Address())
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		xcontext.Logger(s.ctx).Errorf("An error occurs when running rpc server: %v", err)
		return err
	}

	xcontext.Logger(s.ctx).Infof("Stopped rpc server of widget")
	return nil
}
