package server

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iov-one/timevault/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendermint/tendermint/abci/server"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	flagBind    = "bind"
	flagDebug   = "debug"
	flagMetrics = "metrics"
)

// Options are passed to the AppGenerator.
type Options struct {
	Home   string
	Logger log.Logger
	Debug  bool
}

// AppGenerator lets us lazily initialize app, using home dir
// and logger potentially initialized with other flags
type AppGenerator func(*Options) (abci.Application, error)

type startFlags struct {
	bind    string
	debug   bool
	metrics string
}

func parseStartFlags(args []string) (startFlags, error) {
	var sf startFlags
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	fs.StringVar(&sf.bind, flagBind, "tcp://localhost:26658", "address server listens on")
	fs.BoolVar(&sf.debug, flagDebug, false, "call stack returned on error")
	fs.StringVar(&sf.metrics, flagMetrics, "", "address of the prometheus metrics endpoint, disabled if empty")
	if err := fs.Parse(args); err != nil {
		return sf, errors.Wrap(errors.ErrInput, err.Error())
	}
	if fs.NArg() != 0 {
		return sf, errors.Wrapf(errors.ErrInput, "unexpected arguments: %v", fs.Args())
	}
	return sf, nil
}

// StartCmd initializes the application and serves it over the ABCI socket
// until the process receives an interrupt or termination signal.
func StartCmd(gen AppGenerator, logger log.Logger, home string, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case sig := <-sigs:
			logger.Info("Captured signal, exiting", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return run(ctx, gen, logger, home, args)
}

// run serves the application until the context is cancelled.
func run(ctx context.Context, gen AppGenerator, logger log.Logger, home string, args []string) error {
	sf, err := parseStartFlags(args)
	if err != nil {
		return err
	}

	// Generate the app in the proper dir
	app, err := gen(&Options{Home: home, Logger: logger, Debug: sf.debug})
	if err != nil {
		return errors.Wrap(err, "cannot create application")
	}

	logger.Info("Starting ABCI app", "bind", sf.bind)
	svr, err := server.NewServer(sf.bind, "socket", app)
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot create listener: %s", err)
	}
	svr.SetLogger(logger.With("module", "abci-server"))
	if err := svr.Start(); err != nil {
		return errors.Wrapf(errors.ErrState, "cannot start abci server: %s", err)
	}

	errc := make(chan error, 1)
	var metrics *http.Server
	if sf.metrics != "" {
		metrics = metricsServer(sf.metrics)
		logger.Info("Serving metrics", "addr", sf.metrics)
		go func() {
			if err := metrics.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errc <- errors.Wrapf(errors.ErrState, "metrics server: %s", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err = <-errc:
		logger.Error("Metrics endpoint failed", "err", err)
	}

	if metrics != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		if serr := metrics.Shutdown(shutdownCtx); serr != nil {
			logger.Error("Cannot stop metrics server", "err", serr)
		}
		done()
	}
	if serr := svr.Stop(); serr != nil {
		logger.Error("Cannot stop abci server", "err", serr)
	}
	return err
}

func metricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
