package cli

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/calvinalkan/diary/internal/diary"
	"github.com/calvinalkan/diary/internal/httpapi"
	"github.com/calvinalkan/diary/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd returns the serve command.
func ServeCmd(a *app) *Command {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	listen := fs.StringP("listen", "l", "", "Listen `address` (default from config, \":3000\")")

	return &Command{
		Flags: fs,
		Usage: "serve [flags]",
		Short: "Serve the JSON API over HTTP",
		Long: "Serve /api/diary, /healthz and /metrics until interrupted.\n" +
			"SIGINT or SIGTERM stops accepting connections and waits for in-flight requests.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execServe(ctx, o, a, *listen)
		},
	}
}

func execServe(ctx context.Context, o *IO, a *app, listen string) error {
	if listen == "" {
		listen = a.cfg.Listen
	}

	log, err := logging.New(a.cfg.LogLevel, a.cfg.LogFormat, o.errOut)
	if err != nil {
		return err
	}

	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store, err := a.openStore(ctx, log, diary.NewMetrics(reg, a.gate))
	if err != nil {
		return err
	}

	srv, err := httpapi.New(httpapi.Options{
		Store:          store,
		Logger:         log,
		Registry:       reg,
		WriteRateLimit: a.cfg.WriteRateLimit,
	})
	if err != nil {
		return err
	}

	var lc net.ListenConfig

	ln, err := lc.Listen(ctx, "tcp", listen)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	o.Println("listening on", ln.Addr().String())

	serveErr := make(chan error, 1)

	go func() { serveErr <- srv.Serve(ln) }()

	select {
	case err := <-serveErr:
		return err
	case sig := <-a.sigCh:
		log.Info("received signal", zap.Stringer("signal", sig))
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return <-serveErr
}
