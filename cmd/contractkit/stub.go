package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/reoring/contractkit/middleware"
)

func (a *app) stubCmd() *cobra.Command {
	var spec, addr, metricsPath string
	var bind bool
	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Serve a contract with generated responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.load(spec)
			if err != nil {
				return err
			}
			r, err := a.resolver(c)
			if err != nil {
				return err
			}
			opts := middleware.Options{Resolver: r, Logger: a.logger, BindParameters: bind}
			var h http.Handler
			if metricsPath == "" {
				h = middleware.Stub(c, opts)
			} else {
				reg := prometheus.NewRegistry()
				if opts.Metrics, err = middleware.NewMetrics(reg); err != nil {
					return err
				}
				mux := http.NewServeMux()
				mux.Handle(metricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
				mux.Handle("/", middleware.Stub(c, opts))
				h = mux
			}
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			return a.serve(cmd.Context(), ln, h)
		},
	}
	cmd.Flags().StringVar(&spec, "spec", "", "contract file")
	cmd.Flags().StringVar(&addr, "addr", ":9000", "listen address")
	cmd.Flags().StringVar(&metricsPath, "metrics-path", "", "serve Prometheus metrics at this path (disabled when empty)")
	cmd.Flags().BoolVar(&bind, "bind-parameters", false, "reuse request parameter values for response keys of the same name")
	requireFlags(cmd, "spec")
	return cmd
}

// serve runs h on ln until ctx is done, then shuts down gracefully.
func (a *app) serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	a.logger.Info("stub listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	a.logger.Info("stub stopped")
	return nil
}
