package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/philipp01105/conlog/bridge"
	"github.com/philipp01105/conlog/config"
	"github.com/philipp01105/conlog/httplog"
	"github.com/philipp01105/conlog/logger"
	"github.com/philipp01105/conlog/metrics"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configFile := flag.String("config", "", "YAML configuration file")
	envFile := flag.String("env", ".env", "optional .env file")
	listen := flag.String("listen", "", "serve the demo API on this address")
	flag.Parse()

	cfg, err := config.Load(config.WithConfigFile(*configFile), config.WithEnvFile(*envFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	f, files, err := config.NewFactory(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(f)
	defer func() {
		_ = f.Close()
		_ = files.Close()
	}()

	tour(f)

	if *listen == "" {
		return
	}
	if err := serve(f, *listen); err != nil {
		f.Root().Critical(err)
		_ = f.Close()
		os.Exit(1)
	}
}

// tour logs a few messages from differently prefixed loggers.
func tour(f *logger.Factory) {
	log := f.Instance("demo")

	log.Info("Logging without source tracing")
	log.Notice("Initializing application...\nwow\nsuch application")
	log.Critical(errors.New("logging an error value"))

	log.WithSource(true)
	log.Info("Logging WITH source tracing")
	log.Notice("You'll never know where this was logged from!")

	f.Root().Warn("We don't need no prefix!")
	f.Instance("something weird").Warn("...or do we?")
	f.Root().Notice("You're using a longer prefix? I'll adjust.")

	f.Module().Error("ouch")

	for i := 0; i < 3; i++ {
		log.Info("polling %s", "upstream")
	}
	log.Info("done polling")
}

func serve(f *logger.Factory, addr string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.NewCollector(f, ""))

	api := f.Instance("api")
	slog.SetDefault(slog.New(bridge.NewSlogHandler(api, slog.LevelDebug)))

	r := mux.NewRouter()
	r.Use(httplog.ForLogger(f.Instance("http"), httplog.Dev))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.HandleFunc("/hello/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		slog.Info("greeting", "name", name)
		fmt.Fprintf(w, "hello %s\n", name)
	}).Methods(http.MethodGet)
	r.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		api.Debug(r)
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		api.Notice("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	api.Notice("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
