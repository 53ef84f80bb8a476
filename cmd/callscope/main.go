package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CAFxX/httpcompression"
	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/callscope/callscope"
	"github.com/callscope/callscope/internal/httputil"
	"github.com/callscope/callscope/internal/logutil"
)

type environment struct {
	config   ServiceConfig
	profiler *callscope.Profiler
}

var release string

func newEnvironment() (*environment, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return &environment{
		config:   config,
		profiler: callscope.New(),
	}, nil
}

func (e *environment) newRouter() (*httprouter.Router, error) {
	compress, err := httpcompression.DefaultAdapter()
	if err != nil {
		return nil, err
	}

	routes := []struct {
		method  string
		path    string
		handler http.HandlerFunc
	}{
		{http.MethodGet, "/health", e.getHealth},
		{http.MethodGet, "/report", e.getReport},
		{http.MethodGet, "/report.json", e.getReportJSON},
		{http.MethodGet, "/work", e.getWork},
		{http.MethodPost, "/reset", e.postReset},
	}

	router := httprouter.New()

	for _, route := range routes {
		handler := compress(httputil.LogRequests(route.handler))
		router.Handler(route.method, route.path, handler)
	}

	return router, nil
}

func main() {
	env, err := newEnvironment()
	if err != nil {
		log.Fatal().Err(err).Msg("error setting up environment")
	}

	level, err := zerolog.ParseLevel(env.config.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logutil.ConfigureLogger(level)

	if env.config.SentryDSN != "" {
		err = sentry.Init(sentry.ClientOptions{
			Dsn:              env.config.SentryDSN,
			EnableTracing:    true,
			Environment:      env.config.Environment,
			Release:          release,
			TracesSampleRate: 1.0,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("can't initialize sentry")
		}
	}

	router, err := env.newRouter()
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal().Err(err).Msg("error setting up the router")
	}

	handler := http.Handler(router)
	if env.config.SentryDSN != "" {
		handler = sentryhttp.New(sentryhttp.Options{}).Handle(router)
	}
	server := http.Server{
		Addr:    ":" + env.config.Port,
		Handler: handler,
	}

	waitForShutdown := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c

		cctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(cctx); err != nil {
			sentry.CaptureException(err)
			log.Err(err).Msg("error shutting down server")
		}

		close(waitForShutdown)
	}()

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		sentry.CaptureException(err)
		log.Err(err).Msg("server failed")
	}

	<-waitForShutdown

	sentry.Flush(5 * time.Second)
}
