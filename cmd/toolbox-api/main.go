package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zapio"

	"github.com/toolbox-talk/backend/internal/controllers"
	"github.com/toolbox-talk/backend/internal/minutes"
	approuter "github.com/toolbox-talk/backend/internal/router"
	"github.com/toolbox-talk/backend/internal/session"
)

func main() {
	ctx := context.Background()
	ctx, _ = signal.NotifyContext(ctx, os.Interrupt)

	app := &cli.App{
		Name: "toolbox-api",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Value: false,
				EnvVars: []string{
					"TOOLBOX_API_DEBUG",
				},
			},
			&cli.StringFlag{
				Name:  "http-listen-address",
				Value: "127.0.0.1:3011",
				EnvVars: []string{
					"TOOLBOX_API_HTTP_LISTEN_ADDRESS",
				},
			},
			&cli.StringFlag{
				Name:  "session-secret",
				Usage: "base64-encoded paseto private key; random when unset",
				EnvVars: []string{
					"TOOLBOX_API_SESSION_SECRET",
				},
			},
			&cli.StringFlag{
				Name:  "timezone",
				Value: "Asia/Seoul",
				EnvVars: []string{
					"TOOLBOX_API_TIMEZONE",
				},
			},
			&cli.StringSliceFlag{
				Name:  "cors-origin",
				Value: cli.NewStringSlice("*"),
				EnvVars: []string{
					"TOOLBOX_API_CORS_ORIGINS",
				},
			},
		},
		Before: func(cctx *cli.Context) (err error) {
			err = setupLogging(cctx.Bool("debug"))
			return
		},
		Action: entrypoint,
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		zap.L().Fatal("unhandled error", zap.Error(err))
	}
}

func setupLogging(debugMode bool) error {
	var cfg zap.Config

	if debugMode {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level.SetLevel(zapcore.DebugLevel)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.Development = false
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level.SetLevel(zapcore.InfoLevel)
	}

	cfg.OutputPaths = []string{
		"stdout",
	}

	logger, err := cfg.Build()
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(logger)

	return nil
}

func entrypoint(cctx *cli.Context) (err error) {
	defer func() { _ = zap.L().Sync() }()

	loc, err := time.LoadLocation(cctx.String("timezone"))
	if err != nil {
		err = fmt.Errorf("unable to load timezone: %w", err)
		return
	}

	store := minutes.NewStore(loc)
	sessions := session.NewManager(cctx.String("session-secret"))

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
	})

	if cctx.Bool("debug") {
		(&controllers.GoDebugController{Store: store}).Register(router)
	}
	approuter.RegisterAll(router,
		&controllers.HealthController{},
		&controllers.AuthController{Store: store, Sessions: sessions},
		&controllers.MeetingController{Store: store, Sessions: sessions},
		&controllers.LiveController{Store: store, Sessions: sessions},
	)

	var accessLog io.WriteCloser = &zapio.Writer{Log: zap.L().With(zap.String("section", "http")), Level: zapcore.InfoLevel}
	defer func() { _ = accessLog.Close() }()

	handler := handlers.CORS(
		handlers.AllowedOrigins(cctx.StringSlice("cors-origin")),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.AllowCredentials(),
	)(handlers.LoggingHandler(accessLog, router))

	srv := &http.Server{
		Addr:         cctx.String("http-listen-address"),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	serverDone := make(chan interface{})
	go func() {
		zap.L().Info("serving requests", zap.String("addr", "http://"+srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Error("failed to listen for http requests", zap.Error(err))
		}
		close(serverDone)
	}()

	select {
	case <-serverDone:
	case <-cctx.Context.Done():
	}

	return
}
