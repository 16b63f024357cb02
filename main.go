package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"platformer/server"
)

// 入口：启动 HTTP + WebSocket 服务，并开始世界 Tick
func main() {
	cfg := server.DefaultConfig()
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "server listen address, e.g. localhost:3000")
	flag.StringVar(&cfg.WSPath, "ws-path", cfg.WSPath, "websocket endpoint path")
	flag.DurationVar(&cfg.TickInterval, "tick", cfg.TickInterval, "delay between simulation ticks")
	flag.Float64Var(&cfg.Gravity, "gravity", cfg.Gravity, "vertical velocity added every tick")
	flag.Float64Var(&cfg.JumpImpulse, "jump", cfg.JumpImpulse, "vertical velocity removed per jump input")
	flag.Float64Var(&cfg.MoveSpeed, "move-speed", cfg.MoveSpeed, "horizontal speed set by left/right input")
	flag.IntVar(&cfg.MaxPlayers, "max-players", cfg.MaxPlayers, "player cap, 0 = unlimited")
	flag.IntVar(&cfg.SubscriberBuffer, "buffer", cfg.SubscriberBuffer, "snapshots buffered per client before dropping the oldest")
	flag.StringVar(&cfg.Codec, "codec", cfg.Codec, "snapshot encoding: json or msgpack")
	flag.StringVar(&cfg.LevelFile, "level", cfg.LevelFile, "level file (.json or .tmx), overrides built-in platforms")
	flag.StringVar(&cfg.StaticDir, "static", cfg.StaticDir, "directory served at / (empty = disabled)")
	flag.StringVar(&cfg.Log.File, "log", cfg.Log.File, "log file path")
	flag.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level")
	flag.BoolVar(&cfg.Log.Stderr, "log-stderr", cfg.Log.Stderr, "also log to stderr")
	flag.Parse()

	if err := cfg.ApplyEnv(); err != nil {
		panic(err)
	}
	// 使用第三方 zap 日志库写入日志文件（带滚动）
	if err := server.InitLogger(cfg.Log); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	game, err := server.NewGame(cfg)
	if err != nil {
		server.Log.Fatalf("init game: %v", err)
	}
	game.Start()

	srv := &http.Server{Addr: cfg.Addr, Handler: server.NewRouter(game)}

	go func() {
		server.Log.Infof("listening on %s (ws path %s)", cfg.Addr, cfg.WSPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		server.Log.Warnf("http shutdown: %v", err)
	}
	game.Close()
}
