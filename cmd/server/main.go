// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/whitejack/server/internal/auth"
	"github.com/whitejack/server/internal/cache"
	"github.com/whitejack/server/internal/handlers"
	"github.com/whitejack/server/internal/middleware"
	"github.com/whitejack/server/internal/wallet"
)

func main() {
	// Key files let multiple instances verify each other's session tokens;
	// without them each process mints its own ephemeral keypair.
	if priv, pub := os.Getenv("AUTH_PRIVATE_KEY_FILE"), os.Getenv("AUTH_PUBLIC_KEY_FILE"); priv != "" && pub != "" {
		if err := auth.InitFromPath(priv, pub); err != nil {
			log.Fatalf("failed to load session keys: %v", err)
		}
	} else {
		auth.Init()
	}

	logger := logrus.New()
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Action history is optional; rooms run history-less without Redis.
	if os.Getenv("REDIS_ADDR") != "" {
		if err := cache.ConnectRedis(); err != nil {
			logger.Warnf("Redis unavailable, action history disabled: %v", err)
			cache.Rdb = nil
		}
	}

	var store wallet.Store
	if os.Getenv("PG_HOST") != "" {
		pg, err := wallet.ConnectPostgres(context.Background())
		if err != nil {
			log.Fatalf("failed to connect wallet database: %v", err)
		}
		defer pg.Close()
		store = pg
	} else {
		logger.Warn("PG_HOST not set, using in-memory wallet store")
		store = wallet.NewMemoryStore()
	}

	rs := handlers.NewRoomServer(logger, store)

	mux := http.NewServeMux()
	mux.HandleFunc("/", handlers.HealthHandler)
	mux.Handle("/ws", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.WSHandler(logger, rs),
	)))
	mux.Handle("/wallet/balance", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.WalletBalanceHandler(logger, store),
	)))

	server := &http.Server{
		Handler:      mux,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	l, err := net.Listen("tcp", fmt.Sprintf(":%s", port))
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}
	logger.Infof("Listening on %s", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	select {
	case err := <-errc:
		logger.Errorf("failed to serve: %v", err)
	case sig := <-sigs:
		logger.Infof("terminating: %v", sig)
	}
}
