package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/relaynet/pushgateway/internal/config"
	"github.com/relaynet/pushgateway/internal/dispatch"
	"github.com/relaynet/pushgateway/internal/edge"
	"github.com/relaynet/pushgateway/internal/registry"
	"github.com/relaynet/pushgateway/internal/store"
)

// startupRetries/startupRetryDelay bound the "address already in use"
// retry loop: a restart racing a still-draining prior process gets a
// few chances before giving up.
const (
	startupRetries    = 5
	startupRetryDelay = time.Second
)

func main() {
	_ = godotenv.Load()

	globalPath := getEnv("PUSHGATEWAY_GLOBAL_CONFIG", "./config/global.ini")
	applicationsPath := getEnv("PUSHGATEWAY_APPLICATIONS_CONFIG", "./config/applications.ini")
	credentialsDir := getEnv("PUSHGATEWAY_CREDENTIALS_DIR", "./config/credentials")

	global, err := config.LoadGlobal(globalPath)
	if err != nil {
		log.Fatalf("load global config: %v", err)
	}

	sources := registry.Sources{
		GlobalPath:       globalPath,
		ApplicationsPath: applicationsPath,
		CredentialsDir:   credentialsDir,
	}

	reg, err := registry.New(sources)
	if err != nil {
		log.Fatalf("build application registry: %v", err)
	}

	tokenStore, err := newTokenStore(global)
	if err != nil {
		log.Fatalf("open token store: %v", err)
	}
	defer tokenStore.Close()

	metrics := dispatch.NewMetrics(prometheus.DefaultRegisterer)
	dispatcher := &dispatch.Dispatcher{
		Registry: reg,
		Store:    tokenStore,
		Metrics:  metrics,
		Debug:    global.Debug,
	}

	handler := &edge.Handler{
		Dispatcher:   dispatcher,
		Store:        tokenStore,
		AsyncDefault: global.AsyncDefault,
	}
	router := edge.NewRouter(handler, global.AllowedHosts)

	ctx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go reg.Watch(ctx)

	addr := fmt.Sprintf("%s:%d", global.Host, global.Port)
	server := &http.Server{Addr: addr, Handler: router}

	listener, err := listenWithRetry(addr)
	if err != nil {
		log.Fatalf("listen on %s: %v", addr, err)
	}

	go func() {
		log.Printf("pushgateway listening on %s", addr)
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server stopped unexpectedly: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("shutting down")
	stopWatch()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	log.Println("stopped")
}

// newTokenStore picks the token store backend: a configured
// column-store contact point selects the Redis-backed ColumnStore,
// otherwise the process falls back to the single-process File backend
// (spool_dir).
func newTokenStore(global *config.Global) (store.TokenStore, error) {
	if len(global.CassandraContactPoints) > 0 {
		return store.NewColumnStore(global.CassandraContactPoints[0]), nil
	}
	return store.NewFileStore(global.SpoolDir)
}

// listenWithRetry opens the listen socket, retrying a few times when
// the address is still held by a process that is mid-shutdown.
func listenWithRetry(addr string) (net.Listener, error) {
	var lastErr error
	for attempt := 0; attempt < startupRetries; attempt++ {
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			return listener, nil
		}
		lastErr = err
		log.Printf("listen on %s failed (attempt %d/%d): %v", addr, attempt+1, startupRetries, err)
		time.Sleep(startupRetryDelay)
	}
	return nil, lastErr
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
