// Command dhtcrawl passively harvests infohashes from the Mainline DHT
// and resolves their torrent metadata over BEP-9.
package main

import (
	"context"
	"expvar"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"dhtcrawl/internal/engine"
	"dhtcrawl/internal/logger"
	"dhtcrawl/internal/storage"
)

func main() {
	cfg := engine.NewConfig()
	dbPath := flag.String("db", "dhtcrawl.db", "path to the SQLite database file")
	maxConns := flag.Int("db-conns", 4, "maximum concurrent SQLite connections")
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	sink, err := storage.NewSQLiteSink(*dbPath, *maxConns)
	if err != nil {
		log.Fatalf("dhtcrawl: open storage: %v", err)
	}
	defer sink.Close()

	l := &logger.NullLogger{}

	e, err := engine.New(*cfg, sink, l)
	if err != nil {
		log.Fatalf("dhtcrawl: construct engine: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := e.Start(ctx); err != nil {
		log.Fatalf("dhtcrawl: start engine: %v", err)
	}
	log.Printf("dhtcrawl: listening on %s", cfg.BindAddr)

	if cfg.HTTPAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/debug/vars", expvar.Handler())
			log.Printf("dhtcrawl: serving /debug/vars on %s", cfg.HTTPAddr)
			if err := http.ListenAndServe(cfg.HTTPAddr, mux); err != nil {
				log.Printf("dhtcrawl: http server stopped: %v", err)
			}
		}()
	}

	<-ctx.Done()
	log.Print("dhtcrawl: shutting down")
	e.Stop()
}
