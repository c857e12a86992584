// Command master runs the Sudoku coordination engine's HTTP surface:
// job intake, the worker pull/submit/heartbeat protocol, and client
// polling. Grounded on 37poke-dis_sys's cmd/coordinator/main.go
// flag/signal shape, translated from net/rpc to HTTP/JSON per spec.md
// §6, and deliberately not carrying forward that file's broken
// doubly-nested spawnWorkers/watchAndRespawn dead code.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Prabhath77/soduku-containereized-np-solver/internal/aggregator"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/dispatcher"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/httpapi"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/registry"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/sink"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	strategy := flag.String("strategy", "COLUMN", "default partition strategy (COLUMN|BLOCK)")
	sinkDir := flag.String("sink-dir", "", "directory to persist solved boards as JSON (memory-only if empty)")
	deadThreshold := flag.Duration("dead-threshold", dispatcher.DefaultDeadThreshold, "worker dead threshold")
	sweepInterval := flag.Duration("sweep-interval", dispatcher.DefaultSweepInterval, "dead-worker sweep interval")
	combineInterval := flag.Duration("combine-interval", time.Second, "aggregator combine/stall tick interval")
	resultTTL := flag.Duration("result-ttl", time.Hour, "result cache eviction TTL")
	flag.Parse()

	var solutionSink aggregator.SolutionSink
	if *sinkDir != "" {
		fileSink, err := sink.NewFileSink(*sinkDir)
		if err != nil {
			log.Fatalf("[master] %v", err)
		}
		solutionSink = fileSink
		log.Printf("[master] persisting solved boards under %s", *sinkDir)
	} else {
		solutionSink = sink.NewMemorySink()
	}

	reg := registry.New()
	disp := dispatcher.New(*deadThreshold)
	agg := aggregator.New(reg, disp, solutionSink)

	cfg := httpapi.DefaultConfig()
	cfg.Addr = *addr
	cfg.DefaultStrategy = *strategy
	cfg.DeadThreshold = *deadThreshold
	cfg.SweepInterval = *sweepInterval
	cfg.CombineInterval = *combineInterval
	cfg.ResultTTL = *resultTTL

	server := httpapi.New(cfg, reg, disp, agg)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Start() }()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Fatalf("[master] %v", err)
		}
	case <-stop:
		log.Printf("[master] shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Stop(ctx); err != nil {
			log.Fatalf("[master] shutdown error: %v", err)
		}
	}
}
