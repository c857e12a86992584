// Command worker is a Sudoku solver worker: it polls the master for
// sub-jobs, solves them with a pluggable BlockSolver, and reports
// results back. Grounded on 37poke-dis_sys's cmd/worker/main.go flag/
// poll-loop/heartbeat-loop shape, translated from net/rpc to the
// HTTP/JSON protocol spec.md §6 mandates.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Prabhath77/soduku-containereized-np-solver/internal/partition"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/solver"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/workerclient"
)

func main() {
	workerID := flag.String("id", defaultWorkerID(), "worker identifier")
	masterURL := flag.String("master", os.Getenv("MASTER_URL"), "master base URL (overrides MASTER_URL)")
	strategyFlag := flag.String("strategy", "COLUMN", "partition strategy the master is using (COLUMN|BLOCK)")
	solverFlag := flag.String("solver", "naive", "BlockSolver kernel: naive|annealing")
	pollInterval := flag.Duration("poll", 800*time.Millisecond, "sub-job poll interval")
	heartbeatInterval := flag.Duration("heartbeat", 30*time.Second, "heartbeat interval")
	flag.Parse()

	if *masterURL == "" {
		log.Fatal("[worker] no master URL: pass -master or set MASTER_URL")
	}
	strategy, err := partition.ParseStrategy(*strategyFlag)
	if err != nil {
		log.Fatalf("[worker] %v", err)
	}
	bs := newBlockSolver(*solverFlag)

	client := workerclient.New(workerclient.DefaultConfig(*masterURL))
	log.Printf("[worker] id=%s master=%s strategy=%s solver=%s", *workerID, *masterURL, strategy, *solverFlag)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go heartbeatLoop(client, *workerID, *heartbeatInterval, done)
	go solveLoop(client, *workerID, strategy, bs, *pollInterval, done)

	<-stop
	log.Printf("[worker] shutting down")
	close(done)
}

func defaultWorkerID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

func newBlockSolver(name string) solver.BlockSolver {
	switch name {
	case "annealing":
		return solver.DefaultAnnealingSolver()
	default:
		return solver.NaiveSolver{UseHeuristics: true}
	}
}

func heartbeatLoop(client *workerclient.Client, workerID string, interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := client.Heartbeat(workerID); err != nil {
				log.Printf("[worker] heartbeat error: %v", err)
			}
		case <-done:
			return
		}
	}
}

func solveLoop(client *workerclient.Client, workerID string, strategy partition.Strategy, bs solver.BlockSolver, interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			processOnce(client, workerID, strategy, bs)
		case <-done:
			return
		}
	}
}

func processOnce(client *workerclient.Client, workerID string, strategy partition.Strategy, bs solver.BlockSolver) {
	sj, err := client.Pull(workerID)
	if err != nil {
		if err != workerclient.ErrNoWork {
			log.Printf("[worker] pull error: %v", err)
		}
		return
	}

	n := len(sj.ContextBoard)
	cells, err := partition.CellsForIndex(n, strategy, sj.PartitionIndex)
	if err != nil {
		log.Printf("[worker] sub-job %s: %v", sj.ID, err)
		return
	}

	p := solver.Partition{
		Cells:   cells,
		Values:  flattenBoard(sj.Board),
		Context: sj.ContextBoard,
		N:       n,
	}

	result, err := bs.Solve(p)
	if err != nil {
		log.Printf("[worker] sub-job %s unsolvable: %v", sj.ID, err)
		submitErr := client.Submit(workerclient.ResultPayload{
			ID:             sj.ID,
			PartitionIndex: sj.PartitionIndex,
			Iteration:      sj.Iteration,
			Unsolvable:     true,
		})
		if submitErr != nil {
			log.Printf("[worker] reporting unsolvable sub-job %s failed: %v", sj.ID, submitErr)
		}
		return
	}

	if err := client.Submit(workerclient.ResultPayload{
		ID:             sj.ID,
		Values:         result.Values,
		SureMask:       result.SureMask,
		PartitionIndex: sj.PartitionIndex,
		Iteration:      sj.Iteration,
	}); err != nil {
		log.Printf("[worker] submitting sub-job %s failed: %v", sj.ID, err)
	}
}

func flattenBoard(rows [][]int) []int {
	var out []int
	for _, row := range rows {
		out = append(out, row...)
	}
	return out
}
