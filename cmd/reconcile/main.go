// Command reconcile scans the ledger once for slots held by more than
// one booking.  It exits 1 when duplicates are found and 2 on errors.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/LytheanSem/emotionwork-sub001/internal/backend"
	"github.com/LytheanSem/emotionwork-sub001/internal/config"
	"github.com/LytheanSem/emotionwork-sub001/internal/service"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("config: %v", err)
		return 2
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Printf("logger: %v", err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	l, closeLedger, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		log.Printf("open ledger: %v", err)
		return 2
	}
	defer closeLedger()

	dups, err := service.NewBookingSvc(l, nil, logger).Reconcile(ctx)
	if err != nil {
		log.Printf("reconcile: %v", err)
		return 2
	}
	if len(dups) == 0 {
		fmt.Println("no double bookings")
		return 0
	}
	keys := make([]string, 0, len(dups))
	for k := range dups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s\t%v\n", k, dups[k])
	}
	return 1
}
