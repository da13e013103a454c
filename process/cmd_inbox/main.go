package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"acquittals/pkg/config"
	"acquittals/pkg/database"
	"acquittals/process/inbox"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	dir := flag.String("dir", cfg.InboxDir, "inbox directory to ingest from")
	watch := flag.Bool("watch", false, "keep running and ingest new files as they arrive")
	workers := flag.Int("workers", 0, "number of parallel workers (0 = NumCPU)")
	flag.Parse()

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Fatalf("create inbox dir: %v", err)
	}

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer database.Close(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := inbox.Options{Dir: *dir, Workers: *workers}
	outcomes, err := inbox.Scan(ctx, db, opts)
	if err != nil {
		log.Fatalf("scan inbox: %v", err)
	}
	var ok, failed, records int
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			continue
		}
		ok++
		records += o.Records
	}
	log.Printf("inbox scan: %d files ingested (%d records), %d failed", ok, records, failed)

	if !*watch {
		return
	}
	if err := inbox.Watch(ctx, db, opts, nil); err != nil {
		log.Fatalf("watch inbox: %v", err)
	}
	log.Printf("inbox watcher stopped")
}
