package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"acquittals/pkg/database"
	"acquittals/process/report"
)

func main() {
	month := flag.String("month", time.Now().UTC().Format("2006-01"), "month to report (YYYY-MM)")
	facility := flag.String("facility", "", "restrict to one facility name")
	list := flag.Bool("list", false, "list matching goods and services rows")
	flag.Parse()

	db := database.MustOpenFromEnv()
	defer database.Close(db)

	if err := report.RunReport(context.Background(), db, os.Stdout, *month, *facility, *list); err != nil {
		log.Fatalf("report failed: %v", err)
	}
}
