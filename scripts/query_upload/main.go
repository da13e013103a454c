package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"acquittals/pkg/database"
	"acquittals/process/sanitize"
)

func main() {
	id := flag.Uint("id", 0, "upload id")
	flag.Parse()
	if *id == 0 {
		log.Fatal("--id required")
	}
	db := database.MustOpenFromEnv()
	defer database.Close(db)

	up, plan, err := sanitize.UploadPlan(context.Background(), db, *id)
	if err != nil {
		log.Fatalf("upload: %v", err)
	}
	fmt.Printf("upload id=%d form=%s source=%s file=%q records=%d store=%s at=%s\n",
		up.ID, up.FormType, up.Source, up.FileName, up.RecordsProcessed, up.StorePath, up.CreatedAt.Format("2006-01-02 15:04:05"))
	for table, n := range plan.Tables {
		if table != "uploads" && n > 0 {
			fmt.Printf(" - %s: %d rows\n", table, n)
		}
	}
}
