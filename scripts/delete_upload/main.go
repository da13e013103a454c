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
	id := flag.Uint("id", 0, "upload id to remove together with its records")
	dry := flag.Bool("dry-run", true, "Preview actions without modifying the DB")
	yes := flag.Bool("yes", false, "Confirm destructive action when dry-run=false")
	keepFile := flag.Bool("keep-file", false, "Leave the stored source file on disk")
	flag.Parse()
	if *id == 0 {
		log.Fatal("--id required")
	}

	db := database.MustOpenFromEnv()
	defer database.Close(db)
	ctx := context.Background()

	up, plan, err := sanitize.UploadPlan(ctx, db, *id)
	if err != nil {
		log.Fatalf("upload lookup failed: %v", err)
	}
	fmt.Printf("Planned actions for upload %d (%s, %q):\n", up.ID, up.FormType, up.FileName)
	for table, n := range plan.Tables {
		fmt.Printf(" - DELETE %d rows from %s\n", n, table)
	}
	if *dry {
		fmt.Println("dry-run: no changes made. Use --dry-run=false --yes to execute.")
		return
	}
	if !*yes {
		fmt.Println("Destructive! Pass --yes to proceed.")
		return
	}
	done, err := sanitize.DeleteUpload(ctx, db, *id)
	if err != nil {
		log.Fatalf("delete failed: %v", err)
	}
	if !*keepFile {
		sanitize.RemoveFiles(done.Files)
	}
	fmt.Printf("cleanup done: %d rows deleted\n", done.Total())
}
