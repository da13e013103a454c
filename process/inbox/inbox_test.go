package inbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"acquittals/models"
	"acquittals/pkg/database/databasetest"
	"acquittals/pkg/ingest"
)

const salariesCSV = "Facility Name,Employee Name,Position,Salary Amount\n" +
	"Clinic A,John,Nurse,1000\n" +
	"Clinic A,Mary,Doctor,3000\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func countEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0
		}
		t.Fatalf("read dir: %v", err)
	}
	return len(entries)
}

func TestFormFor(t *testing.T) {
	cases := map[string]ingest.FormType{
		"goods-services/jan.xlsx":      ingest.GoodsServices,
		"salaries-form1/payroll.csv":   ingest.SalariesForm1,
		"salary-entry-form2_march.csv": ingest.SalaryEntryForm2,
		"Salaries_Form1 2024.xlsx":     ingest.SalariesForm1,
		"goods-services_q1.csv":        ingest.GoodsServices,
	}
	for in, want := range cases {
		got, err := FormFor(in)
		if err != nil || got != want {
			t.Fatalf("FormFor(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := FormFor("report.xlsx"); !errors.Is(err, ErrNoForm) {
		t.Fatalf("expected ErrNoForm, got %v", err)
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "goods-services_a.csv"), "x")
	writeFile(t, filepath.Join(dir, "notes.txt"), "x")
	writeFile(t, filepath.Join(dir, ".hidden.csv"), "x")
	writeFile(t, filepath.Join(dir, "salaries-form1", "b.xlsx"), "x")
	writeFile(t, filepath.Join(dir, processedDir, "old.csv"), "x")

	files, err := ListFiles(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"goods-services_a.csv", filepath.Join("salaries-form1", "b.xlsx")}
	if len(files) != len(want) {
		t.Fatalf("got %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("got %v, want %v", files, want)
		}
	}
}

func TestProcessFileIngestsAndMoves(t *testing.T) {
	db := databasetest.Open(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "salaries-form1", "payroll.csv"), salariesCSV)

	o := ProcessFile(context.Background(), db, dir, filepath.Join("salaries-form1", "payroll.csv"))
	if o.Err != nil || o.Records != 2 || o.Form != ingest.SalariesForm1 {
		t.Fatalf("unexpected outcome %+v", o)
	}
	if _, err := os.Stat(filepath.Join(dir, "salaries-form1", "payroll.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("file should have left the inbox, stat err=%v", err)
	}
	if n := countEntries(t, filepath.Join(dir, processedDir)); n != 1 {
		t.Fatalf("expected 1 processed file, got %d", n)
	}

	var up models.Upload
	if err := db.First(&up).Error; err != nil {
		t.Fatalf("load upload: %v", err)
	}
	if up.Source != models.SourceInbox || up.RecordsProcessed != 2 || up.FileName != "payroll.csv" {
		t.Fatalf("unexpected upload %+v", up)
	}
	if _, err := os.Stat(up.StorePath); err != nil {
		t.Fatalf("store path should point at the processed file: %v", err)
	}
	var n int64
	db.Model(&models.SalariesForm1Record{}).Count(&n)
	if n != 2 {
		t.Fatalf("expected 2 salary rows, got %d", n)
	}
}

func TestProcessFileFailures(t *testing.T) {
	db := databasetest.Open(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "goods-services", "broken.xlsx"), "not a workbook")
	writeFile(t, filepath.Join(dir, "unknown.csv"), salariesCSV)

	if o := ProcessFile(context.Background(), db, dir, filepath.Join("goods-services", "broken.xlsx")); o.Err == nil {
		t.Fatalf("expected read error")
	}
	if o := ProcessFile(context.Background(), db, dir, "unknown.csv"); !errors.Is(o.Err, ErrNoForm) {
		t.Fatalf("expected ErrNoForm, got %v", o.Err)
	}
	if n := countEntries(t, filepath.Join(dir, failedDir)); n != 2 {
		t.Fatalf("expected 2 failed files, got %d", n)
	}
	var uploads int64
	db.Model(&models.Upload{}).Count(&uploads)
	if uploads != 0 {
		t.Fatalf("failed files must not create uploads, got %d", uploads)
	}
}

func TestScan(t *testing.T) {
	db := databasetest.Open(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "salaries-form1_a.csv"), salariesCSV)
	writeFile(t, filepath.Join(dir, "salaries-form1", "b.csv"), salariesCSV)
	writeFile(t, filepath.Join(dir, "goods-services", "bad.xlsx"), "junk")

	out, err := Scan(context.Background(), db, Options{Dir: dir, Workers: 1})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 outcomes, got %+v", out)
	}
	var records, failed int
	for _, o := range out {
		if o.Err != nil {
			failed++
		}
		records += o.Records
	}
	if records != 4 || failed != 1 {
		t.Fatalf("records=%d failed=%d", records, failed)
	}
	if files, _ := ListFiles(dir); len(files) != 0 {
		t.Fatalf("inbox should be empty, still has %v", files)
	}
}

func TestWatchPicksUpNewFiles(t *testing.T) {
	db := databasetest.Open(t)
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan Outcome, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- Watch(ctx, db, Options{Dir: dir, Workers: 1}, func(o Outcome) { done <- o })
	}()

	// wait for the watcher to create the form subfolders
	sub := filepath.Join(dir, "salaries-form1")
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(sub); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("watcher did not start")
		}
		time.Sleep(20 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	tmp := filepath.Join(t.TempDir(), "payroll.csv")
	writeFile(t, tmp, salariesCSV)
	if err := os.Rename(tmp, filepath.Join(sub, "payroll.csv")); err != nil {
		// cross-device temp dirs
		writeFile(t, filepath.Join(sub, "payroll.csv"), salariesCSV)
	}

	select {
	case o := <-done:
		if o.Err != nil || o.Records != 2 {
			t.Fatalf("unexpected outcome %+v", o)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("file was not picked up")
	}
	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("watch: %v", err)
	}
}

func TestWatchStopsWithFullQueue(t *testing.T) {
	db := databasetest.Open(t)
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entered := make(chan struct{}, 3)
	release := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		errCh <- Watch(ctx, db, Options{Dir: dir, Workers: 1, Queue: 1}, func(Outcome) {
			entered <- struct{}{}
			<-release
		})
	}()

	sub := filepath.Join(dir, "salaries-form1")
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(sub); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("watcher did not start")
		}
		time.Sleep(20 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)
	for _, name := range []string{"a.csv", "b.csv", "c.csv"} {
		writeFile(t, filepath.Join(sub, name), salariesCSV)
	}

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatalf("first file was not picked up")
	}
	// the worker is busy and the queue is full; give the dispatcher time to block
	time.Sleep(time.Second)
	cancel()
	close(release)

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("watch: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("watch did not return after cancellation")
	}
	files, err := ListFiles(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files queued at shutdown should stay in the inbox, have %v", files)
	}
	if n := countEntries(t, filepath.Join(dir, failedDir)); n != 0 {
		t.Fatalf("no file should be marked failed on shutdown, got %d", n)
	}
}
