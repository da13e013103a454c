// Package inbox ingests spreadsheets dropped into a directory. The form type
// comes from the subfolder (inbox/goods-services/jan.xlsx) or from a file name
// prefix (inbox/goods-services_jan.xlsx). Ingested files move to processed/,
// unreadable ones to failed/.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"acquittals/models"
	"acquittals/pkg/ingest"

	"github.com/fsnotify/fsnotify"
	"gorm.io/gorm"
)

const (
	processedDir = "processed"
	failedDir    = "failed"
)

// ErrNoForm is returned for a file whose location names no form type.
var ErrNoForm = errors.New("cannot determine form type from path")

type Options struct {
	Dir     string
	Workers int
	// Queue bounds the files waiting for a worker in Watch (default 256).
	Queue int
}

func (o Options) queueSize() int {
	if o.Queue <= 0 {
		return 256
	}
	return o.Queue
}

func (o Options) workers() int {
	if o.Workers <= 0 {
		return runtime.NumCPU()
	}
	return o.Workers
}

// Outcome is the result of one file.
type Outcome struct {
	File    string
	Form    ingest.FormType
	Records int
	Err     error
}

// FormFor resolves the form type of rel, a path relative to the inbox root.
func FormFor(rel string) (ingest.FormType, error) {
	rel = filepath.ToSlash(rel)
	if dir, _, ok := strings.Cut(rel, "/"); ok {
		if f, err := ingest.ParseFormType(dir); err == nil {
			return f, nil
		}
	}
	base := strings.ToLower(filepath.Base(rel))
	for _, f := range ingest.Forms {
		for _, prefix := range []string{string(f), strings.ReplaceAll(string(f), "-", "_")} {
			if strings.HasPrefix(base, prefix) {
				return f, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoForm, rel)
}

// ListFiles returns supported spreadsheets in the root and in the per-form
// subfolders, relative to dir and sorted.
func ListFiles(dir string) ([]string, error) {
	var out []string
	add := func(sub string) error {
		entries, err := os.ReadDir(filepath.Join(dir, sub))
		if err != nil {
			if sub != "" && errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		for _, e := range entries {
			if e.IsDir() || !ingest.SupportedExt(e.Name()) || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			out = append(out, filepath.Join(sub, e.Name()))
		}
		return nil
	}
	if err := add(""); err != nil {
		return nil, err
	}
	for _, f := range ingest.Forms {
		if err := add(string(f)); err != nil {
			return nil, err
		}
	}
	sort.Strings(out)
	return out, nil
}

// ProcessFile ingests one file and moves it out of the inbox.
func ProcessFile(ctx context.Context, db *gorm.DB, dir, rel string) Outcome {
	out := Outcome{File: rel}
	src := filepath.Join(dir, rel)
	form, err := FormFor(rel)
	if err != nil {
		out.Err = err
		moveOrWarn(src, filepath.Join(dir, failedDir))
		return out
	}
	out.Form = form

	f, err := os.Open(src)
	if err != nil {
		out.Err = err
		return out
	}
	rows, err := ingest.ReadFile(form, f, src)
	f.Close()
	if err != nil {
		out.Err = err
		moveOrWarn(src, filepath.Join(dir, failedDir))
		return out
	}

	dst, err := moveTo(src, filepath.Join(dir, processedDir))
	if err != nil {
		out.Err = fmt.Errorf("move to processed: %w", err)
		return out
	}
	res, err := ingest.Store(ctx, db, ingest.Batch{
		Form:      form,
		Source:    models.SourceInbox,
		FileName:  filepath.Base(rel),
		StorePath: dst,
	}, rows)
	if err != nil {
		out.Err = err
		moveOrWarn(dst, filepath.Join(dir, failedDir))
		return out
	}
	out.Records = res.Records
	return out
}

// Scan processes everything currently in the inbox with a worker pool.
func Scan(ctx context.Context, db *gorm.DB, opts Options) ([]Outcome, error) {
	files, err := ListFiles(opts.Dir)
	if err != nil {
		return nil, err
	}
	ch := make(chan string)
	go func() {
		defer close(ch)
		for _, f := range files {
			select {
			case ch <- f:
			case <-ctx.Done():
				return
			}
		}
	}()
	var (
		mu  sync.Mutex
		out []Outcome
	)
	runWorkers(ctx, db, opts, ch, func(o Outcome) {
		mu.Lock()
		out = append(out, o)
		mu.Unlock()
	})
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out, nil
}

func runWorkers(ctx context.Context, db *gorm.DB, opts Options, files <-chan string, done func(Outcome)) {
	var wg sync.WaitGroup
	for i := 0; i < opts.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rel := range files {
				// left in place for the next scan
				if ctx.Err() != nil {
					continue
				}
				o := ProcessFile(ctx, db, opts.Dir, rel)
				logOutcome(o)
				if done != nil {
					done(o)
				}
			}
		}()
	}
	wg.Wait()
}

func logOutcome(o Outcome) {
	if o.Err != nil {
		slog.Warn("inbox file failed", "file", o.File, "error", o.Err)
		return
	}
	slog.Info("inbox file ingested", "file", o.File, "form", o.Form, "records", o.Records)
}

// Watch processes files as they appear until ctx is cancelled. A file is
// picked up once it has seen no write for the settle period.
func Watch(ctx context.Context, db *gorm.DB, opts Options, onDone func(Outcome)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(opts.Dir); err != nil {
		return err
	}
	for _, f := range ingest.Forms {
		sub := filepath.Join(opts.Dir, string(f))
		if err := os.MkdirAll(sub, 0o755); err != nil {
			return err
		}
		if err := w.Add(sub); err != nil {
			return err
		}
	}
	slog.Info("watching inbox", "dir", opts.Dir)

	const settle = 300 * time.Millisecond
	fileCh := make(chan string, opts.queueSize())
	poolDone := make(chan struct{})
	go func() {
		runWorkers(ctx, db, opts, fileCh, onDone)
		close(poolDone)
	}()
	defer func() {
		close(fileCh)
		<-poolDone
	}()

	pending := map[string]time.Time{}
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !ingest.SupportedExt(ev.Name) || strings.HasPrefix(filepath.Base(ev.Name), ".") {
				continue
			}
			rel, err := filepath.Rel(opts.Dir, ev.Name)
			if err != nil {
				continue
			}
			pending[rel] = time.Now()
		case now := <-ticker.C:
			for rel, t := range pending {
				if now.Sub(t) > settle {
					delete(pending, rel)
					if _, err := os.Stat(filepath.Join(opts.Dir, rel)); err != nil {
						continue
					}
					select {
					case fileCh <- rel:
					case <-ctx.Done():
						return nil
					}
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "error", err)
		}
	}
}

func moveOrWarn(src, dstDir string) {
	if _, err := moveTo(src, dstDir); err != nil {
		slog.Warn("failed to move inbox file", "file", src, "to", dstDir, "error", err)
	}
}

// moveTo moves src into dstDir under a timestamped name and returns the new
// path. It attempts an atomic rename and falls back to copy+remove.
func moveTo(src, dstDir string) (string, error) {
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(dstDir, time.Now().UTC().Format("20060102T150405.000")+"_"+filepath.Base(src))
	if err := os.Rename(src, dst); err == nil {
		return dst, nil
	}
	return dst, copyRemove(src, dst)
}

func copyRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
