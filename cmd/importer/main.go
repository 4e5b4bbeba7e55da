package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/samirrijal/mapdraw/internal/adapters/postgres"
	"github.com/samirrijal/mapdraw/internal/core/domain"
	"github.com/samirrijal/mapdraw/internal/core/ports"
	"github.com/samirrijal/mapdraw/internal/core/tools"
	"github.com/samirrijal/mapdraw/internal/pkg/config"
	"github.com/samirrijal/mapdraw/internal/pkg/logging"
)

// importer loads GeoJSON files into the drawings table. A single file is
// stored under storage.document_key; with several files each is stored
// under its base name without extension.
//
//	importer drawing.geojson
//	importer north.geojson south.geojson
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: importer <file.geojson>...")
	}

	cfg, err := config.Load("mapdraw-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	files := os.Args[1:]
	failed := importAll(ctx, afero.NewOsFs(), postgres.NewDrawingRepo(db), files, cfg.Storage.DocumentKey)
	if failed > 0 {
		log.Fatalf("%d of %d files failed", failed, len(files))
	}
	slog.Info("import complete", "files", len(files))
}

// importAll imports files concurrently and returns the number that failed.
func importAll(ctx context.Context, fsys afero.Fs, repo ports.DrawingRepository, files []string, defaultKey string) int {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	sem := make(chan struct{}, 4) // max 4 concurrent imports

	for _, f := range files {
		key := defaultKey
		if len(files) > 1 {
			key = keyFor(f)
		}

		wg.Add(1)
		go func(path, key string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			shapes, err := importFile(ctx, fsys, repo, path, key)
			if err != nil {
				slog.Error("import failed", "file", path, "key", key, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			slog.Info("imported", "file", path, "key", key, "shapes", shapes)
		}(f, key)
	}

	wg.Wait()
	return failed
}

// importFile validates one file, stores it in canonical form and archives
// it as a revision. It returns the number of shapes stored.
func importFile(ctx context.Context, fsys afero.Fs, repo ports.DrawingRepository, path, key string) (int, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return 0, fmt.Errorf("read: %w", err)
	}

	doc, err := domain.DecodeGeoJSON(data, tools.DefaultConfig().Style())
	if err != nil {
		return 0, err
	}

	snapshot := "{}"
	if doc.Len() > 0 {
		encoded, err := domain.EncodeGeoJSON(doc)
		if err != nil {
			return 0, err
		}
		snapshot = string(encoded)
	}

	seq := domain.NextSeq()
	applied, err := repo.SaveDrawing(ctx, key, snapshot, seq)
	if err != nil {
		return 0, fmt.Errorf("save drawing: %w", err)
	}
	if !applied {
		slog.Warn("newer drawing already stored, file archived only", "file", path, "key", key)
	}
	if _, err := repo.AppendRevision(ctx, key, snapshot, seq); err != nil {
		return 0, fmt.Errorf("append revision: %w", err)
	}
	return doc.Len(), nil
}

func keyFor(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
