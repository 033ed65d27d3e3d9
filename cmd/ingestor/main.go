package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	geojsonadapter "github.com/samirrijal/plotfit/internal/adapters/geojson"
	"github.com/samirrijal/plotfit/internal/adapters/postgres"
	"github.com/samirrijal/plotfit/internal/core/domain"
	"github.com/samirrijal/plotfit/internal/pkg/config"
	"github.com/samirrijal/plotfit/internal/pkg/logging"
)

// ---------------------------------------------------------------------------
// Manifest types
// ---------------------------------------------------------------------------

type Manifest struct {
	Source  string        `json:"source"`
	Parcels []ParcelEntry `json:"parcels"`
}

// ParcelEntry is one GeoJSON FeatureCollection to load, either from a URL
// or a local file.
type ParcelEntry struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	URL  string `json:"url,omitempty"`
	File string `json:"file,omitempty"`
}

const (
	batchSize      = 500
	maxConcurrent  = 4
	maxPayloadSize = 256 << 20
)

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	cfg, err := config.Load("plotfit-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("plotfit-ingestor", cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Load manifest
	manifestPath := "manifest.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}

	manifest, err := readManifest(manifestPath)
	if err != nil {
		log.Fatalf("manifest: %v", err)
	}

	slog.Info("parcel ingestion starting", "entries", len(manifest.Parcels), "source", manifest.Source)

	// Filter entries (optional CLI arg: slug list)
	slugFilter := map[string]bool{}
	if len(os.Args) > 2 {
		for _, s := range strings.Split(os.Args[2], ",") {
			slugFilter[strings.TrimSpace(s)] = true
		}
	}

	client := &http.Client{Timeout: 120 * time.Second}
	repo := postgres.NewParcelRepo(db, cfg.Parcels.SearchRadiusM)

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrent)

	for _, entry := range manifest.Parcels {
		if len(slugFilter) > 0 && !slugFilter[entry.Slug] {
			continue
		}

		wg.Add(1)
		go func(e ParcelEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			n, err := ingestEntry(ctx, repo, client, e)
			if err != nil {
				slog.Error("ingest failed", "slug", e.Slug, "error", err)
				return
			}
			slog.Info("ingested", "slug", e.Slug, "parcels", n)
		}(entry)
	}

	wg.Wait()

	total, err := repo.Count(ctx)
	if err != nil {
		slog.Warn("count parcels", "error", err)
	}
	slog.Info("ingestion complete", "parcels_total", total)
}

func readManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, e := range m.Parcels {
		if e.Slug == "" {
			return nil, fmt.Errorf("entry %d: slug is required", i)
		}
		if (e.URL == "") == (e.File == "") {
			return nil, fmt.Errorf("entry %s: exactly one of url and file is required", e.Slug)
		}
	}
	return &m, nil
}

// ---------------------------------------------------------------------------
// Per-entry ingestion
// ---------------------------------------------------------------------------

// upserter is the part of postgres.ParcelRepo the ingestor needs.
type upserter interface {
	UpsertBatch(ctx context.Context, source string, parcels []domain.Polygon) error
}

func ingestEntry(ctx context.Context, repo upserter, client *http.Client, e ParcelEntry) (int, error) {
	data, err := load(ctx, client, e)
	if err != nil {
		return 0, err
	}

	polygons, err := geojsonadapter.DecodeFeatureCollection(data)
	if err != nil {
		return 0, err
	}
	// Feature ids are only unique within one collection.
	for i := range polygons {
		polygons[i].ID = e.Slug + ":" + polygons[i].ID
	}

	for start := 0; start < len(polygons); start += batchSize {
		end := start + batchSize
		if end > len(polygons) {
			end = len(polygons)
		}
		if err := repo.UpsertBatch(ctx, e.Slug, polygons[start:end]); err != nil {
			return start, fmt.Errorf("upsert batch at %d: %w", start, err)
		}
	}
	return len(polygons), nil
}

func load(ctx context.Context, client *http.Client, e ParcelEntry) ([]byte, error) {
	if e.File != "" {
		return os.ReadFile(e.File)
	}

	slog.Info("downloading parcels", "slug", e.Slug, "url", e.URL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, e.URL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadSize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
