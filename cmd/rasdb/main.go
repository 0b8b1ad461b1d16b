package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"rasdb/internal/config"
	"rasdb/internal/lookup"
	"rasdb/internal/pipeline"
	"rasdb/internal/reconcile"
	"rasdb/internal/source"
	"rasdb/internal/storage"
	"rasdb/internal/wikidata"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "version":
		reader, err := source.Open(cfg.SourceDBPath)
		must(err)
		defer reader.Close()
		version, published, err := reader.Version()
		must(err)
		fmt.Printf("source database %s published on %s\n", version, published)
	case "normalize":
		runNormalize(cfg, db)
	case "export:csv":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output csv path")
		_ = fs.Parse(os.Args[2:])
		rows, err := db.FlatExportRows()
		must(err)
		path := outputPath(db, cfg, *out, "RAS_DB_FULL_CSV", "csv")
		must(pipeline.ExportFlatCSV(rows, path))
		fmt.Printf("exported %d rows to %s\n", len(rows), path)
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		stations, err := db.ListStations()
		must(err)
		version := metadataOr(db, "source.version", "")
		published := metadataOr(db, "source.published", "")
		path := outputPath(db, cfg, *out, "RAS_DB_FULL_XLSX", "xlsx")
		must(pipeline.ExportStationsToXLSX(stations, version, published, path))
		fmt.Printf("exported %d stations to %s\n", len(stations), path)
	case "wikidata:sync":
		svc := wikidata.NewSyncService(db, cfg)
		count, err := svc.Ingest(context.Background())
		must(err)
		fmt.Printf("wikidata sync complete: %d candidate sites\n", count)
	case "reconcile":
		runReconcile(cfg, db)
	default:
		usage()
		os.Exit(1)
	}
}

func runNormalize(cfg config.Config, db *storage.DB) {
	reader, err := source.Open(cfg.SourceDBPath)
	must(err)
	defer reader.Close()

	countries, err := lookup.Load(cfg.CountryFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: country table unavailable (%v), codes resolve to Unknown\n", err)
		countries = lookup.Empty()
	}

	norm := pipeline.NewNormalizer(reader, countries, nil)
	norm.Progress = func(done, total int) {
		fmt.Printf("\rnormalizing station %d of %d", done, total)
	}
	result, err := norm.Run()
	fmt.Println()
	must(err)

	must(db.SaveStations(result.Stations))

	if version, published, err := reader.Version(); err == nil {
		_ = db.SetMetadata("source.version", version)
		_ = db.SetMetadata("source.published", published)
	}

	fmt.Printf("normalized %d stations\n", len(result.Stations))
	for _, noticeErr := range result.Errors {
		fmt.Fprintf(os.Stderr, "skipped %v\n", noticeErr)
	}
}

func runReconcile(cfg config.Config, db *storage.DB) {
	stations, err := db.ListStations()
	must(err)
	if len(stations) == 0 {
		must(fmt.Errorf("no normalized stations; run normalize first"))
	}

	matcher := reconcile.NewMatcher(stations, cfg.ReconcileTopK)
	session, err := reconcile.NewSession(db, matcher)
	must(err)

	scanner := bufio.NewScanner(os.Stdin)
	for !session.Done() {
		candidate, ranked, _ := session.Current()

		fmt.Printf("\n[%d remaining] %s (%s)\n  %s\n", session.Remaining(), candidate.Name, candidate.Country, candidate.URI)
		if candidate.Longitude == nil || candidate.Latitude == nil {
			fmt.Println("  no coordinates on record; only no-match is available")
			fmt.Print("  [n] no match, [q] quit: ")
		} else {
			fmt.Printf("  at lon=%.4f lat=%.4f\n", *candidate.Longitude, *candidate.Latitude)
			for i, r := range ranked {
				fmt.Printf("  %2d. %-30s %s  %.1f km\n", i+1, r.Station.Name, r.Station.Adm, r.DistanceKm)
			}
			fmt.Print("  station numbers to link (e.g. 1,3), [n] no match, [q] quit: ")
		}

		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "q":
			fmt.Printf("stopped with %d candidates still pending\n", session.Remaining())
			return
		case "n", "":
			must(session.NoMatch())
		default:
			ids, err := parseSelection(input, ranked)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  %v\n", err)
				continue
			}
			must(session.Confirm(ids))
		}
	}

	fmt.Println("reconciliation pass complete")
}

func parseSelection(input string, ranked []reconcile.RankedStation) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > len(ranked) {
			return nil, fmt.Errorf("invalid selection %q (choose 1-%d)", part, len(ranked))
		}
		ids = append(ids, ranked[n-1].Station.ID)
	}
	return ids, nil
}

func outputPath(db *storage.DB, cfg config.Config, out, prefix, ext string) string {
	if strings.TrimSpace(out) != "" {
		return out
	}
	version := metadataOr(db, "source.version", "unknown")
	published := metadataOr(db, "source.published", "unknown")
	return filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_%s_%s.%s", prefix, version, published, ext))
}

func metadataOr(db *storage.DB, key, fallback string) string {
	value, err := db.GetMetadata(key)
	if err != nil || value == nil {
		return fallback
	}
	return *value
}

func usage() {
	fmt.Println("usage: rasdb <command>")
	fmt.Println("commands:")
	fmt.Println("  version                  print source database version")
	fmt.Println("  normalize                build the normalized station hierarchy")
	fmt.Println("  export:csv [--out=...]   flattened delimited export")
	fmt.Println("  export:xlsx [--out=...]  per-station document export")
	fmt.Println("  wikidata:sync            ingest candidate sites")
	fmt.Println("  reconcile                interactive candidate/station linking")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
