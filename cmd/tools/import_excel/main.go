package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"plant-maint-api/internal/config"
	"plant-maint-api/internal/sheet"
	"plant-maint-api/pkg/importer"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var filePath, mappingPath string
	dryRun := false
	appendRows := false

	for _, arg := range os.Args[1:] {
		switch {
		case strings.HasPrefix(arg, "--file="):
			filePath = strings.TrimPrefix(arg, "--file=")
		case strings.HasPrefix(arg, "--mapping="):
			mappingPath = strings.TrimPrefix(arg, "--mapping=")
		case arg == "--dry-run":
			dryRun = true
		case arg == "--append":
			appendRows = true
		}
	}
	if filePath == "" {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()
	cfg := config.Load()

	store, cleanup, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open table store: %v", err)
	}
	defer cleanup()

	file, err := os.Open(filePath)
	if err != nil {
		log.Fatalf("Failed to open Excel file: %v", err)
	}
	defer file.Close()

	fmt.Printf("Importing %s into %s store (dry_run=%v append=%v)\n", filePath, cfg.StoreBackend, dryRun, appendRows)
	fmt.Println(strings.Repeat("=", 60))

	summary, err := importer.ImportExcel(context.Background(), store, file, importer.ImportOptions{
		MappingPath: mappingPath,
		DryRun:      dryRun,
		Append:      appendRows,
		MaxErrors:   50,
	})
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("IMPORT SUMMARY")
	fmt.Printf("Total imported: %d\n", summary.Imported)
	fmt.Printf("Total skipped: %d\n", summary.Skipped)
	fmt.Printf("Total errors: %d\n", summary.Errors)
	fmt.Printf("Dry run: %v\n", summary.DryRun)

	for _, ws := range summary.Sheets {
		fmt.Printf("  %s -> %s: imported=%d, skipped=%d, repaired=%d, errors=%d\n",
			ws.Name, ws.Table, ws.Imported, ws.Skipped, ws.Repaired, ws.Errors)
		for _, sample := range ws.Samples {
			fmt.Printf("    Row %d: %s\n", sample.Row, sample.Message)
		}
	}
}

func usage() {
	fmt.Println("Usage: import_excel --file=path.xlsx [--mapping=configs/mapping.yaml] [--dry-run] [--append]")
}

func buildStore(cfg *config.Config) (sheet.Store, func(), error) {
	nop := func() {}
	switch cfg.StoreBackend {
	case config.BackendSheets:
		s, err := sheet.NewSheetsStore(context.Background(), cfg.SpreadsheetID, cfg.CredentialsFile)
		if err != nil {
			return nil, nop, err
		}
		s.SettleDelay = cfg.SheetsSettleDelay
		return s, nop, nil
	case config.BackendPostgres:
		s, err := sheet.NewPostgresStore(context.Background(), cfg.DatabaseDSN)
		if err != nil {
			return nil, nop, err
		}
		return s, s.Close, nil
	case config.BackendMemory:
		return sheet.NewMemoryStore(), nop, nil
	default:
		return sheet.NewXLSXStore(cfg.XLSXPath), nop, nil
	}
}
