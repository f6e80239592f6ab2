package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"freight-enquiry-importer/internal/config"
	"freight-enquiry-importer/internal/db"
	"freight-enquiry-importer/internal/domain"
	"freight-enquiry-importer/internal/importer"
)

const maxErrorsPrinted = 20

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	runMaster := flag.Bool("master", false, "import master-data files configured under files.*")
	enquiryFile := flag.String("enquiries", "", "enquiry tracker export to import (.csv or .xlsx)")
	flag.Parse()

	if !*runMaster && *enquiryFile == "" {
		log.Fatal("nothing to do: pass -master and/or -enquiries <file>")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	conn, err := db.NewConnection(ctx, cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	if err := db.RunMigrations(ctx, conn.Pool, cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	runner := importer.NewRunner(conn, cfg.BatchSize)

	if *runMaster {
		src, closers := openMasterSources(cfg.Files)
		report, err := runner.ImportMaster(ctx, src)
		closeAll(closers)
		if err != nil {
			log.Fatalf("Master import failed: %v", err)
		}
		printMasterReport(report)
	}

	if *enquiryFile != "" {
		f, err := os.Open(*enquiryFile)
		if err != nil {
			log.Fatalf("Failed to open enquiry file: %v", err)
		}

		report, err := runner.ImportEnquiries(ctx, filepath.Base(*enquiryFile), f)
		f.Close()
		if err != nil {
			log.Fatalf("Enquiry import failed: %v", err)
		}
		printRunReport(report)
	}
}

// openMasterSources opens every configured master file; missing paths are
// skipped.
func openMasterSources(files config.Files) (importer.MasterSources, []*os.File) {
	var src importer.MasterSources
	var closers []*os.File

	open := func(path string) *os.File {
		if path == "" {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			log.Fatalf("Failed to open %s: %v", path, err)
		}
		closers = append(closers, f)
		return f
	}

	if f := open(files.Countries); f != nil {
		src.Countries = f
	}
	if f := open(files.Airports); f != nil {
		src.Airports = f
	}
	if f := open(files.Seaports); f != nil {
		src.Seaports = f
	}
	if f := open(files.Sales); f != nil {
		src.Sales = f
	}
	return src, closers
}

func closeAll(files []*os.File) {
	for _, f := range files {
		f.Close()
	}
}

func printRunReport(report domain.RunReport) {
	log.Printf("[IMPORT] run %s finished", report.RunID)
	log.Printf("  total rows:        %d", report.Total)
	log.Printf("  imported:          %d", report.Success)
	log.Printf("  failed:            %d", report.Failed)
	log.Printf("  countries created: %d", report.CountriesCreated)
	log.Printf("  ports created:     %d", report.PortsCreated)
	log.Printf("  offices created:   %d", report.SalesOfficesCreated)
	log.Printf("  offers created:    %d", report.OffersCreated)
	printErrors(report.Errors)
}

func printMasterReport(report domain.MasterReport) {
	log.Printf("[MASTER] run %s finished", report.RunID)
	log.Printf("  countries: %d", report.Countries)
	log.Printf("  airports:  %d", report.Airports)
	log.Printf("  seaports:  %d", report.Seaports)
	log.Printf("  offices:   %d", report.SalesOffices)
	log.Printf("  contacts:  %d", report.SalesPICs)
	printErrors(report.Errors)
}

func printErrors(errors []domain.RowError) {
	if len(errors) == 0 {
		return
	}
	log.Printf("  errors: %d (showing up to %d)", len(errors), maxErrorsPrinted)
	for i, rowErr := range errors {
		if i >= maxErrorsPrinted {
			break
		}
		log.Printf("    row %d: %s", rowErr.Row, rowErr.Message)
	}
}
