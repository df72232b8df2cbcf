// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/examtrace/internal/config"
	"github.com/examtrace/internal/oracle"
	"github.com/examtrace/internal/pipeline"
	"github.com/examtrace/internal/report"
	"github.com/examtrace/internal/store"
)

var (
	configPath = flag.String("config", "", "Config file path (default: ~/.examtrace/config.yaml)")
	dbPath     = flag.String("db", "", "SQLite database path (empty: do not persist)")
	reportDir  = flag.String("report-dir", "", "Directory for XLSX reports (empty: no report)")
	jsonOut    = flag.Bool("json", false, "Print the full result as JSON")
	noVerify   = flag.Bool("no-verify", false, "Skip oracle verification even when an API key is set")
)

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: extract [flags] <document> [<document> ...]\n")
		flag.PrintDefaults()
		os.Exit(2)
	}

	// Best effort: local .env for OPENAI_API_KEY etc.
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var o oracle.Oracle
	if !*noVerify && os.Getenv("OPENAI_API_KEY") != "" {
		o = oracle.NewOpenAIOracle(cfg.Oracle.Model)
	} else {
		log.Printf("Verification disabled (no API key or -no-verify), extraction only")
	}

	var st *store.Store
	if *dbPath != "" {
		st, err = store.Open(*dbPath)
		if err != nil {
			log.Fatalf("failed to open store: %v", err)
		}
		defer st.Close()
	}

	var reports *report.Writer
	if *reportDir != "" {
		reports = report.NewWriter(*reportDir)
	}

	p := pipeline.New(cfg.Profile, o, cfg.Oracle.Concurrency)
	ctx := context.Background()

	exitCode := 0
	for _, path := range flag.Args() {
		result, err := p.Run(ctx, path)
		if err != nil {
			log.Printf("failed to process %s: %v", path, err)
			exitCode = 1
			continue
		}

		if st != nil {
			if _, err := st.SaveResult(result); err != nil {
				log.Printf("failed to save result for %s: %v", path, err)
			}
		}
		if reports != nil {
			reportPath, err := reports.WriteResult(result)
			if err != nil {
				log.Printf("failed to write report for %s: %v", path, err)
			} else {
				log.Printf("report written: %s", reportPath)
			}
		}

		if *jsonOut {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				log.Fatalf("failed to encode result: %v", err)
			}
			fmt.Println(string(data))
			continue
		}

		printSummary(result)
	}

	os.Exit(exitCode)
}

func printSummary(result *pipeline.Result) {
	fmt.Printf("%s: %d pages, %d questions\n", result.SourcePath, result.PageCount, len(result.Questions))
	for _, q := range result.Questions {
		fmt.Printf("  Q%d (%d options, pages %d-%d)\n", q.Number, len(q.Options), q.Pages.First, q.Pages.Last)
	}
	if result.Report.Total > 0 {
		fmt.Printf("  verification: %d/%d passed (%.0f%%)\n",
			result.Report.PassedCount, result.Report.Total, result.Report.PassRate*100)
		if len(result.Report.TamperedQuestionNumbers) > 0 {
			fmt.Printf("  TAMPERING SUSPECTED: questions %v\n", result.Report.TamperedQuestionNumbers)
		}
		if len(result.ReExtractedNumbers) > 0 {
			fmt.Printf("  re-extracted: questions %v\n", result.ReExtractedNumbers)
		}
	}
}
