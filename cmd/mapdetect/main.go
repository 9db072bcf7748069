package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jfilter/timetiles-sub012/internal/analysis"
	"github.com/jfilter/timetiles-sub012/internal/service"
)

var (
	language   string
	statsOnly  bool
	prettyJSON bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mapdetect",
		Short: "Infer schema statistics and semantic field mappings from a CSV file",
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze <file.csv>",
		Short: "Analyze a CSV file and print detected field mappings",
		Args:  cobra.ExactArgs(1),
		Run:   runAnalyze,
	}
	analyzeCmd.Flags().StringVar(&language, "language", "eng", "dataset language code for pattern selection")
	analyzeCmd.Flags().BoolVar(&statsOnly, "stats-only", false, "print only field statistics, skip mapping detection output")
	analyzeCmd.Flags().BoolVar(&prettyJSON, "pretty", true, "indent JSON output")

	rootCmd.AddCommand(analyzeCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func runAnalyze(cmd *cobra.Command, args []string) {
	svc := analysis.NewService(service.DefaultDetectorConfig())

	report, err := svc.AnalyzeFile(args[0], language)
	if err != nil {
		log.Fatalf("analyze %s: %v", args[0], err)
	}

	var out interface{} = report
	if statsOnly {
		out = report.Stats
	}

	enc := json.NewEncoder(os.Stdout)
	if prettyJSON {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		log.Fatalf("encode report: %v", err)
	}

	if !statsOnly {
		fmt.Fprintf(os.Stderr, "analyzed %d rows, %d columns\n", report.RowCount, len(report.Columns))
	}
}
