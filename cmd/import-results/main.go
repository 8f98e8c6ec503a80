// Command import-results loads a legacy CSV result sheet, scores it, and
// prints the season tables. With the in-memory store it doubles as a
// validator: bad rows are reported with line numbers before any season
// review.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	app "github.com/strideclub/champ/internal/app"
	"github.com/strideclub/champ/internal/domain/model"
	"github.com/strideclub/champ/internal/importer"
	"github.com/strideclub/champ/pkg/logger"
)

func main() {
	var (
		inputFile = flag.String("file", "", "CSV result sheet to load")
		bestN     = flag.Int("best", 5, "Number of races counted toward season totals")
		tablePath = flag.String("table", "", "Standards file (default: embedded table)")
		verbose   = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if *inputFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	} else {
		_ = logger.SetLevelString("warn")
	}

	ctx := context.Background()

	svc := app.New(
		app.WithBestN(*bestN),
		app.WithTablePath(*tablePath),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		os.Exit(1)
	}

	f, err := os.Open(*inputFile)
	if err != nil {
		os.Stderr.WriteString("failed to open sheet: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = f.Close() }()

	report, err := importer.New(svc).Import(ctx, f)
	if err != nil {
		os.Stderr.WriteString("import failed: " + err.Error() + "\n")
		os.Exit(1)
	}

	fmt.Printf("imported %d results across %d races (%d duplicates, %d invalid)\n",
		report.Created, report.Races, report.Duplicates, report.Invalid)
	for _, rowErr := range report.Errors {
		fmt.Printf("  line %d: %s\n", rowErr.Line, rowErr.Reason)
	}

	male, female, err := svc.RawStandings(ctx)
	if err != nil {
		os.Stderr.WriteString("standings failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	ageGraded, err := svc.AgeGradedStandings(ctx)
	if err != nil {
		os.Stderr.WriteString("standings failed: " + err.Error() + "\n")
		os.Exit(1)
	}

	printTable("Men", male)
	printTable("Women", female)
	printTable("Age graded", ageGraded)
}

func printTable(title string, table []model.Standing) {
	fmt.Printf("\n%s\n", title)
	for _, s := range table {
		fmt.Printf("%3d. %-30s %4d pts (%d races)\n",
			s.Position, s.RunnerName, s.TotalPoints, s.RacesParticipated)
	}
}
