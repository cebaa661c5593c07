package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/schoolgrid/timetable/internal/loader"
	"github.com/schoolgrid/timetable/pkg/model"
	"github.com/schoolgrid/timetable/pkg/timetable"
)

func main() {
	// Define arguments
	schoolPtr := flag.String("school", "", "Path to the school capability JSON file")
	schedulePtr := flag.String("schedule", "", "Path to an optional initial schedule CSV file")
	outPtr := flag.String("out", "", "Path to the output schedule CSV file; if empty, only a summary is printed")
	configPtr := flag.String("config", "", "Path to an optional engine configuration file")
	iterationsPtr := flag.Int("iterations", 0, "Maximum optimizer iterations; 0 keeps the default")
	budgetPtr := flag.Duration("budget", 0, "Elapsed-time budget for the whole run; 0 means unbounded")
	seedPtr := flag.Int64("seed", 1, "Random seed for deterministic runs")
	workersPtr := flag.Int("workers", 1, "Parallel strategy workers for the optimizer")
	patternsPtr := flag.String("patterns", "", "Path to the persisted pattern store")
	verbosePtr := flag.Bool("verbose", false, "Enable development logging")
	flag.Parse()

	// Validate arguments
	if *schoolPtr == "" {
		log.Fatal("a school file must be specified")
	}

	logger := buildLogger(*verbosePtr)
	defer logger.Sync()

	opts := timetable.DefaultOptions()
	opts.Logger = logger
	opts.MaxIterations = *iterationsPtr
	opts.TimeBudget = *budgetPtr
	opts.PatternStorePath = *patternsPtr
	opts.Generator.Seed = *seedPtr
	opts.Optimizer.Seed = *seedPtr
	opts.Optimizer.StrategyWorkers = *workersPtr

	if *configPtr != "" {
		applyConfigFile(*configPtr, &opts)
	}

	// Extract input
	school, err := loader.SchoolFromJSON(*schoolPtr)
	if err != nil {
		log.Fatalf("cannot load school: %v", err)
	}
	var initial *model.Schedule
	if *schedulePtr != "" {
		if initial, err = loader.ScheduleFromCSV(*schedulePtr); err != nil {
			log.Fatalf("cannot load initial schedule: %v", err)
		}
	}

	// Build timetable
	schedule, report, err := timetable.Generate(context.Background(), school, initial, opts)
	if err != nil {
		log.Fatalf("an error occurred during timetable construction: %v", err)
	}

	fmt.Printf("Assignments: %v\n", schedule.Len())
	fmt.Printf("Unplaced requirements: %v\n", len(report.Generation.Unplaced))
	fmt.Printf("Backtracks: %v\n", report.Generation.Backtracks)
	fmt.Printf("Optimizer iterations: %v\n", report.Optimization.Iterations)
	fmt.Printf("Successful swaps: %v\n", report.Optimization.SuccessfulSwaps)
	fmt.Printf("Violations: %v\n", len(report.Violations))
	for _, violation := range report.Violations {
		fmt.Printf("  %v\n", violation)
	}

	if *outPtr != "" {
		if err := loader.WriteScheduleCSV(*outPtr, schedule); err != nil {
			log.Fatalf("an error occurred while writing to the output file: %v", err)
		}
	}

	if len(report.Violations) > 0 {
		os.Exit(1)
	}
}

func buildLogger(verbose bool) *zap.Logger {
	builder := zap.NewProduction
	if verbose {
		builder = zap.NewDevelopment
	}
	logger, err := builder()
	if err != nil {
		log.Fatalf("cannot build logger: %v", err)
	}
	return logger
}

// applyConfigFile overrides engine defaults from a viper-readable file;
// flags still win for the values they set explicitly.
func applyConfigFile(path string, opts *timetable.Options) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("cannot read config file: %v", err)
	}

	if v.IsSet("optimizer.max_iterations") && opts.MaxIterations == 0 {
		opts.MaxIterations = v.GetInt("optimizer.max_iterations")
	}
	if v.IsSet("optimizer.plateau_threshold") {
		opts.Optimizer.PlateauThreshold = v.GetInt("optimizer.plateau_threshold")
	}
	if v.IsSet("optimizer.initial_temperature") {
		opts.Optimizer.InitialTemperature = v.GetFloat64("optimizer.initial_temperature")
	}
	if v.IsSet("optimizer.cooling_rate") {
		opts.Optimizer.CoolingRate = v.GetFloat64("optimizer.cooling_rate")
	}
	if v.IsSet("optimizer.validation_workers") {
		opts.Optimizer.ValidationWorkers = v.GetInt("optimizer.validation_workers")
	}
	if v.IsSet("generator.max_backtracks") {
		opts.Generator.MaxBacktracks = v.GetInt("generator.max_backtracks")
	}
	if v.IsSet("budget") && opts.TimeBudget == 0 {
		opts.TimeBudget = v.GetDuration("budget")
	}
}
