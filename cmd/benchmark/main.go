package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/samber/lo"

	"github.com/schoolgrid/timetable/pkg/model"
	"github.com/schoolgrid/timetable/pkg/timetable"
)

const resultsPath = "benchmark_results.csv"

type BenchmarkResult struct {
	Workers         int    `csv:"workers"`
	Seed            int64  `csv:"seed"`
	DurationMs      int64  `csv:"duration_ms"`
	Assignments     int    `csv:"assignments"`
	Unplaced        int    `csv:"unplaced"`
	Backtracks      int    `csv:"backtracks"`
	Iterations      int    `csv:"iterations"`
	SuccessfulSwaps int    `csv:"successful_swaps"`
	Violations      int    `csv:"violations"`
	Result          string `csv:"result"`
}

func main() {
	school, err := model.NewSchool(syntheticConfig())
	if err != nil {
		log.Fatalf("cannot build school: %v", err)
	}

	workerCounts := []int{1, 2, 4, 8}
	seeds := []int64{1, 2, 3}
	results := make([]*BenchmarkResult, 0, len(workerCounts)*len(seeds))

	for _, workers := range workerCounts {
		for _, seed := range seeds {
			fmt.Printf("Benchmarking with %v workers and seed %v\n", workers, seed)
			results = append(results, measure(school, workers, seed))
		}
	}

	toCsv(results)
}

func measure(school *model.School, workers int, seed int64) *BenchmarkResult {
	opts := timetable.DefaultOptions()
	opts.Generator.Seed = seed
	opts.Optimizer.Seed = seed
	opts.Optimizer.StrategyWorkers = workers
	opts.Optimizer.ValidationWorkers = workers
	opts.TimeBudget = 30 * time.Second

	start := time.Now()
	schedule, report, err := timetable.Generate(context.Background(), school, nil, opts)
	duration := time.Since(start)

	result := &BenchmarkResult{
		Workers:    workers,
		Seed:       seed,
		DurationMs: duration.Milliseconds(),
		Result:     "solved",
	}
	if err != nil {
		result.Result = "error"
		return result
	}

	result.Assignments = schedule.Len()
	result.Unplaced = len(report.Generation.Unplaced)
	result.Backtracks = report.Generation.Backtracks
	result.Iterations = report.Optimization.Iterations
	result.SuccessfulSwaps = report.Optimization.SuccessfulSwaps
	result.Violations = len(report.Violations)
	if report.Generation.BudgetExceeded || report.Optimization.BudgetExceeded {
		result.Result = "timeout"
	} else if result.Violations > 0 {
		result.Result = "violated"
	}
	return result
}

// syntheticConfig builds a full three-grade school: four regular classes,
// one cluster class, and two exchange classes per grade, with enough
// teachers to cover the default hours table.
func syntheticConfig() model.SchoolConfig {
	classes := lo.FlatMap(lo.Range(3), func(grade int, _ int) []model.ClassRef {
		return lo.Map(lo.Range(7), func(number int, _ int) model.ClassRef {
			return model.ClassRef{Grade: grade + 1, Number: number + 1}
		})
	})

	subjects := lo.Keys(model.DefaultStandardHours())
	teachers := make([]model.Teacher, 0)
	subjectTeachers := make(map[model.Subject][]model.Teacher)
	for _, subject := range subjects {
		for index := 0; index < 3; index++ {
			teacher := model.Teacher(fmt.Sprintf("%v_teacher_%v", subject, index))
			teachers = append(teachers, teacher)
			subjectTeachers[subject] = append(subjectTeachers[subject], teacher)
		}
	}

	return model.SchoolConfig{
		Classes:         classes,
		Teachers:        teachers,
		SubjectTeachers: subjectTeachers,
		HoursOverrides: lo.FlatMap(classes, func(class model.ClassRef, _ int) []model.HoursOverride {
			return lo.MapToSlice(model.DefaultStandardHours(), func(subject model.Subject, hours int) model.HoursOverride {
				return model.HoursOverride{Class: class, Subject: subject, Hours: hours}
			})
		}),
	}
}

func toCsv(results []*BenchmarkResult) {
	file, err := os.Create(resultsPath)
	if err != nil {
		log.Fatalf("cannot create results file: %v", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&results, file); err != nil {
		log.Fatalf("cannot write results file: %v", err)
	}
	fmt.Printf("Results written to %v\n", resultsPath)
}
