package optimizer

// Statistics reports the outcome of one optimization run. The violation
// breakdown describes the returned best-known schedule.
type Statistics struct {
	Iterations        int
	SuccessfulSwaps   int
	FailedAttempts    int
	Perturbations     int
	InitialViolations int
	FinalViolations   int
	ViolationsByKind  map[string]int
	BudgetExceeded    bool
}
