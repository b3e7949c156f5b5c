package reconciler

import "fmt"

// Report accumulates the outcome of one reconciliation or verify run.
// Warnings are tolerated drift (skipped groups, stray files); errors are
// failures that make the run exit non-zero.
type Report struct {
	ProductsScanned int
	GroupsFound     int
	RecordsCreated  int
	RecordsKept     int
	RecordsPurged   int
	Warnings        []string
	Errors          []string
}

func (r *Report) Warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Report) Errorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) HasErrors() bool {
	return len(r.Errors) > 0
}

// Summary renders the one-line result printed by the CLI.
func (r *Report) Summary() string {
	return fmt.Sprintf("products=%d groups=%d created=%d kept=%d purged=%d warnings=%d errors=%d",
		r.ProductsScanned, r.GroupsFound, r.RecordsCreated, r.RecordsKept, r.RecordsPurged,
		len(r.Warnings), len(r.Errors))
}
