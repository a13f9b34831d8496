package indicator

import (
	"fmt"
	"strings"
)

// SchemaError reports required input columns that are missing or blank.
// It is fatal: no partial output accompanies it.
type SchemaError struct {
	Columns []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required column(s): %s", strings.Join(e.Columns, ", "))
}

// NewSchemaError builds a SchemaError for the named columns.
func NewSchemaError(columns ...string) *SchemaError {
	return &SchemaError{Columns: columns}
}

// Report collects the non-fatal conditions of a compute pass.
// Insufficient history and a missing benchmark degrade to undefined
// values rather than failing the run.
type Report struct {
	// BenchmarkMissing is true when relative performance was requested
	// but the benchmark symbol contributed no rows.
	BenchmarkMissing bool `json:"benchmark_missing"`
	// ShortHistory lists symbols (ascending) whose series is shorter
	// than the largest requested window, so some columns stay undefined
	// for their entire series.
	ShortHistory []string `json:"short_history,omitempty"`
}
