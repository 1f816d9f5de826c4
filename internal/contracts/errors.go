package contracts

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns missing from an input table.
// It is fatal: a run that hits it produces no output.
type SchemaError struct {
	Table   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: table %s is missing required columns [%s]",
		e.Table, strings.Join(e.Missing, ", "))
}
