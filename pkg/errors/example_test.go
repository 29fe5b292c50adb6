// Package errors provides examples of structured error handling in Prism.
package errors_test

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/prism/pkg/errors"
)

// Example demonstrates basic error creation and wrapping.
func Example() {
	// Create a new error with type
	err := errors.New(errors.ErrorTypeMissingColumn, "no column named Country")

	// Add context details
	err = err.WithDetail("column", "Country").
		WithDetail("available", []string{"ID", "Language"})

	// Print the error
	fmt.Println(err.Error())

	// Output:
	// missing_column: no column named Country
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	// Simulate an underlying error
	originalErr := io.ErrUnexpectedEOF

	// Wrap the error with context
	err := errors.Wrap(originalErr, errors.ErrorTypeIO, "failed to read CSV file").
		WithDetail("file", "data.csv")

	// Check the error type
	if errors.IsType(err, errors.ErrorTypeIO) {
		fmt.Println("This is an I/O error")
	}

	// The original error stays reachable through the chain
	fmt.Println("Cause:", err.Unwrap())

	// Output:
	// This is an I/O error
	// Cause: unexpected EOF
}

// ExampleError_WithRow demonstrates row tagging for error traceability.
func ExampleError_WithRow() {
	// A parse failure remembers which source row produced it
	err := errors.Newf(errors.ErrorTypeParse, "cannot parse %q as a number", "abc").
		WithRow(4)

	fmt.Println(err)

	// Later wrapping does not disturb the tag
	wrapped := errors.Wrap(err, errors.ErrorTypeInternal, "aggregation failed")
	if row, ok := errors.RowIndex(wrapped); ok {
		fmt.Println("row:", row)
	}

	// Output:
	// parse: cannot parse "abc" as a number (row 4)
	// row: 4
}

// ExampleIsType demonstrates checking error types.
func ExampleIsType() {
	// Create errors of different types
	missErr := errors.New(errors.ErrorTypeMissingColumn, "no column named Score")
	dupErr := errors.New(errors.ErrorTypeDuplicateColumn, "column Score already exists")

	// Wrap an error
	wrappedErr := errors.Wrap(missErr, errors.ErrorTypeConfig, "step 2 is invalid")

	// Check error types
	fmt.Printf("Is missing column: %v\n", errors.IsType(missErr, errors.ErrorTypeMissingColumn))
	fmt.Printf("Is duplicate column: %v\n", errors.IsType(dupErr, errors.ErrorTypeDuplicateColumn))

	// IsType matches the outermost typed error
	fmt.Printf("Wrapped error is config type: %v\n", errors.IsType(wrappedErr, errors.ErrorTypeConfig))
	fmt.Printf("Wrapped error reads as missing column: %v\n", errors.IsType(wrappedErr, errors.ErrorTypeMissingColumn))

	// Output:
	// Is missing column: true
	// Is duplicate column: true
	// Wrapped error is config type: true
	// Wrapped error reads as missing column: false
}

// Example_errorHandling demonstrates proper error handling patterns.
func Example_errorHandling() {
	// Simulate opening pipeline inputs with error handling
	paths := []string{"people.csv", "ghost.csv", "scores.tsv"}

	for _, path := range paths {
		err := openInput(path)
		if err != nil {
			switch {
			case errors.IsNotFound(err):
				fmt.Printf("Skipping %s: %v\n", path, err)
				continue
			default:
				fmt.Printf("Fatal error for %s: %v\n", path, err)
				return
			}
		}
	}

	// Output:
	// Skipping ghost.csv: not_found: no such file
}

// openInput simulates opening a pipeline input that can fail
func openInput(path string) error {
	if path == "ghost.csv" {
		return errors.New(errors.ErrorTypeNotFound, "no such file").
			WithDetail("path", path)
	}
	return nil
}
