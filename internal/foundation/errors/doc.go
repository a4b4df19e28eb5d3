// Package errors provides the classified error primitives used across docmigrate.
//
// Every error that crosses a package boundary and may reach the CLI is a
// ClassifiedError carrying a category, a severity and structured context. The
// CLI adapter maps categories to process exit codes.
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryNotFound, "source root does not exist").
//		Fatal().
//		WithContext("path", root).
//		WithCause(statErr).
//		Build()
package errors
