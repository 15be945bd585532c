// Package unittest provides fixtures, stubs and timing helpers shared by the package tests.
// It must only be imported from _test.go files.
package unittest

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
)

// Logger returns a zerolog.Logger configured for testing.
func Logger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(os.Stdout).Level(zerolog.DebugLevel).With().Str("test", t.Name()).Logger()
}
