package vm

import "fmt"

// RuntimeError halts execution immediately; the Chunk and globals are left
// intact for inspection by a REPL host.
type RuntimeError struct {
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("💥 RuntimeError: %s", e.Message)
}
