package inflight

import "fmt"

// errPanic is delivered to waiters when the owning call panicked.
type errPanic struct{ v any }

func (e errPanic) Error() string { return fmt.Sprintf("inflight: batch func panicked: %v", e.v) }
