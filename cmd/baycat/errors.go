package main

// dirtyRunError wraps a sync that completed but left the engine's dirty
// flag set: some transfer-level operation failed along the way. It is
// distinguished from an ordinary error so mainify can map it to exit code 1
// rather than the catch-all exit code 2 (spec §6.1, §7).
type dirtyRunError struct {
	counters string
}

func (e *dirtyRunError) Error() string {
	return "sync completed with errors: " + e.counters
}

// exitCodeForError maps a cobra entry point's returned error to a process
// exit code: 1 for a dirty run (transfer-level failures), 2 for anything
// else (input errors, manifest structural errors, unhandled exceptions).
func exitCodeForError(err error) int {
	if _, ok := err.(*dirtyRunError); ok {
		return 1
	}
	return 2
}
