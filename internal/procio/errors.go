package procio

import (
	"fmt"
	"strings"
)

// SpawnError reports a child process that could not be started.
type SpawnError struct {
	Argv []string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", commandName(e.Argv), e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// IOError reports a failed read on the child's output stream.
type IOError struct {
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read: %v", e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ExitError reports a child that exited with a non-zero status or was
// terminated by a signal.
type ExitError struct {
	Argv     []string
	Code     int
	Signaled bool
	Stderr   string
	Err      error
}

func (e *ExitError) Error() string {
	var b strings.Builder
	b.WriteString(commandName(e.Argv))
	if e.Signaled {
		b.WriteString(": terminated by signal")
	} else {
		fmt.Fprintf(&b, ": exit status %d", e.Code)
	}
	if e.Stderr != "" {
		b.WriteString(": ")
		b.WriteString(e.Stderr)
	}
	return b.String()
}

func (e *ExitError) Unwrap() error { return e.Err }

func commandName(argv []string) string {
	switch len(argv) {
	case 0:
		return "(empty command)"
	case 1:
		return argv[0]
	}
	if argv[0] == "git" {
		return "git " + argv[1]
	}
	return argv[0]
}
