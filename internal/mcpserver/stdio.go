package mcpserver

import (
	"io"
	"os"
)

// Overridable for tests.
var (
	stdinReader  = func() io.Reader { return os.Stdin }
	stdoutWriter = func() io.Writer { return os.Stdout }
)
