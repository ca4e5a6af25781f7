package encio

import (
	"io"
	"os"
)

// Warnings is where warnings are sent to.
var Warnings io.Writer = os.Stderr
