// Package logging configures the process-wide logger. All output goes to
// stderr: stdout belongs to the MCP stdio transport and must stay clean.
package logging

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Setup configures the default charmbracelet logger. verbose enables debug
// output; quiet suppresses everything below warn (useful when an MCP client
// echoes stderr back to the user).
func Setup(verbose, quiet bool) {
	log.SetOutput(os.Stderr)
	log.SetTimeFormat(time.Kitchen)
	log.SetReportTimestamp(true)

	switch {
	case quiet:
		log.SetLevel(log.WarnLevel)
	case verbose:
		log.SetLevel(log.DebugLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}
