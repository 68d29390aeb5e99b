package sync

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

// reporter prints one human-readable line per decision when verbose output
// is enabled. Every line is also logged at debug level.
type reporter struct {
	out     io.Writer
	verbose bool
	logger  *zap.Logger
}

func (r reporter) printf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	r.logger.Debug(line)
	if r.verbose && r.out != nil {
		fmt.Fprintln(r.out, line)
	}
}
