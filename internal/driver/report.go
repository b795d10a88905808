package driver

import (
	"fmt"
	"io"
	"time"

	"github.com/roach88/evloop/internal/flags"
)

// WriteSummary renders the end-of-run report: state, elapsed time,
// record counters and the flag table.
func WriteSummary(w io.Writer, res *Result) error {
	stopped := ""
	if res.Stopped {
		stopped = ", stopped by analysis"
	}

	lines := []string{
		fmt.Sprintf(" === run %s : %s ===", res.RunID, res.State),
		fmt.Sprintf("   input     : %s", res.InputPath),
	}
	if res.OutputPath != "" {
		lines = append(lines, fmt.Sprintf("   output    : %s", res.OutputPath))
	}
	lines = append(lines,
		fmt.Sprintf("   elapsed   : %s", res.Elapsed.Round(time.Millisecond)),
		fmt.Sprintf("   processed : %d (accepted %d, skipped %d%s)", res.Processed, res.Accepted, res.Skipped, stopped),
	)
	if res.Err != nil {
		lines = append(lines, fmt.Sprintf("   error     : %v", res.Err))
	}

	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	if err := flags.WriteReport(w, res.Flags); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}
