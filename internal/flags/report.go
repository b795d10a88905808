package flags

import (
	"fmt"
	"io"
)

// WriteReport renders the end-of-run flag block:
//
//	 *** results of record selection *** < number of flags :    2 >
//	         1 : under511
//	         0 : over511
func WriteReport(w io.Writer, entries []Entry) error {
	if _, err := fmt.Fprintf(w, " *** results of record selection *** < number of flags : %4d >\n", len(entries)); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%10d : %s\n", e.Count, e.Name); err != nil {
			return err
		}
	}
	return nil
}
