package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/client"
)

func printSummary(w io.Writer, result client.Result) {
	resp := result.Response
	rule := strings.Repeat("=", 50)
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "  INGESTION RESULT")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  Request ID   : %s\n", resp.RequestID)
	fmt.Fprintf(w, "  Accepted     : %d\n", resp.AcceptedCount)
	fmt.Fprintf(w, "  Rejected     : %d\n", resp.RejectedCount)
	fmt.Fprintf(w, "  Time (ms)    : %.2f\n", resp.ProcessingTimeMS)
	if len(resp.Errors) > 0 {
		fmt.Fprintf(w, "\n  Validation errors (%d):\n", len(resp.Errors))
		for _, e := range resp.Errors {
			fmt.Fprintf(w, "    - %s\n", e.String())
		}
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
}
