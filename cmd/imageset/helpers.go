package main

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"imageset/internal/preflight"
)

var countPrinter = message.NewPrinter(language.English)

// formatCount renders an integer with digit grouping (1234567 → 1,234,567).
func formatCount(n int) string {
	return countPrinter.Sprintf("%d", n)
}

func renderPreflight(results []preflight.Result) string {
	rows := make([][]string, 0, len(results))
	for _, result := range results {
		status := "FAIL"
		if result.Passed {
			status = "ok"
		}
		rows = append(rows, []string{result.Name, status, result.Detail})
	}
	return renderTable([]string{"Check", "Status", "Detail"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft})
}
