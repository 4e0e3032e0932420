package common

import (
	"fmt"
	"strings"

	"wallet-reconcile-go/internal/models"
)

const (
	// Default separator widths
	DefaultWidth = 80
	WideWidth    = 100
)

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintSeparatorNewline prints a separator with a newline before it
func PrintSeparatorNewline(char string, width int) {
	fmt.Println("\n" + strings.Repeat(char, width))
}

// PrintHeader prints a formatted header with title and separators
func PrintHeader(title string, width int) {
	PrintSeparatorNewline("=", width)
	fmt.Println(title)
	PrintSeparator("=", width)
}

// PrintFooter prints a formatted footer with message and separators
func PrintFooter(message string, width int) {
	PrintSeparatorNewline("=", width)
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// PrintBoxSeparator prints a box-drawing separator line (for sub-sections)
func PrintBoxSeparator(width int) {
	fmt.Println("├" + strings.Repeat("─", width))
}

// BoxPrefix returns the appropriate box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// BoxDetailPrefix returns the prefix for detail lines under list items
func BoxDetailPrefix(isLast bool) string {
	if isLast {
		return "   "
	}
	return "│  "
}

// PrintFailures prints the pool comparison failures as a table
func PrintFailures(discrepancies []models.Discrepancy) {
	if len(discrepancies) == 0 {
		return
	}

	PrintHeader("Audit Failures", WideWidth)
	fmt.Printf("%-12s %28s %28s %28s\n", "Asset", "Audit Balance", "Pool", "Difference")
	PrintSeparator("-", WideWidth)
	for _, d := range discrepancies {
		pool := "<missing>"
		if d.Pool != nil {
			pool = d.Pool.String()
		}
		fmt.Printf("%-12s %28s %28s %28s\n", d.Asset, d.Audit.String(), pool, d.Difference().String())
	}
	PrintSeparator("=", WideWidth)
}

// PrintRowFailures lists rows that could not be reconciled
func PrintRowFailures(failures []models.RowFailure) {
	if len(failures) == 0 {
		return
	}

	PrintHeader(fmt.Sprintf("Row Failures (%d)", len(failures)), WideWidth)
	for i, f := range failures {
		isLast := i == len(failures)-1
		fmt.Printf("%s%s line %d: %s\n", BoxPrefix(isLast), f.Feed, f.LineNum, f.Message)
		if f.Name != "" {
			fmt.Printf("%s  column %q = %q\n", BoxDetailPrefix(isLast), f.Name, f.Value)
		}
	}
}
