package commands

import (
	"fmt"
	"io"
	"strings"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// every command prints through these helpers
// ═══════════════════════════════════════════════════════════

const lineWidth = 59

// printHeader prints a titled block with key/value metadata
func printHeader(w io.Writer, title string, meta [][2]string) {
	fmt.Fprintln(w)
	printDoubleSeparator(w)
	fmt.Fprintf(w, "  %s\n", title)
	printSeparator(w)
	for _, kv := range meta {
		fmt.Fprintf(w, "  %-14s: %s\n", kv[0], kv[1])
	}
	printSeparator(w)
}

// printSeparator prints a visual separator
func printSeparator(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("─", lineWidth))
}

// printDoubleSeparator prints a double-line separator
func printDoubleSeparator(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("═", lineWidth))
}

// printSection prints a section title
func printSection(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "[%s]\n", title)
}

// printSuccess prints a success message
func printSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

// printWarning prints a warning message
func printWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "⚠️  %s\n", message)
}

// printTable prints rows under columns, padding each column to its widest cell
func printTable(w io.Writer, columns []string, rows [][]string) {
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = len([]rune(c))
	}
	for _, row := range rows {
		for i, v := range row {
			if n := len([]rune(v)); n > widths[i] {
				widths[i] = n
			}
		}
	}

	printRow(w, columns, widths)
	total := 0
	for i, width := range widths {
		total += width
		if i < len(widths)-1 {
			total += 2 // spacing
		}
	}
	fmt.Fprintln(w, strings.Repeat("─", total))
	for _, row := range rows {
		printRow(w, row, widths)
	}
}

func printRow(w io.Writer, values []string, widths []int) {
	for i, v := range values {
		if i == len(values)-1 {
			fmt.Fprint(w, v)
			break
		}
		fmt.Fprintf(w, "%-*s  ", widths[i], v)
	}
	fmt.Fprintln(w)
}

// printKeyValue prints one aligned key/value pair
func printKeyValue(w io.Writer, key, value string) {
	fmt.Fprintf(w, "   %-22s : %s\n", key, value)
}

// pct formats a 0-1 ratio as a percentage
func pct(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}
