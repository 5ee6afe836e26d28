package main

import (
	"fmt"
	"io"
)

// ANSI color constants for one-shot command output (no lipgloss, runs outside the TUI).
const (
	ansiReset   = "\033[0m"
	ansiBold    = "\033[1m"
	ansiItalic  = "\033[3m"
	ansiEmerald = "\033[38;2;74;222;128m"  // #4ade80
	ansiGreen   = "\033[38;2;52;212;116m"  // #34d474
	ansiGold    = "\033[38;2;212;168;68m"  // #d4a844
	ansiRed     = "\033[38;2;239;68;68m"   // #ef4444
	ansiSlate   = "\033[38;2;136;144;160m" // #8890a0
)

// printLogo prints the spaced PLANGATE wordmark in alternating emerald.
func printLogo(w io.Writer) {
	letters := "PLANGATE"
	colors := [2]string{ansiEmerald, ansiGreen}
	fmt.Fprint(w, "\n  ")
	for i, ch := range letters {
		fmt.Fprintf(w, "%s%s%c%s", colors[i%2], ansiBold, ch, ansiReset)
		if i < len(letters)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)
}

func okLine(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s%s✓%s %s\n", ansiEmerald, ansiBold, ansiReset, fmt.Sprintf(format, args...))
}

func warnLine(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s%s!%s %s\n", ansiGold, ansiBold, ansiReset, fmt.Sprintf(format, args...))
}

func failLine(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s%s✗%s %s\n", ansiRed, ansiBold, ansiReset, fmt.Sprintf(format, args...))
}

// dimLine prints secondary detail in slate italics.
func dimLine(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s%s%s%s\n", ansiSlate, ansiItalic, fmt.Sprintf(format, args...), ansiReset)
}
