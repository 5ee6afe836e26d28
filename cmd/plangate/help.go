package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var commands = []struct{ cmd, desc string }{
	{"plangate", "Open the interactive TUI"},
	{"plangate register <email>", "Create an account"},
	{"plangate login <email>", "Log in and store the session"},
	{"plangate logout", "Clear your session"},
	{"plangate status", "Show session state"},
	{"plangate plans", "List subscription plans"},
	{"plangate subscribe", "Buy a plan (--plan --first --last --email)"},
	{"plangate api-test [key]", "Call the API-key protected endpoint"},
	{"plangate return <order>", "Open the payment return page"},
	{"plangate --version", "Show version"},
	{"plangate help", "You are here"},
}

func printHelp(w io.Writer) {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#4ade80")).
		Bold(true).
		Render("P L A N G A T E")

	tagline := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("Sessions, plans and checkout from the terminal.")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	fmt.Fprintf(w, "\n  %s\n\n  %s\n\n  Commands:\n", title, tagline)
	for _, c := range commands {
		fmt.Fprintf(w, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-26s", c.cmd)), descStyle.Render(c.desc))
	}

	envStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#D4A017"))
	fmt.Fprintf(w, "\n  Environment:\n")
	for _, v := range []string{
		"PLANGATE_API_URL", "PLANGATE_STORE", "PLANGATE_TOKEN",
		"PLANGATE_PASSWORD", "PLANGATE_API_KEY", "PLANGATE_GUEST_CHECKOUT",
	} {
		fmt.Fprintf(w, "    %s\n", envStyle.Render(v))
	}
	fmt.Fprintln(w)
}
