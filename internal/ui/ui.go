package ui

import (
	"fmt"
	"strings"

	"github.com/ThomasCrouzet/mediastack/internal/catalog"
	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#CA8A04"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true)
	boldStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true).MarginTop(1)
	idStyle      = lipgloss.NewStyle().Width(16)
)

// FormatError returns a styled multi-line error message.
func FormatError(title, detail, suggestion string) string {
	out := errorStyle.Render("Error: "+title) + "\n"
	if detail != "" {
		out += "  " + detail + "\n"
	}
	if suggestion != "" {
		out += "  " + hintStyle.Render("Hint: "+suggestion) + "\n"
	}
	return out
}

// CheckPassed prints a green line for a passed prerequisite.
func CheckPassed(name, detail string) {
	msg := successStyle.Render("  OK ") + " " + name
	if detail != "" {
		msg += " " + dimStyle.Render(detail)
	}
	fmt.Println(msg)
}

// CheckFailed prints a red line for a failed prerequisite.
func CheckFailed(name, message, suggestion string) {
	fmt.Printf("  %s %s: %s\n", errorStyle.Render("ERR"), name, message)
	if suggestion != "" {
		fmt.Printf("      %s\n", hintStyle.Render("Hint: "+suggestion))
	}
}

// CheckSkipped prints a dim line for a check that could not run.
func CheckSkipped(name string) {
	fmt.Printf("  %s %s\n", dimStyle.Render("--"), dimStyle.Render(name+" (skipped)"))
}

// Success prints a green success message.
func Success(msg string) {
	fmt.Println(successStyle.Render(msg))
}

// Warn prints a yellow warning message.
func Warn(msg string) {
	fmt.Println(warnStyle.Render("Warning: " + msg))
}

// Bold renders text in bold.
func Bold(s string) string {
	return boldStyle.Render(s)
}

// Hint renders text in dim italic.
func Hint(s string) string {
	return hintStyle.Render(s)
}

// ServiceURL is one line of the access summary printed after start-up.
type ServiceURL struct {
	Name string
	URL  string
	Note string
}

// URLs renders an aligned list of service URLs.
func URLs(urls []ServiceURL) string {
	var b strings.Builder
	for _, u := range urls {
		line := "  " + idStyle.Render(u.Name) + " " + u.URL
		if u.Note != "" {
			line += " " + dimStyle.Render(u.Note)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// Catalog renders the services of cat grouped by category.
func Catalog(cat *catalog.Catalog) string {
	var b strings.Builder
	byCategory := cat.ByCategory()
	for _, c := range cat.Categories() {
		ids := byCategory[c.ID]
		if len(ids) == 0 {
			continue
		}
		b.WriteString(headerStyle.Render(c.Name) + "\n")
		for _, id := range ids {
			d, _ := cat.Get(id)
			line := "  " + idStyle.Render(id) + " " + d.Description
			if d.HasPrimaryPort() {
				line += " " + dimStyle.Render(fmt.Sprintf(":%d", d.PrimaryPort))
			}
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}
