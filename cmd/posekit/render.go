package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/mmcdole/posekit/internal/domain"
	"github.com/mmcdole/posekit/internal/outline"
)

// Color palette
var (
	coral     = lipgloss.Color("#F97366")
	dimGray   = lipgloss.Color("#6B7280")
	lightGray = lipgloss.Color("#9CA3AF")
	white     = lipgloss.Color("#F9FAFB")
	green     = lipgloss.Color("#10B981")
	amber     = lipgloss.Color("#F59E0B")
	red       = lipgloss.Color("#EF4444")
)

// Text styles
var (
	titleStyle   = lipgloss.NewStyle().Foreground(white).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(lightGray).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(dimGray)
	accentStyle  = lipgloss.NewStyle().Foreground(coral)
	errorStyle   = lipgloss.NewStyle().Foreground(red)
	successStyle = lipgloss.NewStyle().Foreground(green)

	badgeStyle = lipgloss.NewStyle().
			Foreground(white).
			Background(coral).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dimGray).
			Padding(0, 1)
)

const (
	favoriteChar = "★"
	defaultWidth = 80
	idWidth      = 36 // canonical UUID
)

// terminalWidth returns the stdout width, or defaultWidth when stdout is not a terminal
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

// renderTable lays templates out one per row, names truncated to fit width
func renderTable(templates []domain.PoseTemplate, favorites map[string]bool, width int) string {
	const (
		favCol  = 2
		catCol  = 10
		diffCol = 7
		gaps    = 4
	)
	nameCol := max(width-favCol-idWidth-catCol-diffCol-gaps, 16)

	var b strings.Builder
	b.WriteString(headerStyle.Render(
		pad("", favCol) + pad("ID", idWidth) + " " + pad("NAME", nameCol) + " " +
			pad("CATEGORY", catCol) + " " + pad("LEVEL", diffCol)))

	for _, t := range templates {
		b.WriteByte('\n')
		fav := "  "
		if favorites[t.ID] {
			fav = accentStyle.Render(favoriteChar) + " "
		}
		b.WriteString(fav)
		b.WriteString(dimStyle.Render(pad(t.ID, idWidth)))
		b.WriteByte(' ')
		b.WriteString(pad(truncate(t.Name, nameCol), nameCol))
		b.WriteByte(' ')
		b.WriteString(pad(string(t.Category), catCol))
		b.WriteByte(' ')
		b.WriteString(difficultyStyle(t.Difficulty).Render(pad(string(t.Difficulty), diffCol)))
	}
	return b.String()
}

// renderDetail shows every field of one template
func renderDetail(t domain.PoseTemplate, o domain.OutlineData, hasOutline, favorite bool) string {
	var b strings.Builder

	title := titleStyle.Render(t.Name)
	if favorite {
		title += " " + accentStyle.Render(favoriteChar)
	}
	if t.IsUserCreated {
		title += " " + badgeStyle.Render("mine")
	}
	b.WriteString(title + "\n\n")

	row := func(label, value string) {
		b.WriteString(dimStyle.Render(pad(label, 11)) + value + "\n")
	}
	row("ID", t.ID)
	row("Category", string(t.Category))
	row("Difficulty", difficultyStyle(t.Difficulty).Render(string(t.Difficulty)))
	row("Tags", strings.Join(t.Tags, ", "))
	row("Created", t.CreatedAt.Local().Format("2006-01-02 15:04"))
	if t.ThumbnailURL != "" {
		row("Thumbnail", t.ThumbnailURL)
	}

	if hasOutline {
		visible := 0
		for _, p := range o.KeyPoints {
			if p.Confidence > outline.MinConfidence {
				visible++
			}
		}
		row("Outline", fmt.Sprintf("%d/%d points visible, %d bones, confidence %.2f",
			visible, outline.KeyPointCount, len(outline.VisibleBones(o.KeyPoints)), o.Confidence))
		bb := o.BoundingBox
		row("Bounds", fmt.Sprintf("x=%.2f y=%.2f w=%.2f h=%.2f", bb.X, bb.Y, bb.Width, bb.Height))
	} else {
		row("Outline", dimStyle.Render("none"))
	}

	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// renderScore prints a match score as a percentage with a bar
func renderScore(t domain.PoseTemplate, score float32) string {
	const barWidth = 20
	filled := int(score * barWidth)

	style := errorStyle
	switch {
	case score >= 0.8:
		style = successStyle
	case score >= 0.5:
		style = lipgloss.NewStyle().Foreground(amber)
	}

	bar := style.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", barWidth-filled))
	return fmt.Sprintf("%s %s %s", titleStyle.Render(t.Name), bar, style.Render(fmt.Sprintf("%3.0f%%", score*100)))
}

func difficultyStyle(d domain.Difficulty) lipgloss.Style {
	switch d {
	case domain.DifficultyHard:
		return lipgloss.NewStyle().Foreground(red)
	case domain.DifficultyMedium:
		return lipgloss.NewStyle().Foreground(amber)
	default:
		return lipgloss.NewStyle().Foreground(green)
	}
}

// truncate truncates a string to the given display width with ellipsis
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if width <= 3 {
		return string(runes[:min(width, len(runes))])
	}
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

// pad pads a string to the given display width
func pad(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
