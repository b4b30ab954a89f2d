package styles

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	LabelAmber = lipgloss.Color("#E5A00D")
	SlateDark  = lipgloss.Color("#1F2937")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(LabelAmber)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)
)

// Badge styles
var (
	NewBadgeStyle = lipgloss.NewStyle().
			Foreground(SlateDark).
			Background(LabelAmber).
			Padding(0, 1)

	NoteBadgeStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Background(SlateLight).
			Padding(0, 1)
)

// Table styles
var (
	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(LabelAmber).
				Bold(true).
				Padding(0, 1)

	TableCellStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Padding(0, 1)

	TableBorderStyle = lipgloss.NewStyle().
				Foreground(DimGray)
)

// Spinner style
var (
	SpinnerStyle = lipgloss.NewStyle().
		Foreground(LabelAmber)
)

// Match highlight style for search results
var (
	MatchHighlightStyle = lipgloss.NewStyle().
		Foreground(LabelAmber).
		Bold(true)
)

// Progress bar gradient endpoints
const (
	ProgressStart = "#B45309"
	ProgressEnd   = "#E5A00D"
)

// Truncate truncates a string to the given display width with ellipsis
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

// Highlight renders the runes of s at the given indexes with
// MatchHighlightStyle.
func Highlight(s string, indexes []int) string {
	if len(indexes) == 0 {
		return s
	}
	marked := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		marked[i] = true
	}

	var out []rune
	var b []byte
	for i, c := range s {
		if marked[i] {
			b = append(b, string(out)...)
			out = out[:0]
			b = append(b, MatchHighlightStyle.Render(string(c))...)
			continue
		}
		out = append(out, c)
	}
	return string(append(b, string(out)...))
}
