// Package theme holds the colors, styles and symbols shared by the user
// screens. Colors adapt to light and dark terminals; lipgloss drops them when
// NO_COLOR is set.
package theme

import "github.com/charmbracelet/lipgloss"

func adaptive(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorGreen  = adaptive("#2e7d32", "#66bb6a")
	colorRed    = adaptive("#c62828", "#ef5350")
	colorOrange = adaptive("#e65100", "#ffa726")
	colorBlue   = adaptive("#0277bd", "#4fc3f7")
	colorPurple = adaptive("#6a1b9a", "#ce93d8")
	colorGrey   = adaptive("#757575", "#9e9e9e")
	colorFaint  = adaptive("#9e9e9e", "#757575")

	// ColorBorderActive frames overlays such as the help page.
	ColorBorderActive = adaptive("#1565c0", "#42a5f5")
)

// Text styles.
var (
	Bold = lipgloss.NewStyle().Bold(true)
	Dim  = lipgloss.NewStyle().Faint(true)

	TextSuccess = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	TextError   = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	TextWarning = lipgloss.NewStyle().Foreground(colorOrange).Bold(true)
	TextInfo    = lipgloss.NewStyle().Foreground(colorBlue)
	TextAccent  = lipgloss.NewStyle().Foreground(colorPurple)
	TextMuted   = lipgloss.NewStyle().Foreground(colorGrey)

	ScreenTitle = TextAccent.Bold(true).PaddingBottom(1)
)

// User rows and form inputs.
var (
	RowNormal   = lipgloss.NewStyle().Padding(0, 1)
	RowSelected = RowNormal.Background(adaptive("#e3f2fd", "#263238")).Bold(true)
	Email       = TextInfo

	InputPrompt      = TextInfo.Bold(true)
	InputPlaceholder = lipgloss.NewStyle().Foreground(colorFaint)
)

// Tab and status bars.
var (
	TabNormal = lipgloss.NewStyle().
			Foreground(adaptive("#616161", "#9e9e9e")).
			Background(adaptive("#e0e0e0", "#333333")).
			Padding(0, 2)
	TabActive = lipgloss.NewStyle().
			Foreground(adaptive("#ffffff", "#1e1e1e")).
			Background(ColorBorderActive).
			Bold(true).
			Padding(0, 2)

	StatusBar = lipgloss.NewStyle().
			Foreground(colorFaint).
			Background(adaptive("#f5f5f5", "#2d2d2d")).
			Padding(0, 1)
	StatusKey = TextInfo.Bold(true)
)

// Symbols are replaced by ASCII fallbacks in InitSymbols.
var (
	SymbolError    = "✗"
	SymbolArrowR   = "→"
	SymbolBullet   = "•"
	SymbolEllipsis = "…"
	SymbolCursor   = "▸"
)

const (
	// MaxContentWidth caps the width of wrapped prose.
	MaxContentWidth = 100
	// MinTabWidth is the narrowest terminal that still shows every tab label.
	MinTabWidth = 60
)

// Clamp returns v limited to [lo, hi].
func Clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
