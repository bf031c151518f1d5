package ui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha (dark theme)
var mocha = struct {
	Rosewater, Flamingo, Pink, Mauve, Red, Maroon, Peach, Yellow, Green, Teal, Sky, Sapphire, Blue, Lavender  lipgloss.Color
	Text, Subtext1, Subtext0, Overlay2, Overlay1, Overlay0, Surface2, Surface1, Surface0, Base, Mantle, Crust lipgloss.Color
}{
	Rosewater: "#f5e0dc", Flamingo: "#f2cdcd", Pink: "#f5c2e7", Mauve: "#cba6f7",
	Red: "#f38ba8", Maroon: "#eba0ac", Peach: "#fab387", Yellow: "#f9e2af",
	Green: "#a6e3a1", Teal: "#94e2d5", Sky: "#89dceb", Sapphire: "#74c7ec",
	Blue: "#89b4fa", Lavender: "#b4befe",
	Text: "#cdd6f4", Subtext1: "#bac2de", Subtext0: "#a6adc8",
	Overlay2: "#9399b2", Overlay1: "#7f849c", Overlay0: "#6c7086",
	Surface2: "#585b70", Surface1: "#45475a", Surface0: "#313244",
	Base: "#1e1e2e", Mantle: "#181825", Crust: "#11111b",
}

// Catppuccin Latte (light theme)
var latte = struct {
	Rosewater, Flamingo, Pink, Mauve, Red, Maroon, Peach, Yellow, Green, Teal, Sky, Sapphire, Blue, Lavender  lipgloss.Color
	Text, Subtext1, Subtext0, Overlay2, Overlay1, Overlay0, Surface2, Surface1, Surface0, Base, Mantle, Crust lipgloss.Color
}{
	Rosewater: "#dc8a78", Flamingo: "#dd7878", Pink: "#ea76cb", Mauve: "#8839ef",
	Red: "#d20f39", Maroon: "#e64553", Peach: "#fe640b", Yellow: "#df8e1d",
	Green: "#40a02b", Teal: "#179299", Sky: "#04a5e5", Sapphire: "#209fb5",
	Blue: "#1e66f5", Lavender: "#7287fd",
	Text: "#4c4f69", Subtext1: "#5c5f77", Subtext0: "#6c6f85",
	Overlay2: "#7c7f93", Overlay1: "#8c8fa1", Overlay0: "#9ca0b0",
	Surface2: "#acb0be", Surface1: "#bcc0cc", Surface0: "#ccd0da",
	Base: "#eff1f5", Mantle: "#e6e9ef", Crust: "#dce0e8",
}

// ThemePalette holds the current color scheme.
type ThemePalette struct {
	Red, Green, Yellow, Blue, Magenta, Cyan, Peach, Mauve lipgloss.Color
	Text, Subtext, Overlay, Surface, Base                 lipgloss.Color
}

var currentTheme ThemePalette

func init() {
	if DetectTheme() == ThemeDark {
		SetDarkTheme()
	} else {
		SetLightTheme()
	}
}

// SetDarkTheme switches to Catppuccin Mocha.
func SetDarkTheme() {
	currentTheme = ThemePalette{
		Red: mocha.Red, Green: mocha.Green, Yellow: mocha.Yellow,
		Blue: mocha.Blue, Magenta: mocha.Pink, Cyan: mocha.Teal, Peach: mocha.Peach, Mauve: mocha.Mauve,
		Text: mocha.Text, Subtext: mocha.Subtext1, Overlay: mocha.Overlay1, Surface: mocha.Surface1,
		Base: mocha.Base,
	}
	refreshStyles()
}

// SetLightTheme switches to Catppuccin Latte.
func SetLightTheme() {
	currentTheme = ThemePalette{
		Red: latte.Red, Green: latte.Green, Yellow: latte.Yellow,
		Blue: latte.Blue, Magenta: latte.Pink, Cyan: latte.Teal, Peach: latte.Peach, Mauve: latte.Mauve,
		Text: latte.Text, Subtext: latte.Subtext1, Overlay: latte.Overlay1, Surface: latte.Surface1,
		Base: latte.Base,
	}
	refreshStyles()
}

// Semantic styles for the shell's own output: job status, diagnostics, and
// prompt segments. There is no file-listing surface in this module, so these
// replace the teacher's file-type palette with job/process-oriented ones.
var (
	MutedStyle      lipgloss.Style
	ErrorStyle      lipgloss.Style
	WarningStyle    lipgloss.Style
	SuccessStyle    lipgloss.Style
	PromptUserStyle lipgloss.Style
	PromptPathStyle lipgloss.Style
	CommandStyle    lipgloss.Style
	HeaderStyle     lipgloss.Style
	JobRunningStyle lipgloss.Style // running-job status
	JobDoneStyle    lipgloss.Style // completed-job status
	PidStyle        lipgloss.Style // pid text
)

func refreshStyles() {
	MutedStyle = lipgloss.NewStyle().Foreground(currentTheme.Overlay)
	ErrorStyle = lipgloss.NewStyle().Foreground(currentTheme.Red).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(currentTheme.Peach)
	SuccessStyle = lipgloss.NewStyle().Foreground(currentTheme.Green)
	PromptUserStyle = lipgloss.NewStyle().Foreground(currentTheme.Cyan)
	PromptPathStyle = lipgloss.NewStyle().Foreground(currentTheme.Blue).Bold(true)
	CommandStyle = lipgloss.NewStyle().Foreground(currentTheme.Green).Bold(true)
	HeaderStyle = lipgloss.NewStyle().Foreground(currentTheme.Magenta).Bold(true)
	JobRunningStyle = lipgloss.NewStyle().Foreground(currentTheme.Yellow)
	JobDoneStyle = lipgloss.NewStyle().Foreground(currentTheme.Subtext)
	PidStyle = lipgloss.NewStyle().Foreground(currentTheme.Subtext)
}
