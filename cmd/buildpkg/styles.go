// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette for build output. Tuned for dark terminals.
const (
	// ColorPrimary is purple, used for the package banner.
	ColorPrimary = lipgloss.Color("#7C3AED")

	// ColorMuted is gray, used for stage progress lines.
	ColorMuted = lipgloss.Color("#6B7280")

	// ColorSuccess is green.
	ColorSuccess = lipgloss.Color("#10B981")

	// ColorError is red.
	ColorError = lipgloss.Color("#EF4444")

	// ColorWarning is amber, used for the dev-mode notice.
	ColorWarning = lipgloss.Color("#F59E0B")

	// ColorHighlight is blue, used for paths.
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	// TitleStyle is for the program name in help output.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for help section headers.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// BannerStyle is for the "- name version (license) maintained by ..." line.
	BannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// StageStyle is for "Getting sources...", "Preparing..." and friends.
	StageStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for the final artifact line.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for the "Error:" prefix of a failed build.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for the dev-mode notice and config warnings.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// PathStyle is for file paths.
	PathStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)
)
