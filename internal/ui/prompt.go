package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// RenderPrompt renders a Powerline-style prompt: user segment, cwd segment,
// and (if non-zero) a job-count segment showing how many background jobs
// are still running.
func RenderPrompt(user, cwd string, backgroundJobs int) string {
	userBg := currentTheme.Mauve
	userFg := currentTheme.Base
	pathBg := currentTheme.Surface
	pathFg := currentTheme.Text
	jobBg := currentTheme.Yellow
	jobFg := currentTheme.Base

	userStyle := lipgloss.NewStyle().Background(userBg).Foreground(userFg).Padding(0, 1).Bold(true)
	pathStyle := lipgloss.NewStyle().Background(pathBg).Foreground(pathFg).Padding(0, 1)
	jobStyle := lipgloss.NewStyle().Background(jobBg).Foreground(jobFg).Padding(0, 1)

	seg1 := userStyle.Render(user)
	sep1 := lipgloss.NewStyle().Foreground(userBg).Background(pathBg).Render("")
	seg2 := pathStyle.Render(cwd)

	if backgroundJobs > 0 {
		sep2 := lipgloss.NewStyle().Foreground(pathBg).Background(jobBg).Render("")
		seg3 := jobStyle.Render(fmt.Sprintf("%d job(s)", backgroundJobs))
		sep3 := lipgloss.NewStyle().Foreground(jobBg).Render("")
		return fmt.Sprintf("%s%s%s%s%s%s ", seg1, sep1, seg2, sep2, seg3, sep3)
	}

	sep2 := lipgloss.NewStyle().Foreground(pathBg).Render("")
	return fmt.Sprintf("%s%s%s%s ", seg1, sep1, seg2, sep2)
}
