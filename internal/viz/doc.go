// Package viz renders optimization results for the terminal: lipgloss
// summary panels, progress bars, sparklines of the search history and
// asciigraph charts of a trajectory.
package viz
