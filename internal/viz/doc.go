// Package viz holds the terminal styling shared by the summary table, the
// progress view and the CLI.
//
// Colors come from the active [Theme]; [SetTheme] switches between the
// built-in schemes by name.
package viz
