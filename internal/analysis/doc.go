// Package analysis provides frequency-domain tools for trajectory series.
package analysis
