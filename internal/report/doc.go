// Package report collects experiment results and turns them into CSV files,
// a trajectory chart, a terminal preview and a summary table.
//
// Nothing in this package feeds back into a running experiment: a failed
// export is logged and the result stays in the [Aggregator].
package report
