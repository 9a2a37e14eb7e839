// Package history turns a commit history into contribution statistics.
//
// A [Source] yields the commit log and per-commit change counts, [Collect]
// resolves them into [CommitRecord] values, and an [Aggregator] derives
// repository-wide and per-author totals plus daily, weekly and monthly
// averages over the time span the history covers.
package history
