// Package parallel runs independent index-addressed jobs on a small
// work-stealing goroutine pool. The terrain tessellator uses it to build
// tile vertex grids concurrently.
package parallel
