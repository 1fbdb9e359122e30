// Package tasks runs one operation over an ordered list of items.
//
// RunSequence processes every item even when some fail, then reports all
// failures together through ExecutorFailedError so that one broken
// repository never blocks its siblings.
package tasks
