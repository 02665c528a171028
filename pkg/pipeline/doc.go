// Package pipeline provides an ordered pipeline of image operators.
//
// A Pipeline holds uniquely named stages. Each stage wraps an operator.Operator
// created from a registry.Registry, and the order of the stages is the order in
// which they run. Stages are only changed through Add, Remove, Move and Rename;
// every change is all-or-nothing and is followed by an EventOperatorsChanged
// notification.
//
// Run threads an image through every stage, along with a fresh model.Context
// collecting per-stage diagnostics. The first failing operator stops the run
// and is reported as an *OperatorFailedError naming the stage. No partial image
// is returned, so callers keep displaying their last good result.
//
// The package performs no I/O and starts no goroutines. A run cannot be
// cancelled once started: callers wanting responsiveness run the pipeline from a
// worker they own and discard superseded results. See package codec for
// persistence and package session for an interactive controller.
package pipeline
