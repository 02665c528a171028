// Package model provides the data structures shared by the pipeline and its
// operators: the description of a stage and the per-run context threaded
// through every stage of a run.
package model
