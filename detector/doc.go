// Package detector contains the shared data model for the Reddit account
// risk scoring engine: account snapshots as fetched by an upstream
// collaborator, derived activity patterns, comment-text metrics, and the
// flat sub-score map that the aggregator returns for explainability.
//
// This package has no dependencies on the analyzers themselves; the
// heuristics, text analyzer, classifier, and engine packages all build on
// the types defined here.
package detector
