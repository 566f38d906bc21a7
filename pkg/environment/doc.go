// Package environment carries the application environment through context:
// HTTP middleware to attach it, predicates to branch on it, and a logger
// extractor to annotate log records with it. The production predicate is
// what keeps dev-credit top-ups out of real deployments.
package environment
