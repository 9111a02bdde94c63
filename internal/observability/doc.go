// Package observability provides the zap logger builder and the in-process
// counters reported by the status endpoint.
package observability
