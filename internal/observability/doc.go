// Package observability provides the operational logger and the Prometheus
// metrics of the structured logger.
//
// Operational log lines describe what the library did (records buffered,
// batches flushed, updates suppressed). They never carry attribute values.
package observability
