// Package driving provides interfaces for inbound adapters (primary ports).
//
// Driving ports are what external actors (the CLI) ask of the core:
// run an ingest batch, build indexes, retrieve context, manage curated
// examples.
package driving
