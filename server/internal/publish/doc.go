// Package publish streams ingested ScoreSnapshots to Kafka so downstream
// consumers (reporting, CRM sync) can follow score changes without polling
// the REST API.
package publish
