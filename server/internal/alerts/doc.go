// Package alerts implements the rule evaluation engine and webhook delivery
// for LocalRank alerting. Rules such as "total < 40" or "rating == POOR" are
// evaluated against every ingested ScoreSnapshot; fired and resolved alerts
// are delivered to Slack, Teams, or generic HTTP webhooks.
package alerts
