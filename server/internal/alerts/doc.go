// Package alerts implements the rule evaluation engine and webhook delivery
// for torstats alerting. Rules are evaluated against every summary the store
// loads; webhooks are delivered to Teams, Slack, or generic HTTP targets.
package alerts
