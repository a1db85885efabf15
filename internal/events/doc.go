// Package events streams audit events to Kafka.
package events
