package redis

import "fmt"

// Key construction helpers

// StatusKey returns the key for the live status snapshot (hash)
// Pattern: solarium:{service}:status
func StatusKey(service string) string {
	return fmt.Sprintf("solarium:%s:status", service)
}

// ScheduleKey returns the key for the current day's schedule (string, JSON)
// Pattern: solarium:{service}:schedule
func ScheduleKey(service string) string {
	return fmt.Sprintf("solarium:%s:schedule", service)
}

// ClimateHistoryKey returns the key for the climate averages ring (list, newest first)
// Pattern: solarium:{service}:climate
func ClimateHistoryKey(service string) string {
	return fmt.Sprintf("solarium:%s:climate", service)
}
