// Package cache provides a typed time-to-live cache over durable
// key-value storage. Entries expire passively: there is no background
// sweep, an expired or corrupt entry is evicted on the read that
// discovers it.
package cache
