// Package kv provides the small key-value storage port the persistent pump
// store and the session provider are built on. Implementations map string
// keys to string values, mirroring the browser-local storage the dashboard
// originally persisted into.
package kv

// Storage is the port injected into components that need durable
// browser-style key-value state. Get reports a miss through its second
// return value, never through an error.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}
