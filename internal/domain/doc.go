// Package domain defines the core types and the consumer-side interfaces the
// bot depends on. It holds contracts only; adapters implement them.
package domain
