// Package session houses concrete implementations of core.RunStore.
// The interface itself (and the Run record) live in the core package so
// the engine never depends on a concrete storage backend.
//
// InMemoryStore is the default and suits tests and demo servers. Durable
// backends live in sub-packages (see session/sqlite); only the wiring layer
// decides which implementation to instantiate.
package session
