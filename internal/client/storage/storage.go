// Package storage provides the client's durable string key/value area, the
// local stand-in for browser storage. Values survive restarts; keys are
// scoped to the data directory.
package storage

// Storage is a synchronous get/set-string key/value interface.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}
