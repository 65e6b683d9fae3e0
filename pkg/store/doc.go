// Package store persists binding values as flat key to text entries.
//
// A Store implements fieldbind.Persister on top of a KV backend. Every value
// lives under its persistence key ("scope.label.member") and its default
// snapshot under the parallel "<key>_default" slot. Values are encoded with
// fieldbind.Format and decoded with fieldbind.Parse; text that no longer
// parses for the requested type is logged and reported as absent.
//
// Backends:
//
//	MemoryKV   - in-process map, for tests and examples
//	FileKV     - one YAML or JSON document rewritten atomically on every write
//	PostgresKV - one row per key in the fieldbind_values table
//
// Data flow:
//
//	Binding -> Store -> KV
package store
