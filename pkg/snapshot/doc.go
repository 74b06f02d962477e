// Package snapshot persists the widget state of a session for later
// inspection.
//
// A Snapshot captures every bound input's binding.State and the values the
// server has received. Stores address snapshots by key
// "<session id>/<fingerprint>", where the fingerprint is the xxhash of the
// snapshot content. Wrap a store with Dedup to skip writing a snapshot
// identical to the previous one of the same session.
//
// Three stores are provided: MemoryStore for tests and single-process use,
// DiskStore writing JSON files under a directory, and S3Store writing
// objects to a bucket with aws-sdk-go-v2.
package snapshot
