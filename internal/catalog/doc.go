// Package catalog persists photographs and their filesystem paths in a
// SQLite database.
//
// A Photograph is a logical, content-addressed photo; a PhotoPath is one
// place that photo has been seen, identified by the (path, device) pair.
// Several paths may link to one photograph when their content hashes
// match. Write operations are transaction-scoped: callers open a
// transaction with BeginBatch, pass it to the mutating methods and close
// it with EndBatch, which commits or rolls back depending on the error.
package catalog
