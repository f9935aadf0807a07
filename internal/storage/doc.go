// Package storage provides the reminder persistence layer.
//
// A reminder row mirrors an in-memory schedule engine job: it is created when
// the job is registered and deleted when the job retires (or is cleaned up as
// expired on startup). Rows are never updated in place.
package storage
