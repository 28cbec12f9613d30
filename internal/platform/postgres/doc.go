// Package postgres implements the storage interfaces from internal/store
// against PostgreSQL, including mapping driver errors onto the store
// package's sentinel errors.
package postgres
