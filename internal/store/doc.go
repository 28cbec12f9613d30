// Package store declares the persistence interfaces the services depend on,
// keeping the business logic independent of any particular database.
package store
