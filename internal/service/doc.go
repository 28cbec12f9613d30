// Package service contains the application's use cases: registering and
// authenticating users, capturing notes and queueing their classification,
// materializing classified nodes and flashcards, and dispatching review
// results for persistence. Services own transactional boundaries and
// translate store errors into the sentinels the API layer maps to status
// codes; they depend on the store interfaces, never on postgres directly.
package service
