// Package domain holds the core entities of the system: users, captured
// notes, knowledge nodes, flashcards, and the review bookkeeping that ties
// them together. Nothing here knows about HTTP, SQL, or the LLM.
package domain
