package service

import (
	"database/sql"

	"github.com/stellae/stellae-api/internal/store"
)

// NoteRepositoryAdapter adapts a store.NoteStore to the service-layer
// NoteRepository, carrying the connection the transactional helpers need.
type NoteRepositoryAdapter struct {
	store.NoteStore
	db *sql.DB
}

// NewNoteRepositoryAdapter creates a new adapter over a note store and its
// database connection.
func NewNoteRepositoryAdapter(noteStore store.NoteStore, db *sql.DB) *NoteRepositoryAdapter {
	return &NoteRepositoryAdapter{
		NoteStore: noteStore,
		db:        db,
	}
}

// Ensure NoteRepositoryAdapter implements NoteRepository
var _ NoteRepository = (*NoteRepositoryAdapter)(nil)

// WithTx returns a new adapter bound to the given transaction.
func (a *NoteRepositoryAdapter) WithTx(tx *sql.Tx) NoteRepository {
	return &NoteRepositoryAdapter{
		NoteStore: a.NoteStore.WithTx(tx),
		db:        a.db,
	}
}

// DB returns the underlying database connection.
func (a *NoteRepositoryAdapter) DB() *sql.DB {
	return a.db
}

// NodeRepositoryAdapter adapts a store.NodeStore to the service-layer
// NodeRepository.
type NodeRepositoryAdapter struct {
	store.NodeStore
	db *sql.DB
}

// NewNodeRepositoryAdapter creates a new adapter over a node store and its
// database connection.
func NewNodeRepositoryAdapter(nodeStore store.NodeStore, db *sql.DB) *NodeRepositoryAdapter {
	return &NodeRepositoryAdapter{
		NodeStore: nodeStore,
		db:        db,
	}
}

// Ensure NodeRepositoryAdapter implements NodeRepository
var _ NodeRepository = (*NodeRepositoryAdapter)(nil)

// WithTx returns a new adapter bound to the given transaction.
func (a *NodeRepositoryAdapter) WithTx(tx *sql.Tx) NodeRepository {
	return &NodeRepositoryAdapter{
		NodeStore: a.NodeStore.WithTx(tx),
		db:        a.db,
	}
}

// DB returns the underlying database connection.
func (a *NodeRepositoryAdapter) DB() *sql.DB {
	return a.db
}

// FlashcardRepositoryAdapter adapts a store.FlashcardStore to the
// service-layer FlashcardRepository.
type FlashcardRepositoryAdapter struct {
	store.FlashcardStore
}

// NewFlashcardRepositoryAdapter creates a new adapter over a flashcard store.
func NewFlashcardRepositoryAdapter(cardStore store.FlashcardStore) *FlashcardRepositoryAdapter {
	return &FlashcardRepositoryAdapter{
		FlashcardStore: cardStore,
	}
}

// Ensure FlashcardRepositoryAdapter implements FlashcardRepository
var _ FlashcardRepository = (*FlashcardRepositoryAdapter)(nil)

// WithTx returns a new adapter bound to the given transaction.
func (a *FlashcardRepositoryAdapter) WithTx(tx *sql.Tx) FlashcardRepository {
	return &FlashcardRepositoryAdapter{
		FlashcardStore: a.FlashcardStore.WithTx(tx),
	}
}
