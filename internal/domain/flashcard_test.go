package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellae/stellae-api/internal/domain"
)

func TestNewFlashcard(t *testing.T) {
	t.Parallel()

	nodeID := uuid.New()
	userID := uuid.New()

	card, err := domain.NewFlashcard(nodeID, userID, "amanhã", "tomorrow")

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, card.ID)
	assert.Equal(t, nodeID, card.NodeID)
	assert.Equal(t, userID, card.UserID)
	assert.Equal(t, "amanhã", card.Front)
	assert.Equal(t, "tomorrow", card.Back)
}

func TestNewFlashcardValidation(t *testing.T) {
	t.Parallel()

	nodeID := uuid.New()
	userID := uuid.New()

	tests := []struct {
		name    string
		nodeID  uuid.UUID
		userID  uuid.UUID
		front   string
		back    string
		wantErr error
	}{
		{
			name:    "nil node ID",
			nodeID:  uuid.Nil,
			userID:  userID,
			front:   "f",
			back:    "b",
			wantErr: domain.ErrFlashcardNodeIDEmpty,
		},
		{
			name:    "nil user ID",
			nodeID:  nodeID,
			userID:  uuid.Nil,
			front:   "f",
			back:    "b",
			wantErr: domain.ErrFlashcardUserIDEmpty,
		},
		{
			name:    "empty front",
			nodeID:  nodeID,
			userID:  userID,
			front:   "",
			back:    "b",
			wantErr: domain.ErrFlashcardFrontEmpty,
		},
		{
			name:    "empty back",
			nodeID:  nodeID,
			userID:  userID,
			front:   "f",
			back:    "",
			wantErr: domain.ErrFlashcardBackEmpty,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := domain.NewFlashcard(tt.nodeID, tt.userID, tt.front, tt.back)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
