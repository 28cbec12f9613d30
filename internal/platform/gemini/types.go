package gemini

// promptData represents the data passed to the prompt template
type promptData struct {
	NoteText string
}

// responseSchema represents the expected structure of the classification
// returned by the Gemini API.
type responseSchema struct {
	// Category is the classification of the note material
	Category string `json:"category"`

	// Cards is the array of flashcards extracted from the note text
	Cards []cardSchema `json:"cards"`
}

// cardSchema represents a single flashcard in the API response
type cardSchema struct {
	// Front is the question or prompt side of the flashcard
	Front string `json:"front"`

	// Back is the answer side of the flashcard
	Back string `json:"back"`
}
