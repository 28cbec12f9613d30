// Package generation provides interfaces and implementations for interacting
// with external AI/LLM services for note classification. It abstracts the
// details of LLM API integration (Gemini), allowing the application to turn
// raw notes into categorized flashcards without coupling to specific external
// services.
package generation
