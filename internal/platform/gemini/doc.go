// Package gemini provides an implementation of the generation.Classifier
// interface that uses Google's Gemini API for classifying notes into
// categories and extracting flashcards.
//
// This package is an infrastructure adapter in the hexagonal architecture,
// connecting the application's domain logic to Google's external Gemini AI
// service. It translates between the application's domain models and the
// Gemini API without exposing the details of the external service to the
// core application.
//
// Key components:
//
// 1. GeminiClassifier:
//   - Implements the generation.Classifier interface
//   - Handles communication with the Gemini API
//   - Processes structured responses into domain models
//
// 2. Prompt Management:
//   - Ships an embedded default prompt template
//   - Optionally loads an override template from a file
//   - Substitutes the note text into the template
//
// 3. Response Processing:
//   - Parses structured JSON responses from the API
//   - Validates responses against the expected schema
//   - Rejects unrecognized categories and incomplete cards
//
// 4. Error Handling:
//   - Implements retry logic with exponential backoff for transient errors
//   - Categorizes and translates API errors to application-specific errors
//   - Handles content filtering and safety measures
package gemini
