// Package api exposes the HTTP surface of the server: handlers for
// authentication, note capture, knowledge nodes, flashcards, and review
// sessions, plus the translation of service errors into status codes and
// sanitized response bodies.
package api
