package domain

import "errors"

var (
	// ErrValidation signals invalid caller arguments (length mismatches,
	// unknown engines or operators).
	ErrValidation = errors.New("validation failed")
	// ErrNotFound signals a missing collection.
	ErrNotFound = errors.New("collection not found")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrCollectionFailed signals a failed descriptor set creation.
	ErrCollectionFailed = errors.New("collection creation failed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrConnClosed signals an operation on a closed connection.
	ErrConnClosed = errors.New("connection closed")
	// ErrServerError signals a failed command reported by the server.
	ErrServerError = errors.New("server error")
)
