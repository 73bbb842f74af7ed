package vdms

import "github.com/cwlacewe/vdms-go/internal/domain"

// Sentinel errors returned by the client. Match with errors.Is.
var (
	// ErrValidation signals invalid arguments such as length mismatches
	// or unknown constraint operators.
	ErrValidation = domain.ErrValidation
	// ErrDocumentNotFound signals an update of a missing document.
	ErrDocumentNotFound = domain.ErrDocumentNotFound
	// ErrCollectionFailed signals a failed collection creation.
	ErrCollectionFailed = domain.ErrCollectionFailed
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = domain.ErrEmbeddingProviderError
	// ErrConnClosed signals an operation on a closed client.
	ErrConnClosed = domain.ErrConnClosed
	// ErrServerError signals a command the server rejected.
	ErrServerError = domain.ErrServerError
)
