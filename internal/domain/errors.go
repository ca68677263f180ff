package domain

import "errors"

var (
	// ErrIngestionEmpty signals that a rebuild found no documents in the
	// staging directory. The index is still replaced with an empty one.
	ErrIngestionEmpty = errors.New("no documents found")
	// ErrIndexUnavailable signals an operation that requires a built index.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrProviderFailure signals a failed embedding or generation call.
	ErrProviderFailure = errors.New("provider failure")
	// ErrPersistence signals a session or index read/write failure.
	ErrPersistence = errors.New("persistence failure")
	// ErrModelMismatch signals a query embedded with a different model than
	// the one the index was built with. Cross-model similarity scores are
	// meaningless, so the query is refused instead.
	ErrModelMismatch = errors.New("embedding model mismatch")
	// ErrVectorDimMismatch signals a vector dimension mismatch at build time.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)
