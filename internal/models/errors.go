package models

// ErrorKind is the machine-readable error category of an API error.
type ErrorKind string

const (
	KindNoInput              ErrorKind = "no_input"
	KindInvalidInput         ErrorKind = "invalid_input"
	KindInputTooLarge        ErrorKind = "input_too_large"
	KindEmbeddingUnavailable ErrorKind = "embedding_unavailable"
	KindDimensionMismatch    ErrorKind = "dimension_mismatch"
	KindCatalog              ErrorKind = "catalog_error"
	KindNotFound             ErrorKind = "not_found"
	KindInternal             ErrorKind = "internal"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string    `json:"error"`
	Kind  ErrorKind `json:"kind"`
}
