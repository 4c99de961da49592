package ingest

import (
	"errors"
	"net/http"

	"incident-board/models"
)

// ErrMsgInternal is the only storage failure detail shown to clients
const ErrMsgInternal = "Internal server error"

// StorageError wraps a persistence failure during ingestion or aggregation
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ErrorStatus maps an ingestion error to an HTTP status and a client-facing message
func ErrorStatus(err error) (int, string) {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Message
	}
	return http.StatusInternalServerError, ErrMsgInternal
}
