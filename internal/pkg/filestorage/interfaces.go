package filestorage

import (
	"errors"
	"io"
	"mime/multipart"
)

// Errors returned by proof storage
var (
	ErrEmptyUpload      = errors.New("no file uploaded")
	ErrFileTooLarge     = errors.New("file exceeds the maximum proof size")
	ErrUnsupportedType  = errors.New("file type is not accepted as proof")
	ErrInvalidReference = errors.New("invalid proof reference")
)

// ProofStorage keeps supporting documents for credit entries and appeals.
// A proof reference is an opaque string stored on the ledger entry.
type ProofStorage interface {
	// SaveProof stores an uploaded file and returns its proof reference
	SaveProof(fileHeader *multipart.FileHeader) (string, error)

	// OpenProof opens a stored proof for reading
	OpenProof(proofRef string) (io.ReadCloser, error)

	// DeleteProof removes a stored proof. Missing files are not an error.
	DeleteProof(proofRef string) error
}
