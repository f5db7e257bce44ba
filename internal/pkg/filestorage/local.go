package filestorage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ProofPrefix starts every proof reference handed out by LocalStorage
const ProofPrefix = "proofs/"

// DefaultMaxProofSize is used when NewLocalStorage gets a non-positive limit
const DefaultMaxProofSize int64 = 10 << 20

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".doc":  true,
	".docx": true,
	".txt":  true,
}

// LocalStorage handles saving proofs to the local filesystem.
type LocalStorage struct {
	basePath string // directory holding the proofs
	maxSize  int64
	logger   zerolog.Logger
}

// NewLocalStorage creates a new LocalStorage instance rooted at basePath,
// creating the directory when needed.
func NewLocalStorage(basePath string, maxSize int64, logger zerolog.Logger) (*LocalStorage, error) {
	dir := filepath.Join(basePath, strings.TrimSuffix(ProofPrefix, "/"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error().Err(err).Str("path", dir).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxProofSize
	}
	logger.Info().Str("path", dir).Msg("Proof storage directory ensured")

	return &LocalStorage{
		basePath: basePath,
		maxSize:  maxSize,
		logger:   logger,
	}, nil
}

// SaveProof saves an uploaded file under a random name and returns its reference
func (ls *LocalStorage) SaveProof(fileHeader *multipart.FileHeader) (string, error) {
	if fileHeader == nil {
		return "", ErrEmptyUpload
	}
	if fileHeader.Size > ls.maxSize {
		return "", ErrFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedType
	}

	file, err := fileHeader.Open()
	if err != nil {
		ls.logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Failed to open uploaded file")
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	proofRef := ProofPrefix + uuid.New().String() + ext
	dstPath := filepath.Join(ls.basePath, filepath.FromSlash(proofRef))

	dst, err := os.Create(dstPath)
	if err != nil {
		ls.logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create destination file")
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	// Size on the header comes from the client; cap what is actually copied.
	written, err := io.Copy(dst, io.LimitReader(file, ls.maxSize+1))
	if err == nil && written > ls.maxSize {
		err = ErrFileTooLarge
	}
	if err != nil {
		ls.logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy uploaded file content")
		_ = os.Remove(dstPath)
		if err == ErrFileTooLarge {
			return "", err
		}
		return "", fmt.Errorf("failed to save file content: %w", err)
	}

	ls.logger.Info().Str("filename", fileHeader.Filename).Str("proofRef", proofRef).Int64("bytes", written).Msg("Proof saved")
	return proofRef, nil
}

// OpenProof opens a stored proof
func (ls *LocalStorage) OpenProof(proofRef string) (io.ReadCloser, error) {
	path, err := ls.resolve(proofRef)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// DeleteProof removes a proof from the filesystem.
func (ls *LocalStorage) DeleteProof(proofRef string) error {
	path, err := ls.resolve(proofRef)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			ls.logger.Warn().Str("path", path).Msg("Proof to delete does not exist")
			return nil
		}
		ls.logger.Error().Err(err).Str("path", path).Msg("Failed to delete proof")
		return fmt.Errorf("failed to delete proof: %w", err)
	}
	return nil
}

// resolve maps a reference to a path inside the proof directory only.
func (ls *LocalStorage) resolve(proofRef string) (string, error) {
	if !strings.HasPrefix(proofRef, ProofPrefix) {
		return "", ErrInvalidReference
	}
	name := strings.TrimPrefix(proofRef, ProofPrefix)
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", ErrInvalidReference
	}
	return filepath.Join(ls.basePath, strings.TrimSuffix(ProofPrefix, "/"), name), nil
}
