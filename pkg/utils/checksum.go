package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// FileChecksum returns the hex SHA-256 of the file at path. Errors wrap ErrFilesystem.
func FileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFilesystem, err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("%w: read %s: %w", ErrFilesystem, path, err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
