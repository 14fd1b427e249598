package services

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// HashContent returns the hex SHA-256 of data. It is a change detector for the
// extraction cache, not a security boundary.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err = io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
