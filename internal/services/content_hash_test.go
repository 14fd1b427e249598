package services

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func Test_HashContent_ShouldBeDeterministicHexSha256(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", HashContent(nil))
	assert.Equal(t, HashContent([]byte("cv")), HashContent([]byte("cv")))
	assert.NotEqual(t, HashContent([]byte("cv")), HashContent([]byte("cv ")))
}

func Test_HashFile_ShouldMatchHashContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.pdf")
	data := []byte("%PDF-1.4 fake résumé")
	require.NoError(t, os.WriteFile(path, data, 0644))

	hash, err := HashFile(path)

	require.NoError(t, err)
	assert.Equal(t, HashContent(data), hash)
}

func Test_HashFile_WhenMissing_ShouldReturnError(t *testing.T) {
	_, err := HashFile(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}
