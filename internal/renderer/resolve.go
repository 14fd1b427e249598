package renderer

import (
	"os"
	"os/exec"
)

const (
	BinaryName = "pdftoppm"
	// BinaryEnv overrides every other lookup location.
	BinaryEnv = "PDFTOPPM_PATH"
)

// Probed in order when neither the configured path nor BinaryEnv is set.
var commonLocations = []string{
	"/usr/bin/pdftoppm",
	"/usr/local/bin/pdftoppm",
	"/opt/homebrew/bin/pdftoppm",
	"/opt/local/bin/pdftoppm",
}

var lookPath = exec.LookPath

// ResolveBinary finds the pdftoppm executable: explicit path, then BinaryEnv,
// then commonLocations, then PATH.
func ResolveBinary(explicit string) (string, error) {

	var searched []string

	candidates := []string{explicit, os.Getenv(BinaryEnv)}
	candidates = append(candidates, commonLocations...)

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		searched = append(searched, candidate)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	searched = append(searched, "$PATH/"+BinaryName)
	if path, err := lookPath(BinaryName); err == nil {
		return path, nil
	}

	return "", &ToolNotFoundError{Searched: searched}
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0111 != 0
}
