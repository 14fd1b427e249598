package renderer

import (
	"bytes"
	"context"
	"encoding/base64"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	DefaultMaxWidth = 1024
	DefaultTimeout  = 60 * time.Second
)

// PageRange selects pages to render. Zero values mean the first and last page
// of the document.
type PageRange struct {
	First int
	Last  int
}

type Config struct {
	BinaryPath string
	ScratchDir string
	MaxWidth   int
	Timeout    time.Duration
}

type PageRenderer struct {
	config Config

	mu     sync.Mutex
	binary string
}

func NewPageRenderer(config Config) *PageRenderer {
	if config.MaxWidth <= 0 {
		config.MaxWidth = DefaultMaxWidth
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.ScratchDir == "" {
		config.ScratchDir = filepath.Join(os.TempDir(), "cv-extractor-pages")
	}
	return &PageRenderer{config: config}
}

// Binary returns the resolved rasterizer path. Only a successful resolution is
// kept, so a binary installed after a failure is found on the next call.
func (r *PageRenderer) Binary() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.binary != "" {
		return r.binary, nil
	}

	binary, err := ResolveBinary(r.config.BinaryPath)
	if err != nil {
		return "", err
	}
	r.binary = binary
	return binary, nil
}

// Render rasterizes the requested pages to PNG and returns them base64 encoded
// in page order. No file produced by the call survives it.
func (r *PageRenderer) Render(ctx context.Context, pdfPath string, pages PageRange) ([]string, error) {

	binary, err := r.Binary()
	if err != nil {
		return nil, err
	}

	if err = os.MkdirAll(r.config.ScratchDir, 0755); err != nil {
		return nil, &RenderError{PDFPath: pdfPath, Cause: errors.Wrap(err, "create scratch dir")}
	}

	prefix := uuid.NewString()
	defer r.sweep(prefix)

	if err = r.run(ctx, binary, pdfPath, pages, prefix); err != nil {
		return nil, &RenderError{PDFPath: pdfPath, Cause: err}
	}

	files, err := r.outputFiles(prefix)
	if err != nil {
		return nil, &RenderError{PDFPath: pdfPath, Cause: err}
	}
	if len(files) == 0 {
		return nil, &RenderError{PDFPath: pdfPath, Cause: errors.New("rasterizer produced no pages")}
	}

	images := make([]string, 0, len(files))
	for _, file := range files {
		data, readErr := os.ReadFile(file.path)
		removeFile(file.path)
		if readErr != nil {
			return nil, &RenderError{PDFPath: pdfPath, Cause: errors.Wrapf(readErr, "read page %d", file.page)}
		}
		images = append(images, base64.StdEncoding.EncodeToString(data))
	}

	log.Debugf("rendered %d pages of %s", len(images), pdfPath)
	return images, nil
}

func (r *PageRenderer) run(ctx context.Context, binary, pdfPath string, pages PageRange, prefix string) error {

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, r.arguments(pdfPath, pages, prefix)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return errors.Errorf("rasterizer timed out after %v", r.config.Timeout)
		}
		return errors.Wrap(ctxErr, "rendering cancelled")
	}
	if err != nil {
		return errors.Wrapf(err, "rasterizer failed: %s", strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (r *PageRenderer) arguments(pdfPath string, pages PageRange, prefix string) []string {
	args := []string{
		"-png",
		"-scale-to-x", strconv.Itoa(r.config.MaxWidth),
		"-scale-to-y", "-1",
	}
	if pages.First > 0 {
		args = append(args, "-f", strconv.Itoa(pages.First))
	}
	if pages.Last > 0 {
		args = append(args, "-l", strconv.Itoa(pages.Last))
	}
	return append(args, pdfPath, filepath.Join(r.config.ScratchDir, prefix))
}

type pageFile struct {
	page int
	path string
}

// outputFiles lists <prefix>-<n>.png sorted by page number. pdftoppm pads n
// with zeros depending on the page count, so it is parsed rather than compared
// as text.
func (r *PageRenderer) outputFiles(prefix string) ([]pageFile, error) {

	entries, err := os.ReadDir(r.config.ScratchDir)
	if err != nil {
		return nil, errors.Wrap(err, "list scratch dir")
	}

	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + `-(\d+)\.png$`)

	files := lo.FilterMap(entries, func(entry os.DirEntry, _ int) (pageFile, bool) {
		match := pattern.FindStringSubmatch(entry.Name())
		if match == nil {
			return pageFile{}, false
		}
		page, convErr := strconv.Atoi(match[1])
		if convErr != nil {
			return pageFile{}, false
		}
		return pageFile{page: page, path: filepath.Join(r.config.ScratchDir, entry.Name())}, true
	})

	sort.Slice(files, func(i, j int) bool { return files[i].page < files[j].page })
	return files, nil
}

// sweep removes whatever is left of a render, whatever the exit path was.
func (r *PageRenderer) sweep(prefix string) {
	leftovers, err := filepath.Glob(filepath.Join(r.config.ScratchDir, prefix+"*"))
	if err != nil {
		return
	}
	for _, path := range leftovers {
		removeFile(path)
	}
}

func removeFile(path string) {
	if err := os.RemoveAll(path); err != nil && !os.IsNotExist(err) {
		log.Warnf("failed to remove scratch file %s: %v", path, err)
	}
}
