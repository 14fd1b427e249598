package renderer

import (
	"errors"
	"fmt"
)

var ErrToolNotFound = errors.New("pdf rasterizer not found")

type ToolNotFoundError struct {
	Searched []string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("%v, searched: %v", ErrToolNotFound, e.Searched)
}

func (e *ToolNotFoundError) Is(target error) bool {
	return target == ErrToolNotFound
}

type RenderError struct {
	PDFPath string
	Cause   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render %s: %v", e.PDFPath, e.Cause)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
