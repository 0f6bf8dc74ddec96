package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"localboard/internal/state"
)

// ErrUnknownFormat is returned for export formats the package cannot write.
var ErrUnknownFormat = errors.New("unknown export format")

// Format is an export file format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatPDF  Format = "pdf"
	FormatJSON Format = "json"
)

// ParseFormat accepts a format name or file extension, e.g. "PNG", ".jpg".
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "pdf":
		return FormatPDF, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Ext is the file extension for the format, with the dot.
func (f Format) Ext() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return "." + string(f)
}

// Write encodes the board in format f.
func Write(w io.Writer, f Format, b state.BoardState, opts Options) error {
	switch f {
	case FormatPNG:
		return png.Encode(w, RenderImage(b, opts))
	case FormatJPEG:
		q := opts.JPEGQuality
		if q <= 0 {
			q = 90
		}
		return jpeg.Encode(w, RenderImage(b, opts), &jpeg.Options{Quality: q})
	case FormatPDF:
		return WritePDF(w, b, opts)
	case FormatJSON:
		return WriteJSON(w, b)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// WriteJSON writes a board backup file. Boards ReadJSON would reject are
// refused before anything is written.
func WriteJSON(w io.Writer, b state.BoardState) error {
	if err := b.Validate(); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// ReadJSON reads a board backup file written by WriteJSON.
func ReadJSON(r io.Reader) (state.BoardState, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return state.BoardState{}, fmt.Errorf("failed to read board file: %w", err)
	}
	return state.ParseBoard(data)
}
