package state

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

type decodedUpload struct {
	data   []byte
	config image.Config
	format string
	err    error
}

// AddImageFromUpload reads an uploaded image and adds it as a new image
// element. It waits for the image header to be decoded. A file that cannot be
// read or decoded is still added, with the fallback size. Only ctx ending
// first stops the element from being added.
func (s *Store) AddImageFromUpload(ctx context.Context, name string, r io.Reader) (*Image, error) {
	done := make(chan decodedUpload, 1)
	go func() {
		data, err := io.ReadAll(r)
		if err != nil {
			done <- decodedUpload{data: data, err: err}
			return
		}
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		done <- decodedUpload{data: data, config: cfg, format: format, err: err}
	}()

	var up decodedUpload
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case up = <-done:
	}

	d := s.images
	img := &Image{
		Base:   Base{ID: NewElementID(), StrokeColor: DefaultStrokeColor, StrokeWidth: 0},
		X:      d.X,
		Y:      d.Y,
		Width:  d.FallbackWidth,
		Height: d.FallbackHeight,
		Name:   name,
	}
	if up.err != nil {
		s.logger.Warn("image decode failed, using fallback size", zap.String("name", name), zap.Error(up.err))
	} else {
		img.Width = capDim(float64(up.config.Width), d.MaxWidth, d.FallbackWidth)
		img.Height = capDim(float64(up.config.Height), d.MaxHeight, d.FallbackHeight)
	}
	if len(up.data) > 0 {
		img.Src = EncodeDataURL(mimeType(up.format, up.data), up.data)
	}

	s.AddElement(img)
	return img.Clone().(*Image), nil
}

func capDim(v, limit, fallback float64) float64 {
	if v <= 0 {
		return fallback
	}
	if limit > 0 && v > limit {
		return limit
	}
	return v
}

func mimeType(format string, data []byte) string {
	if format != "" {
		return "image/" + format
	}
	return http.DetectContentType(data)
}

// EncodeDataURL wraps raw bytes in a base64 data URL.
func EncodeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeImageSource decodes the image an Image element points at.
func DecodeImageSource(src string) (image.Image, error) {
	if src == "" {
		return nil, errors.New("empty image source")
	}
	head, payload, ok := strings.Cut(src, ",")
	if !ok || !strings.HasPrefix(head, "data:") || !strings.HasSuffix(head, ";base64") {
		return nil, fmt.Errorf("unsupported image source %.32q", src)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("bad image payload: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
