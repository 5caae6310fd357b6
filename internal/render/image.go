package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image/png"
	"os"

	"github.com/h2non/filetype"
)

// Image is the decoded render artifact returned to callers. Data holds the
// raw PNG bytes; the temporary backing file is gone by the time callers see
// this value.
type Image struct {
	Format    string
	MediaType string
	Width     int
	Height    int
	Data      []byte
}

// Base64 returns the image bytes in the transport encoding.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// loadImage reads the produced raster file and confirms it is a well-formed
// PNG before wrapping it. The external tool is trusted but not blindly.
func loadImage(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, &IOError{Op: "read render output", Path: path, Err: err}
	}
	if !filetype.Is(data, "png") {
		return Image{}, &DecodeError{Path: path, Err: errors.New("not a PNG file")}
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, &DecodeError{Path: path, Err: err}
	}
	return Image{
		Format:    "png",
		MediaType: "image/png",
		Width:     cfg.Width,
		Height:    cfg.Height,
		Data:      data,
	}, nil
}
