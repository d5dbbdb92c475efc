// Package imageio serialises rendered RGB buffers.
package imageio

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
)

// ErrSizeMismatch is returned when a buffer does not hold width*height*3
// bytes.
var ErrSizeMismatch = errors.New("rgb buffer size does not match dimensions")

func checkSize(width, height int, rgb []uint8) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrSizeMismatch, width, height)
	}
	if len(rgb) != width*height*3 {
		return fmt.Errorf("%w: %dx%d needs %d bytes, got %d", ErrSizeMismatch, width, height, width*height*3, len(rgb))
	}
	return nil
}

// EncodePPM writes a binary P6 image with a maxval of 255.
func EncodePPM(w io.Writer, width, height int, rgb []uint8) error {
	if err := checkSize(width, height, rgb); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P6\n%d %d\n255\n", width, height); err != nil {
		return err
	}
	if _, err := bw.Write(rgb); err != nil {
		return err
	}
	return bw.Flush()
}

// WritePPM writes a P6 file at path.
func WritePPM(path string, width, height int, rgb []uint8) error {
	if err := checkSize(width, height, rgb); err != nil {
		return err
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := EncodePPM(f, width, height, rgb); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// DecodePPM reads a binary P6 image with maxval 255. Header comments are
// accepted.
func DecodePPM(r io.Reader) (width, height int, rgb []uint8, err error) {
	br := bufio.NewReader(r)
	magic, err := readToken(br)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("ppm header: %w", err)
	}
	if magic != "P6" {
		return 0, 0, nil, fmt.Errorf("ppm header: unsupported magic %q", magic)
	}
	var dims [3]int
	for i := range dims {
		tok, err := readToken(br)
		if err != nil {
			return 0, 0, nil, fmt.Errorf("ppm header: %w", err)
		}
		if _, err := fmt.Sscanf(tok, "%d", &dims[i]); err != nil {
			return 0, 0, nil, fmt.Errorf("ppm header: bad number %q", tok)
		}
	}
	width, height = dims[0], dims[1]
	if width <= 0 || height <= 0 {
		return 0, 0, nil, fmt.Errorf("ppm header: bad size %dx%d", width, height)
	}
	if dims[2] != 255 {
		return 0, 0, nil, fmt.Errorf("ppm header: unsupported maxval %d", dims[2])
	}
	rgb = make([]uint8, width*height*3)
	if _, err := io.ReadFull(br, rgb); err != nil {
		return 0, 0, nil, fmt.Errorf("ppm pixels: %w", err)
	}
	return width, height, rgb, nil
}

// readToken returns the next whitespace-delimited header token, skipping
// '#' comments, and consumes the single whitespace byte that ends it.
func readToken(br *bufio.Reader) (string, error) {
	var tok []byte
	for {
		c, err := br.ReadByte()
		if err != nil {
			if err == io.EOF && len(tok) > 0 {
				return string(tok), nil
			}
			return "", err
		}
		switch {
		case c == '#' && len(tok) == 0:
			if _, err := br.ReadString('\n'); err != nil {
				return "", err
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			if len(tok) > 0 {
				return string(tok), nil
			}
		default:
			tok = append(tok, c)
		}
	}
}

// ReadPPM reads a P6 file at path.
func ReadPPM(path string) (width, height int, rgb []uint8, err error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return 0, 0, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return DecodePPM(f)
}

// ToRGBA converts a packed RGB buffer to an opaque image.RGBA.
func ToRGBA(width, height int, rgb []uint8) (*image.RGBA, error) {
	if err := checkSize(width, height, rgb); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, j := 0, 0; i < len(rgb); i, j = i+3, j+4 {
		img.Pix[j], img.Pix[j+1], img.Pix[j+2], img.Pix[j+3] = rgb[i], rgb[i+1], rgb[i+2], 0xff
	}
	return img, nil
}

// WritePNG writes the buffer as a PNG file at path.
func WritePNG(path string, width, height int, rgb []uint8) error {
	img, err := ToRGBA(width, height, rgb)
	if err != nil {
		return err
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
