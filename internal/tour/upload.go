package tour

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/draw"

	"feedbackbot/internal/pkg/pdfextract"
)

const (
	MaxUploadBytes  = 5 << 20
	csvPreviewRows  = 5
	textPreviewSize = 500
	pdfPreviewPages = 3
	thumbnailSize   = 200

	// MaxImageSide and MaxImagePixels bound decoded images.
	MaxImageSide   = 4096
	MaxImagePixels = 16 << 20
)

var (
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file is too large")
	ErrImageTooLarge   = errors.New("image dimensions are too large")
)

// UploadTypes are the accepted file extensions.
var UploadTypes = []string{".csv", ".txt", ".pdf", ".png", ".jpg", ".jpeg"}

type UploadPreview struct {
	Name string
	Size int
	Kind string

	Header []string
	Rows   [][]string
	Text   string
	// Image is a data URI with a PNG thumbnail.
	Image string
}

func Preview(name string, data []byte) (*UploadPreview, error) {
	if len(data) > MaxUploadBytes {
		return nil, ErrFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(name))
	p := &UploadPreview{Name: filepath.Base(name), Size: len(data), Kind: strings.TrimPrefix(ext, ".")}

	var err error
	switch ext {
	case ".csv":
		p.Header, p.Rows, err = csvHead(data, csvPreviewRows)
	case ".txt":
		p.Text = head(string(data), textPreviewSize)
	case ".pdf":
		var res *pdfextract.Result
		res, err = pdfextract.ExtractText(data, pdfextract.Limits{MaxPages: pdfPreviewPages, MaxBytes: textPreviewSize})
		if err == nil {
			p.Text = strings.TrimSpace(res.Text)
			if res.Truncated {
				p.Text += "…"
			}
		}
	case ".png", ".jpg", ".jpeg":
		p.Kind = "image"
		p.Image, err = thumbnail(data, thumbnailSize)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFile, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("preview %s failed: %w", p.Kind, err)
	}
	return p, nil
}

func csvHead(data []byte, n int) ([]string, [][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	var rows [][]string
	for len(rows) < n {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// head cuts s to at most n bytes on a rune boundary.
func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

func thumbnail(data []byte, size int) (string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	if cfg.Width > MaxImageSide || cfg.Height > MaxImageSide || cfg.Width*cfg.Height > MaxImagePixels {
		return "", fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > size || h > size {
		if w >= h {
			w, h = size, max(1, h*size/w)
		} else {
			w, h = max(1, w*size/h), size
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
