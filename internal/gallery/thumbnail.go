package gallery

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/singleflight"
)

// ErrThumbnailNotFound is returned when neither the thumbnail nor its source image exists.
var ErrThumbnailNotFound = errors.New("gallery: thumbnail source not found")

const thumbnailSuffix = "-thumbnail"

// Thumbnailer serves thumbnail images from a file system, deriving missing ones from the
// full-size image named without the "-thumbnail" suffix. Derived images are cached in memory.
type Thumbnailer struct {
	fsys   fs.FS
	width  int
	height int

	mu    sync.RWMutex
	cache map[string][]byte
	group singleflight.Group
}

// NewThumbnailer reads images from fsys and crops derived thumbnails to width×height.
func NewThumbnailer(fsys fs.FS, width, height int) *Thumbnailer {
	if width <= 0 {
		width = 176
	}
	if height <= 0 {
		height = width
	}
	return &Thumbnailer{fsys: fsys, width: width, height: height, cache: make(map[string][]byte)}
}

// Thumbnail returns JPEG bytes for name, e.g. "image-product-1-thumbnail.jpg".
func (t *Thumbnailer) Thumbnail(name string) ([]byte, error) {
	name = path.Clean(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if name == "." || strings.HasPrefix(name, "..") || !fs.ValidPath(name) {
		return nil, ErrThumbnailNotFound
	}

	if data, err := fs.ReadFile(t.fsys, name); err == nil {
		return data, nil
	}

	t.mu.RLock()
	data, ok := t.cache[name]
	t.mu.RUnlock()
	if ok {
		return data, nil
	}

	v, err, _ := t.group.Do(name, func() (any, error) {
		data, err := t.derive(name)
		if err != nil {
			return nil, err
		}
		t.mu.Lock()
		t.cache[name] = data
		t.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (t *Thumbnailer) derive(name string) ([]byte, error) {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if !strings.HasSuffix(base, thumbnailSuffix) {
		return nil, ErrThumbnailNotFound
	}
	source := strings.TrimSuffix(base, thumbnailSuffix) + ext

	f, err := t.fsys.Open(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrThumbnailNotFound
		}
		return nil, fmt.Errorf("gallery: open %s: %w", source, err)
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("gallery: decode %s: %w", source, err)
	}
	return encodeJPEG(imaging.Fill(img, t.width, t.height, imaging.Center, imaging.Lanczos))
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("gallery: encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
