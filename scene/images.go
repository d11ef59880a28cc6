// scene/images.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package scene

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/mmp/modelview/log"
	"github.com/mmp/modelview/util"

	"github.com/h2non/filetype"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

var ErrNotImage = errors.New("not an image file")

// ImageLoader decodes image files from the resources directory or the file
// system. Images larger than the device's maximum texture size are
// scaled down. Decoded images are kept in a cache for a while so that
// reloading a scene doesn't decode them again.
type ImageLoader struct {
	maxSize int
	cache   *expirable.LRU[string, image.Image]
	lg      *log.Logger
}

// NewImageLoader returns an ImageLoader that limits images to maxSize
// pixels on a side and caches up to cacheSize decoded images for the
// given duration.
func NewImageLoader(maxSize, cacheSize int, ttl time.Duration, lg *log.Logger) *ImageLoader {
	return &ImageLoader{
		maxSize: maxSize,
		cache:   expirable.NewLRU[string, image.Image](max(cacheSize, 1), nil, ttl),
		lg:      lg,
	}
}

// DecodeImage returns the decoded image at path.
func (l *ImageLoader) DecodeImage(path string) (image.Image, error) {
	if img, ok := l.cache.Get(path); ok {
		return img, nil
	}

	b, err := util.LoadResourceOrFileBytes(path)
	if err != nil {
		return nil, err
	}
	img, err := l.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	l.lg.Debugf("%s: decoded %dx%d image", path, img.Bounds().Dx(), img.Bounds().Dy())
	l.cache.Add(path, img)
	return img, nil
}

// Decode decodes an image from memory, checking its type first so that
// non-image files give a clear error.
func (l *ImageLoader) Decode(b []byte) (image.Image, error) {
	kind, err := filetype.Match(b)
	if err != nil {
		return nil, err
	}
	if kind == filetype.Unknown || !filetype.IsImage(b) {
		return nil, fmt.Errorf("%w (detected type %q)", ErrNotImage, kind.MIME.Value)
	}

	img, format, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind.Extension, err)
	}
	if format != kind.Extension && !(format == "jpeg" && kind.Extension == "jpg") {
		l.lg.Warnf("image sniffed as %q but decoded as %q", kind.Extension, format)
	}
	return l.limitSize(img), nil
}

// limitSize scales img down, preserving its aspect ratio, if either of its
// dimensions exceeds the maximum texture size.
func (l *ImageLoader) limitSize(img image.Image) image.Image {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if l.maxSize <= 0 || (w <= l.maxSize && h <= l.maxSize) {
		return img
	}

	var nw, nh uint
	if w >= h {
		nw, nh = uint(l.maxSize), uint(max(1, h*l.maxSize/w))
	} else {
		nw, nh = uint(max(1, w*l.maxSize/h)), uint(l.maxSize)
	}
	l.lg.Infof("resizing %dx%d image to %dx%d", w, h, nw, nh)
	return resize.Resize(nw, nh, img, resize.MitchellNetravali)
}

// LoadCubeFaces decodes the six faces of a cube map in parallel.
func (l *ImageLoader) LoadCubeFaces(names [6]string) ([6]image.Image, error) {
	var faces [6]image.Image
	var eg errgroup.Group
	for i, name := range names {
		eg.Go(func() error {
			img, err := l.DecodeImage(name)
			faces[i] = img
			return err
		})
	}
	err := eg.Wait()
	return faces, err
}

// Purge empties the cache.
func (l *ImageLoader) Purge() {
	l.cache.Purge()
}

func (l *ImageLoader) CachedCount() int {
	return l.cache.Len()
}

///////////////////////////////////////////////////////////////////////////
// Generated images

// Checkerboard returns a size x size image of squares alternating
// between two colors, used in place of a model texture that cannot be
// loaded.
func Checkerboard(size, squares int, a, b color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	sq := max(1, size/max(1, squares))
	for y := range size {
		for x := range size {
			img.Set(x, y, util.Select((x/sq+y/sq)%2 == 0, a, b))
		}
	}
	return img
}

// GradientSky returns the six faces of a cube map that fades from the
// horizon color to the zenith color, for scenes without a skybox. Faces
// are in the order +X, -X, +Y, -Y, +Z, -Z with +Y up.
func GradientSky(size int, horizon, zenith color.NRGBA) [6]image.Image {
	mix := func(a, b uint8, t float32) uint8 {
		return uint8(float32(a) + t*(float32(b)-float32(a)) + 0.5)
	}

	side := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := range size {
		// Row 0 is the top of the face; the horizon is at the middle.
		t := util.Clamp(float32(size/2-y)/float32(max(1, size/2)), 0, 1)
		c := color.NRGBA{mix(horizon.R, zenith.R, t), mix(horizon.G, zenith.G, t), mix(horizon.B, zenith.B, t), 255}
		for x := range size {
			side.SetNRGBA(x, y, c)
		}
	}

	top := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.Draw(top, top.Bounds(), image.NewUniform(zenith), image.Point{}, draw.Src)
	bottom := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.Draw(bottom, bottom.Bounds(), image.NewUniform(horizon), image.Point{}, draw.Src)

	return [6]image.Image{side, side, top, bottom, side, side}
}
