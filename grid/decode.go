package grid

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrUnsupportedFormat is returned for identifiers no decoder handles.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrEmptyImage is returned when a file decodes to zero pixels.
	ErrEmptyImage = errors.New("image has no pixels")
)

// Decoder turns an item identifier into pixels. Implementations are called
// from worker goroutines and must not touch shared UI state.
type Decoder interface {
	Decode(id string) (*DecodedImage, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(id string) (*DecodedImage, error)

// Decode calls f(id).
func (f DecoderFunc) Decode(id string) (*DecodedImage, error) { return f(id) }

// IsSupportedImage reports whether ext (with leading dot) is a still image
// format registered with image.Decode.
func IsSupportedImage(ext string) bool {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return true
	}
	return false
}

// IsSupportedVideo reports whether ext is a video container ffmpeg can
// extract a frame from.
func IsSupportedVideo(ext string) bool {
	switch strings.ToLower(ext) {
	case ".mp4", ".mkv", ".avi", ".webm", ".mov":
		return true
	}
	return false
}

// ImageDecoder decodes still images from disk. When MaxSize is positive the
// result is scaled down so neither side exceeds it.
type ImageDecoder struct {
	MaxSize int
}

// Decode reads and decodes the file at path.
func (d ImageDecoder) Decode(path string) (*DecodedImage, error) {
	img, err := loadImage(path)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return fitImage(img, d.MaxSize)
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

// fitImage copies img into an owned RGBA buffer no larger than maxSize on
// either side, keeping the aspect ratio.
func fitImage(img image.Image, maxSize int) (*DecodedImage, error) {
	src := img.Bounds()
	srcW, srcH := src.Dx(), src.Dy()
	if srcW == 0 || srcH == 0 {
		return nil, ErrEmptyImage
	}

	dstW, dstH := srcW, srcH
	if maxSize > 0 && (srcW > maxSize || srcH > maxSize) {
		ratio := float64(srcW) / float64(srcH)
		if ratio > 1 {
			dstW = maxSize
			dstH = max(1, int(float64(maxSize)/ratio))
		} else {
			dstH = maxSize
			dstW = max(1, int(float64(maxSize)*ratio))
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	if dstW == srcW && dstH == srcH {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Src)
	} else {
		// ApproxBiLinear keeps thumbnails cheap.
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
	}
	return &DecodedImage{Pixels: dst}, nil
}

var durationPattern = regexp.MustCompile(`Duration: (\d{2}):(\d{2}):(\d{2})\.(\d{2})`)

// VideoDecoder grabs the middle frame of a video with ffmpeg.
type VideoDecoder struct {
	FFmpegPath string
	MaxSize    int
}

// Decode extracts and decodes one frame of the video at path.
func (d VideoDecoder) Decode(path string) (*DecodedImage, error) {
	duration, err := d.duration(path)
	if err != nil {
		duration = time.Second
	}

	seek := duration / 2
	seekStr := fmt.Sprintf("%02d:%02d:%02d.%03d",
		int(seek.Hours()),
		int(seek.Minutes())%60,
		int(seek.Seconds())%60,
		seek.Milliseconds()%1000)

	// -ss before -i seeks on input: less exact, much faster.
	cmd := exec.Command(d.ffmpeg(), "-ss", seekStr, "-i", path, "-vframes", "1", "-f", "image2", "-strict", "unofficial", "-")
	applyHiddenWindow(cmd)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame %s: %w", path, err)
	}

	img, _, err := image.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode frame %s: %w", path, err)
	}
	return fitImage(img, d.MaxSize)
}

func (d VideoDecoder) ffmpeg() string {
	if d.FFmpegPath == "" {
		return "ffmpeg"
	}
	return d.FFmpegPath
}

func (d VideoDecoder) duration(path string) (time.Duration, error) {
	cmd := exec.Command(d.ffmpeg(), "-i", path)
	applyHiddenWindow(cmd)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// ffmpeg exits non-zero without an output file but still prints the header.
	_ = cmd.Run()
	return parseDuration(stderr.String())
}

func parseDuration(out string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(out)
	if len(m) < 5 {
		return 0, fmt.Errorf("could not find duration in output")
	}
	parts := make([]int, 4)
	for i := range parts {
		parts[i], _ = strconv.Atoi(m[i+1])
	}
	return time.Duration(parts[0])*time.Hour +
		time.Duration(parts[1])*time.Minute +
		time.Duration(parts[2])*time.Second +
		time.Duration(parts[3]*10)*time.Millisecond, nil
}

// MultiDecoder routes identifiers to Image or Video by file extension.
// A nil Video disables video thumbnails.
type MultiDecoder struct {
	Image Decoder
	Video Decoder
}

// Decode dispatches on the extension of id.
func (m MultiDecoder) Decode(id string) (*DecodedImage, error) {
	ext := filepath.Ext(id)
	switch {
	case IsSupportedImage(ext) && m.Image != nil:
		return m.Image.Decode(id)
	case IsSupportedVideo(ext) && m.Video != nil:
		return m.Video.Decode(id)
	}
	return nil, fmt.Errorf("%s: %w", id, ErrUnsupportedFormat)
}
