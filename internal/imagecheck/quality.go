// Package imagecheck runs cheap quality checks on captured frames before
// they are sent to the expensive extraction pipeline. A frame that is tiny,
// unreadable, or badly exposed will never produce a reliable detection, so
// rejecting it early saves a full fallback-chain round trip.
package imagecheck

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/Nenorae/PIFACE/internal/constants"
)

const checkSize = 64 // frames are downscaled to checkSize x checkSize for analysis

// Report holds the measured frame properties and the verdict.
type Report struct {
	Width      int
	Height     int
	Brightness float64 // mean luminance, 0-255
	BlurScore  float64 // variance of the Laplacian; higher is sharper
	Issues     []string
}

// Usable reports whether the frame passed all checks.
func (r *Report) Usable() bool {
	return len(r.Issues) == 0
}

// Check decodes a frame and measures size, brightness, and sharpness.
// A decode failure returns an error; everything else is reported as issues
// so the caller can decide how strict to be.
func Check(frameData []byte) (*Report, error) {
	if len(frameData) < constants.MinFrameBytes {
		return &Report{Issues: []string{fmt.Sprintf("frame too small (%d bytes)", len(frameData))}}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(frameData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}

	bounds := img.Bounds()
	report := &Report{Width: bounds.Dx(), Height: bounds.Dy()}
	if report.Width < constants.MinFrameDimension || report.Height < constants.MinFrameDimension {
		report.Issues = append(report.Issues, fmt.Sprintf("low resolution (%dx%d)", report.Width, report.Height))
	}

	gray := grayscale(resize(img, checkSize, checkSize))
	report.Brightness = meanBrightness(gray)
	report.BlurScore = laplacianVariance(gray)

	if report.Brightness < constants.MinFrameBrightness {
		report.Issues = append(report.Issues, "too dark")
	} else if report.Brightness > constants.MaxFrameBrightness {
		report.Issues = append(report.Issues, "too bright")
	}
	if report.BlurScore < constants.MinFrameBlurScore {
		report.Issues = append(report.Issues, "blurry")
	}

	return report, nil
}

// resize scales an image to the specified dimensions.
func resize(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// grayscale converts an RGBA image to a [x][y] luminance matrix.
func grayscale(img *image.RGBA) [][]float64 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	gray := make([][]float64, w)
	for x := range w {
		gray[x] = make([]float64, h)
		for y := range h {
			r, g, b, _ := img.At(x, y).RGBA()
			// ITU-R BT.601 luma weights, scaled back to 0-255.
			gray[x][y] = (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
		}
	}
	return gray
}

func meanBrightness(gray [][]float64) float64 {
	var sum float64
	var count int
	for x := range gray {
		for y := range gray[x] {
			sum += gray[x][y]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// laplacianVariance measures sharpness as the variance of a 4-neighbour
// Laplacian over the luminance matrix. Blurry frames score low.
func laplacianVariance(gray [][]float64) float64 {
	w := len(gray)
	if w < 3 {
		return 0
	}
	h := len(gray[0])

	var values []float64
	var sum float64
	for x := 1; x < w-1; x++ {
		for y := 1; y < h-1; y++ {
			lap := gray[x-1][y] + gray[x+1][y] + gray[x][y-1] + gray[x][y+1] - 4*gray[x][y]
			values = append(values, lap)
			sum += lap
		}
	}
	if len(values) == 0 {
		return 0
	}

	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return variance / float64(len(values))
}
