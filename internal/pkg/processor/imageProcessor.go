package processor

import (
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/tallyfy/denizen-assets/internal/entity"
)

const DefaultQuality = 75

type ImageProcessor interface {
	Decode(r io.Reader) (image.Image, error)
	Transform(img image.Image, tier entity.Tier) (image.Image, error)
	Encode(w io.Writer, img image.Image) error
}

type imageProcessor struct {
	quality int
	filter  imaging.ResampleFilter
}

func NewImageProcessor(quality int, filter string) (ImageProcessor, error) {
	f, err := ParseFilter(filter)
	if err != nil {
		return nil, err
	}
	if quality <= 0 {
		quality = DefaultQuality
	}
	return &imageProcessor{quality: quality, filter: f}, nil
}

// Decode reads any registered format (jpeg, png, gif, bmp, tiff, webp)
// and applies the EXIF orientation tag.
func (p *imageProcessor) Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func (p *imageProcessor) Transform(img image.Image, tier entity.Tier) (image.Image, error) {
	switch tier.Policy {
	case entity.PolicyFit:
		// imaging.Fit never upscales, smaller images come back as a copy
		return imaging.Fit(img, tier.Width, tier.Height, p.filter), nil
	case entity.PolicyForce:
		return imaging.Resize(img, tier.Width, tier.Height, p.filter), nil
	case entity.PolicyFill:
		return imaging.Fill(img, tier.Width, tier.Height, imaging.Center, p.filter), nil
	default:
		return nil, fmt.Errorf("%w: %q", entity.ErrUnsupportedPolicy, tier.Policy)
	}
}

func (p *imageProcessor) Encode(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(p.quality))
}

func ParseFilter(name string) (imaging.ResampleFilter, error) {
	switch strings.ToLower(name) {
	case "", "lanczos":
		return imaging.Lanczos, nil
	case "catmullrom":
		return imaging.CatmullRom, nil
	case "linear":
		return imaging.Linear, nil
	case "box":
		return imaging.Box, nil
	case "nearest":
		return imaging.NearestNeighbor, nil
	default:
		return imaging.ResampleFilter{}, fmt.Errorf("unknown resample filter: %s", name)
	}
}
