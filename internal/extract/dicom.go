package extract

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// extractDICOM dumps the full metadata set as searchable text and, when a
// pixel array is present, converts the first frame to a grayscale PNG.
func extractDICOM(data []byte) (string, [][]byte, []string, error) {
	ds, err := dicom.Parse(bytes.NewReader(data), int64(len(data)), nil)
	if err != nil {
		return "", nil, nil, fmt.Errorf("parse dicom: %w", err)
	}

	var b strings.Builder
	for _, el := range ds.Elements {
		if el == nil || el.Tag == tag.PixelData {
			continue
		}
		name := el.Tag.String()
		if info, err := tag.Find(el.Tag); err == nil && info.Name != "" {
			name = info.Name
		}
		fmt.Fprintf(&b, "%s = %s\n", name, el.Value.String())
	}

	var images [][]byte
	var warns []string
	if el, err := ds.FindElementByTag(tag.PixelData); err == nil {
		if img, err := firstFrameGray(el); err != nil {
			warns = append(warns, fmt.Sprintf("pixel data: %v", err))
		} else if img != nil {
			var buf bytes.Buffer
			if err := png.Encode(&buf, img); err != nil {
				warns = append(warns, fmt.Sprintf("encode frame: %v", err))
			} else {
				images = append(images, buf.Bytes())
			}
		}
	}
	return b.String(), images, warns, nil
}

func firstFrameGray(el *dicom.Element) (image.Image, error) {
	info, ok := el.Value.GetValue().(dicom.PixelDataInfo)
	if !ok || len(info.Frames) == 0 {
		return nil, nil
	}
	img, err := info.Frames[0].GetImage()
	if err != nil {
		return nil, fmt.Errorf("frame image: %w", err)
	}
	gray := image.NewGray(img.Bounds())
	draw.Draw(gray, gray.Bounds(), img, img.Bounds().Min, draw.Src)
	// normalize bounds to origin for encoders that assume it
	if gray.Bounds().Min != (image.Point{}) {
		shifted := image.NewGray(image.Rect(0, 0, gray.Bounds().Dx(), gray.Bounds().Dy()))
		draw.Draw(shifted, shifted.Bounds(), gray, gray.Bounds().Min, draw.Src)
		return shifted, nil
	}
	return gray, nil
}
