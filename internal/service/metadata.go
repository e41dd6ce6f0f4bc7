package service

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/devdattatalele/zapmygoal/internal/models"
)

// ExtractImageMetadata pulls the capture time and dimensions out of
// the proof image. The capture time comes from EXIF when present,
// otherwise from the client-reported file modification time; a nil
// CaptureTime means neither was available.
func ExtractImageMetadata(data []byte, fileName string, fileModified *time.Time) models.ImageMetadata {
	metadata := models.ImageMetadata{
		Size:     int64(len(data)),
		FileName: fileName,
	}

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		metadata.Width = cfg.Width
		metadata.Height = cfg.Height
	}

	if x, err := exif.Decode(bytes.NewReader(data)); err == nil {
		if captured, err := x.DateTime(); err == nil {
			metadata.CaptureTime = &captured
			return metadata
		}
	}

	if fileModified != nil && !fileModified.IsZero() {
		t := *fileModified
		metadata.CaptureTime = &t
	}
	return metadata
}
