package service

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/priceloka/backend/config"
)

// ImagingService converts an arbitrary receipt photo into a canonical
// binary raster suitable for OCR.
type ImagingService struct {
	headerFraction float64
	blurKernel     int
}

func NewImagingService(cfg *config.ImagingConfig) *ImagingService {
	return &ImagingService{
		headerFraction: cfg.HeaderFraction,
		blurKernel:     cfg.BlurKernel,
	}
}

// Decode decodes raw image bytes into a color raster.
func (s *ImagingService) Decode(data []byte) (gocv.Mat, error) {
	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to decode image: %w", err)
	}
	if img.Empty() {
		img.Close()
		return gocv.Mat{}, fmt.Errorf("decoded image is empty")
	}
	return img, nil
}

// Normalize produces a binary raster of identical dimensions: grayscale,
// Gaussian blur to suppress high-frequency noise, then Otsu's global
// threshold to split dark and light pixel populations.
func (s *ImagingService) Normalize(img gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	k := image.Pt(s.blurKernel, s.blurKernel)
	gocv.GaussianBlur(gray, &blurred, k, 0, 0, gocv.BorderDefault)

	binary := gocv.NewMat()
	gocv.Threshold(blurred, &binary, 0, 255, gocv.ThresholdBinary+gocv.ThresholdOtsu)

	return binary
}

// CropHeader returns the top portion of the raster where receipts place
// the merchant name. Crop height is floor(fraction * H), full width.
func (s *ImagingService) CropHeader(img gocv.Mat) gocv.Mat {
	headerHeight := int(s.headerFraction * float64(img.Rows()))
	if headerHeight < 1 {
		headerHeight = 1
	}

	region := img.Region(image.Rect(0, 0, img.Cols(), headerHeight))
	defer region.Close()

	return region.Clone()
}
