package westernblot

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/tiff"

	"tether/internal/fileutil"
	"tether/internal/nwb"
)

// PublicationDate stands in for the session start time of every blot
// bundle; gels were imaged without any recorded acquisition timestamp.
var PublicationDate = time.Date(2022, time.February, 7, 0, 0, 0, 0, time.UTC)

// Result describes the two bundles emitted for one combined gel image.
type Result struct {
	WTImagePath   string
	DATImagePath  string
	WTBundlePath  string
	DATBundlePath string
}

// Split cuts the combined gel image at filePath down the middle, wild-type
// lanes on the left and DAT-cKO lanes on the right, writes one TIFF and one
// bundle per half into outputDir, and returns the emitted paths.
func Split(filePath, outputDir string) (*Result, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read blot image: %w", err)
	}
	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode blot image %s: %w", filePath, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() < 2 {
		return nil, fmt.Errorf("blot image %s is too narrow to split", filePath)
	}
	mid := bounds.Min.X + bounds.Dx()/2
	left := cropHorizontal(img, bounds.Min.X, mid)
	right := cropHorizontal(img, mid, bounds.Max.X)

	stem := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	result := &Result{}

	result.WTImagePath, err = writeHalf(outputDir, stem+"_WT", left)
	if err != nil {
		return nil, err
	}
	result.DATImagePath, err = writeHalf(outputDir, stem+"_DAT-KO", right)
	if err != nil {
		return nil, err
	}

	result.WTBundlePath, err = writeBundle(outputDir, stem+"_WT", result.WTImagePath, left)
	if err != nil {
		return nil, err
	}
	result.DATBundlePath, err = writeBundle(outputDir, stem+"_DAT-KO", result.DATImagePath, right)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SexFromName infers the exchange sex code from a blot image name.
func SexFromName(name string) string {
	switch {
	case strings.Contains(name, "Female"):
		return "F"
	case strings.Contains(name, "Male"):
		return "M"
	default:
		return "U"
	}
}

func cropHorizontal(img image.Image, minX, maxX int) *image.Gray16 {
	bounds := img.Bounds()
	out := image.NewGray16(image.Rect(0, 0, maxX-minX, bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := minX; x < maxX; x++ {
			out.Set(x-minX, y-bounds.Min.Y, img.At(x, y))
		}
	}
	return out
}

func writeHalf(outputDir, name string, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, nil); err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	path := filepath.Join(outputDir, name+".tif")
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func writeBundle(outputDir, name, imagePath string, img image.Image) (string, error) {
	doc := nwb.NewDocument(name, "Western blot of DAT protein levels in dorsal striatum.", PublicationDate)
	doc.Subject = &nwb.Subject{ID: name, Sex: SexFromName(name)}
	doc.Keywords = []string{"western blot"}
	doc.Images = &nwb.ImageModule{
		Description: "Split gel image; lanes from one genotype only.",
		Images: []nwb.Image{{
			Name:   name,
			Path:   filepath.Base(imagePath),
			Width:  img.Bounds().Dx(),
			Height: img.Bounds().Dy(),
		}},
	}
	path := filepath.Join(outputDir, name+nwb.Extension)
	if err := nwb.Write(path, doc); err != nil {
		return "", err
	}
	return path, nil
}
