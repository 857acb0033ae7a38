package geometry

import (
	"fmt"

	"github.com/de-tools/report-export/pkg/models/domain"
)

// PageGeometry is a physical page size in PostScript points.
type PageGeometry struct {
	WidthPt  float64
	HeightPt float64
}

// ISO 216 sizes in points, portrait.
var paperSizes = map[domain.PaperSize]PageGeometry{
	domain.PaperA1: {WidthPt: 1683, HeightPt: 2383},
	domain.PaperA2: {WidthPt: 1190, HeightPt: 1683},
	domain.PaperA3: {WidthPt: 842, HeightPt: 1190},
	domain.PaperA4: {WidthPt: 595, HeightPt: 842},
}

// Resolve maps a paper size and orientation to page dimensions.
func Resolve(size domain.PaperSize, orientation domain.Orientation) (PageGeometry, error) {
	g, ok := paperSizes[size]
	if !ok {
		return PageGeometry{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedPaperSize, size)
	}

	switch orientation {
	case domain.Portrait:
		return g, nil
	case domain.Landscape:
		return PageGeometry{WidthPt: g.HeightPt, HeightPt: g.WidthPt}, nil
	}
	return PageGeometry{}, fmt.Errorf("%w: unknown orientation %q", domain.ErrInvalidConfiguration, orientation)
}
