package geometry

import (
	"testing"

	"github.com/de-tools/report-export/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		size        domain.PaperSize
		orientation domain.Orientation
		want        PageGeometry
	}{
		{domain.PaperA1, domain.Portrait, PageGeometry{1683, 2383}},
		{domain.PaperA1, domain.Landscape, PageGeometry{2383, 1683}},
		{domain.PaperA2, domain.Portrait, PageGeometry{1190, 1683}},
		{domain.PaperA2, domain.Landscape, PageGeometry{1683, 1190}},
		{domain.PaperA3, domain.Portrait, PageGeometry{842, 1190}},
		{domain.PaperA3, domain.Landscape, PageGeometry{1190, 842}},
		{domain.PaperA4, domain.Portrait, PageGeometry{595, 842}},
		{domain.PaperA4, domain.Landscape, PageGeometry{842, 595}},
	}

	for _, tc := range tests {
		t.Run(string(tc.size)+"/"+string(tc.orientation), func(t *testing.T) {
			got, err := Resolve(tc.size, tc.orientation)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolve_Unsupported(t *testing.T) {
	for _, size := range []domain.PaperSize{"A5", "", "Letter", "a4"} {
		_, err := Resolve(size, domain.Portrait)
		assert.ErrorIs(t, err, domain.ErrUnsupportedPaperSize, size)
	}

	_, err := Resolve(domain.PaperA4, "sideways")
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}
