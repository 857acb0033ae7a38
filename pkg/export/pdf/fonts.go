package pdf

import (
	"sync"
	"unicode/utf8"

	"github.com/jung-kurt/gofpdf"
)

const (
	fontFamily = "Helvetica"
	styleBold  = "B"
)

// FontMetrics holds glyph widths of the standard Helvetica faces at 1pt and
// the cp1252 code page the core fonts are encoded in. It is built once per
// process and never modified, so it is safe for concurrent reads.
type FontMetrics struct {
	regular  [256]float64
	bold     [256]float64
	codepage map[rune]byte
}

// gofpdf's translator reuses one buffer between calls, so it is only run
// here, once, to capture the code page as a plain table.
func loadCodepage(translate func(string) string) map[rune]byte {
	codepage := make(map[rune]byte)
	for r := rune(utf8.RuneSelf); r <= 0xFFFF; r++ {
		if out := translate(string(r)); len(out) == 1 && out[0] >= utf8.RuneSelf {
			codepage[r] = out[0]
		}
	}
	return codepage
}

var sharedMetrics = sync.OnceValue(func() *FontMetrics {
	doc := gofpdf.New("P", "pt", "A4", "")
	m := &FontMetrics{
		codepage: loadCodepage(doc.UnicodeTranslatorFromDescriptor("")),
	}

	for _, face := range []struct {
		style string
		dst   *[256]float64
	}{
		{style: "", dst: &m.regular},
		{style: styleBold, dst: &m.bold},
	} {
		doc.SetFont(fontFamily, face.style, 1)
		for b := 1; b < 256; b++ {
			face.dst[b] = doc.GetStringWidth(string([]byte{byte(b)}))
		}
	}
	return m
})

// Metrics returns the process-wide font metrics handle.
func Metrics() *FontMetrics {
	return sharedMetrics()
}

// Translate converts UTF-8 text to the single-byte encoding of the core fonts.
// Runes outside the code page become '.'.
func (m *FontMetrics) Translate(s string) string {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r < utf8.RuneSelf {
			out = append(out, byte(r))
			continue
		}
		if b, ok := m.codepage[r]; ok {
			out = append(out, b)
		} else {
			out = append(out, '.')
		}
	}
	return string(out)
}

// Width measures already translated text at the given size.
func (m *FontMetrics) Width(s string, bold bool, size float64) float64 {
	table := &m.regular
	if bold {
		table = &m.bold
	}

	var w float64
	for i := 0; i < len(s); i++ {
		w += table[s[i]]
	}
	return w * size
}

// Fit truncates translated text with an ellipsis so it fits into width.
func (m *FontMetrics) Fit(s string, bold bool, size, width float64) string {
	if m.Width(s, bold, size) <= width {
		return s
	}

	const ellipsis = "..."
	for n := len(s) - 1; n > 0; n-- {
		candidate := s[:n] + ellipsis
		if m.Width(candidate, bold, size) <= width {
			return candidate
		}
	}
	return ""
}
