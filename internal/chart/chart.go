// Package chart draws the cumulative growth line charts shown on the
// analytics tabs as PNG images.
package chart

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"bankroll/internal/analytics"
)

// Style sets the canvas size and the colours of the two lines.
type Style struct {
	Width, Height int
	Padding       float64
	ActualRGB     [3]float64
	TargetRGB     [3]float64
}

func DefaultStyle() Style {
	return Style{
		Width:     720,
		Height:    320,
		Padding:   48,
		ActualRGB: [3]float64{0.16, 0.44, 0.85},
		TargetRGB: [3]float64{0.55, 0.55, 0.6},
	}
}

const gridLines = 5

var (
	fontsOnce sync.Once
	fontsErr  error
	regular   *truetype.Font
	bold      *truetype.Font
)

func loadFonts() error {
	fontsOnce.Do(func() {
		if regular, fontsErr = truetype.Parse(goregular.TTF); fontsErr != nil {
			return
		}
		bold, fontsErr = truetype.Parse(gobold.TTF)
	})
	return fontsErr
}

func face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
}

// Render draws s as a percentage chart titled title. An empty series yields
// a frame with a "No data" caption so the image slot never breaks.
func Render(s analytics.Series, title string, style Style) ([]byte, error) {
	if err := loadFonts(); err != nil {
		return nil, fmt.Errorf("load chart fonts: %w", err)
	}
	if style.Width <= 0 || style.Height <= 0 {
		style = DefaultStyle()
	}

	dc := gg.NewContext(style.Width, style.Height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	w, h := float64(style.Width), float64(style.Height)
	left, right := style.Padding+8, w-style.Padding/2
	top, bottom := style.Padding, h-style.Padding/2-12

	dc.SetFontFace(face(bold, 14))
	dc.SetRGB(0.15, 0.15, 0.2)
	dc.DrawStringAnchored(title, w/2, style.Padding/2, 0.5, 0.5)

	dc.SetFontFace(face(regular, 11))
	if s.Empty() {
		dc.SetRGB(0.5, 0.5, 0.55)
		dc.DrawStringAnchored("No data", w/2, h/2, 0.5, 0.5)
		return encode(dc)
	}

	lo, hi := bounds(s)
	y := func(v float64) float64 { return bottom - (v-lo)/(hi-lo)*(bottom-top) }
	x := func(i int) float64 {
		if s.Len() == 1 {
			return (left + right) / 2
		}
		return left + float64(i)/float64(s.Len()-1)*(right-left)
	}

	dc.SetLineWidth(1)
	for i := 0; i <= gridLines; i++ {
		v := lo + (hi-lo)*float64(i)/gridLines
		dc.SetRGB(0.9, 0.9, 0.92)
		dc.DrawLine(left, y(v), right, y(v))
		dc.Stroke()
		dc.SetRGB(0.4, 0.4, 0.45)
		dc.DrawStringAnchored(fmt.Sprintf("%.1f%%", v), left-6, y(v), 1, 0.35)
	}
	if lo < 0 && hi > 0 {
		dc.SetRGB(0.6, 0.6, 0.65)
		dc.DrawLine(left, y(0), right, y(0))
		dc.Stroke()
	}

	dc.SetDash(6, 4)
	drawLine(dc, s.Target, x, y, style.TargetRGB, 1.5)
	dc.SetDash()
	drawLine(dc, s.Actual, x, y, style.ActualRGB, 2.5)

	if n := s.Len(); n > 0 {
		dc.SetRGB(0.4, 0.4, 0.45)
		dc.DrawStringAnchored(s.Labels[0], left, bottom+14, 0, 0.5)
		if n > 1 {
			dc.DrawStringAnchored(s.Labels[n-1], right, bottom+14, 1, 0.5)
		}
	}

	legend(dc, right-170, top-8, style)
	return encode(dc)
}

func drawLine(dc *gg.Context, values []float64, x func(int) float64, y func(float64) float64, rgb [3]float64, width float64) {
	dc.SetRGB(rgb[0], rgb[1], rgb[2])
	dc.SetLineWidth(width)
	for i, v := range values {
		if i == 0 {
			dc.MoveTo(x(i), y(v))
			continue
		}
		dc.LineTo(x(i), y(v))
	}
	dc.Stroke()
	if len(values) == 1 {
		dc.DrawCircle(x(0), y(values[0]), width+1)
		dc.Fill()
	}
}

func legend(dc *gg.Context, lx, ly float64, style Style) {
	for i, item := range []struct {
		label string
		rgb   [3]float64
	}{{"Actual", style.ActualRGB}, {"Target", style.TargetRGB}} {
		x := lx + float64(i)*85
		dc.SetRGB(item.rgb[0], item.rgb[1], item.rgb[2])
		dc.DrawRectangle(x, ly-4, 14, 8)
		dc.Fill()
		dc.SetRGB(0.3, 0.3, 0.35)
		dc.DrawStringAnchored(item.label, x+20, ly, 0, 0.35)
	}
}

// bounds returns a y range covering both lines and zero, padded by a tenth.
func bounds(s analytics.Series) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, vs := range [][]float64{s.Actual, s.Target} {
		for _, v := range vs {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if hi-lo < 1 {
		hi = lo + 1
	}
	pad := (hi - lo) / 10
	return lo - pad, hi + pad
}

func encode(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

// Key fingerprints a chart so identical series can share one rendering.
func Key(s analytics.Series, title string) string {
	h := fnv.New64a()
	h.Write([]byte(title))
	var buf [8]byte
	for i := range s.Actual {
		if i < len(s.Labels) {
			h.Write([]byte(s.Labels[i]))
		}
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(s.Actual[i]))
		h.Write(buf[:])
		if i < len(s.Target) {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(s.Target[i]))
			h.Write(buf[:])
		}
	}
	return fmt.Sprintf("%x:%d", h.Sum64(), len(s.Actual))
}
