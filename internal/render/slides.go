package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/jackzampolin/lessonkit/internal/failure"
	"github.com/jackzampolin/lessonkit/internal/home"
	"github.com/jackzampolin/lessonkit/internal/parse"
)

// Slide geometry in pixels.
const (
	slideWidth   = 1280
	slideHeight  = 720
	slideMargin  = 72
	titleBand    = 150
	titleSize    = 44
	dividerSize  = 72
	lineSpacing  = 1.4
	minBodySize  = 16
	maxBodySize  = 30
	bodySizeStep = 2
)

// Titles rendered as section dividers even when they carry content.
var dividerTitles = map[string]bool{"i do": true, "we do": true, "you do": true}

var (
	fontsOnce           sync.Once
	regularTTF, boldTTF *truetype.Font
	fontsErr            error
)

func loadFonts() error {
	fontsOnce.Do(func() {
		if regularTTF, fontsErr = truetype.Parse(goregular.TTF); fontsErr != nil {
			return
		}
		boldTTF, fontsErr = truetype.Parse(gobold.TTF)
	})
	return fontsErr
}

func face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
}

// SlideDeck renders slides to PNG pages and assembles them into a PDF.
func (r *Renderer) SlideDeck(slides []parse.Record) (string, error) {
	if len(slides) == 0 {
		return "", failure.Render("slides", fmt.Errorf("%w: no slides", ErrNoData))
	}
	if err := loadFonts(); err != nil {
		return "", failure.Render("slides", fmt.Errorf("load fonts: %w", err))
	}

	tmp, err := os.MkdirTemp("", "lessonkit-slides-")
	if err != nil {
		return "", failure.Render("slides", err)
	}
	defer os.RemoveAll(tmp)

	pages := make([]string, 0, len(slides))
	for i, s := range slides {
		page := filepath.Join(tmp, fmt.Sprintf("slide_%03d.png", i+1))
		if err := drawSlide(s).SavePNG(page); err != nil {
			return "", failure.Render("slides", fmt.Errorf("slide %d: %w", i+1, err))
		}
		pages = append(pages, page)
	}

	path := r.outputPath(home.SlidesDir, "lesson_slides", "pdf")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", failure.Render("slides", err)
	}
	if err := api.ImportImagesFile(pages, path, pdfcpu.DefaultImportConfig(), nil); err != nil {
		return "", failure.Render("slides", fmt.Errorf("assemble pdf: %w", err))
	}

	r.logger().Info("slide deck written", "path", path, "slides", len(slides))
	return path, nil
}

// IsDivider reports whether s renders as a centered section divider.
func IsDivider(s parse.Record) bool {
	return s.TitleOnly() || dividerTitles[strings.ToLower(strings.TrimSpace(s.Title))]
}

func drawSlide(s parse.Record) *gg.Context {
	dc := gg.NewContext(slideWidth, slideHeight)
	dc.SetHexColor("#FFFFFF")
	dc.Clear()

	if IsDivider(s) {
		dc.SetHexColor("#0066CC")
		dc.DrawRectangle(0, 0, slideWidth, slideHeight)
		dc.Fill()
		dc.SetHexColor("#FFFFFF")
		dc.SetFontFace(face(boldTTF, dividerSize))
		dc.DrawStringWrapped(s.Title, slideWidth/2, slideHeight/2, 0.5, 0.5, slideWidth-2*slideMargin, lineSpacing, gg.AlignCenter)
		return dc
	}

	dc.SetHexColor("#0066CC")
	dc.DrawRectangle(0, 0, slideWidth, titleBand)
	dc.Fill()
	dc.SetHexColor("#FFFFFF")
	dc.SetFontFace(face(boldTTF, titleSize))
	dc.DrawStringWrapped(s.Title, slideMargin, titleBand/2, 0, 0.5, slideWidth-2*slideMargin, 1.1, gg.AlignLeft)

	body := strings.Join(nonEmptyLines(s.Content), "\n")
	width := float64(slideWidth - 2*slideMargin)
	height := float64(slideHeight - titleBand - 2*slideMargin)

	dc.SetHexColor("#222222")
	size := fitBodySize(dc, body, width, height)
	dc.SetFontFace(face(regularTTF, size))
	dc.DrawStringWrapped(body, slideMargin, titleBand+slideMargin, 0, 0, width, lineSpacing, gg.AlignLeft)
	return dc
}

// fitBodySize returns the largest body font size whose wrapped text fits the
// given box, bottoming out at minBodySize.
func fitBodySize(dc *gg.Context, body string, width, height float64) float64 {
	for size := float64(maxBodySize); size > minBodySize; size -= bodySizeStep {
		dc.SetFontFace(face(regularTTF, size))
		lines := 0
		for _, para := range strings.Split(body, "\n") {
			lines += max(1, len(dc.WordWrap(para, width)))
		}
		if float64(lines)*size*lineSpacing <= height {
			return size
		}
	}
	return minBodySize
}
