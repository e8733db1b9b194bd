package report

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/user/cbl_analyzer_go/internal/analysis"
)

const (
	inchToMm               = 25.4
	pdfPageWidthLandscape  = 11 * inchToMm // Letter landscape
	pdfPageHeightLandscape = 8.5 * inchToMm
	pdfMargin              = 0.5 * inchToMm
	pdfContentWidth        = pdfPageWidthLandscape - (2 * pdfMargin)
)

// Image keys understood by BuildPDFReport.
const (
	ImageVarianceMap = "variance_map"
	ImageCBLLines    = "cbl_lines"
)

// ReportMeta describes the run for the PDF cover page.
type ReportMeta struct {
	Title     string
	Source    string
	Variable  string
	Units     string
	Generated time.Time
	Warnings  []string
}

// pdfStyler holds reusable styling and state for PDF generation
type pdfStyler struct {
	pdf         *gofpdf.Fpdf
	tr          func(string) string // UTF-8 to the core fonts' cp1252
	styles      map[string]func()
	lineHeight  float64
	currentY    float64 // tracked by hand for flowing content
	pageHeight  float64
	contentTopY float64
}

func newPDFStyler(pdf *gofpdf.Fpdf) *pdfStyler {
	s := &pdfStyler{
		pdf:         pdf,
		tr:          pdf.UnicodeTranslatorFromDescriptor(""),
		styles:      make(map[string]func()),
		lineHeight:  6,
		pageHeight:  pdfPageHeightLandscape - pdfMargin,
		contentTopY: pdfMargin,
	}
	s.currentY = s.contentTopY
	s.defineStyles()
	return s
}

func (s *pdfStyler) defineStyles() {
	s.styles["h1"] = func() {
		s.pdf.SetFont("Arial", "B", 16)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["h2"] = func() {
		s.pdf.SetFont("Arial", "B", 14)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["normal"] = func() {
		s.pdf.SetFont("Arial", "", 10)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["warning"] = func() {
		s.pdf.SetFont("Arial", "I", 9)
		s.pdf.SetTextColor(160, 80, 0)
	}
	s.styles["tableHeader"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetFillColor(200, 200, 200)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableCell"] = func() {
		s.pdf.SetFont("Arial", "", 9)
		s.pdf.SetTextColor(50, 50, 50)
	}
}

func (s *pdfStyler) applyStyle(styleName string) {
	if fn, ok := s.styles[styleName]; ok {
		fn()
	} else {
		s.styles["normal"]()
	}
}

func (s *pdfStyler) newPage() {
	s.pdf.AddPage()
	s.currentY = s.contentTopY
}

func (s *pdfStyler) checkAddPage(neededHeight float64) {
	if s.currentY+neededHeight > s.pageHeight {
		s.newPage()
	}
}

func (s *pdfStyler) writeParagraph(text string, styleName string, align string) {
	s.applyStyle(styleName)
	text = s.tr(text)
	// SplitText decodes runes, so the cp1252 bytes are split with SplitLines
	lines := s.pdf.SplitLines([]byte(text), pdfContentWidth)
	s.checkAddPage(float64(len(lines)) * s.lineHeight)

	s.pdf.SetXY(pdfMargin, s.currentY)
	s.pdf.MultiCell(pdfContentWidth, s.lineHeight, text, "", align, false)
	s.currentY = s.pdf.GetY() + 1
}

func (s *pdfStyler) addSpacer(height float64) {
	s.checkAddPage(height)
	s.currentY += height
}

func (s *pdfStyler) addImage(imageBytes []byte, imageName string, width, height float64, caption string) {
	s.pdf.RegisterImageReader(imageName, "PNG", bytes.NewReader(imageBytes))
	if width > pdfContentWidth {
		height *= pdfContentWidth / width
		width = pdfContentWidth
	}

	captionHeight := 0.0
	if caption != "" {
		captionHeight = s.lineHeight + 1
	}
	s.checkAddPage(height + captionHeight)

	x := pdfMargin + (pdfContentWidth-width)/2
	s.pdf.Image(imageName, x, s.currentY, width, height, false, "PNG", 0, "")
	s.currentY += height

	if caption != "" {
		s.addSpacer(1)
		s.writeParagraph(caption, "normal", "C")
	}
	s.addSpacer(2)
}

// writeTable draws a bordered table with relative column widths, repeating
// the header row after each page break.
func (s *pdfStyler) writeTable(headers []string, widthsRel []float64, rows [][]string) {
	widths := make([]float64, len(widthsRel))
	for i, rel := range widthsRel {
		widths[i] = rel * pdfContentWidth
	}
	header := func() {
		s.applyStyle("tableHeader")
		x := pdfMargin
		for i, h := range headers {
			s.pdf.SetXY(x, s.currentY)
			s.pdf.CellFormat(widths[i], s.lineHeight, s.tr(h), "1", 0, "C", true, 0, "")
			x += widths[i]
		}
		s.currentY += s.lineHeight
	}

	s.checkAddPage(2 * s.lineHeight)
	header()
	for _, row := range rows {
		if s.currentY+s.lineHeight > s.pageHeight {
			s.newPage()
			header()
		}
		s.applyStyle("tableCell")
		x := pdfMargin
		for i, cell := range row {
			s.pdf.SetXY(x, s.currentY)
			s.pdf.CellFormat(widths[i], s.lineHeight, s.tr(cell), "1", 0, "C", false, 0, "")
			x += widths[i]
		}
		s.currentY += s.lineHeight
	}
}

func formatLat(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", v)
}

// BuildPDFReport writes a landscape Letter report with the run parameters,
// the per-year zonal-mean CBL and the figures in images.
func BuildPDFReport(filepath string, res *analysis.Result, meta ReportMeta, images map[string][]byte) error {
	if res == nil {
		return fmt.Errorf("no analysis results to report")
	}

	pdf := gofpdf.New("L", "mm", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle(meta.Title, true)
	pdf.SetCreator("cbl_analyzer", true)
	pdf.AddPage()

	styler := newPDFStyler(pdf)
	title := meta.Title
	if title == "" {
		title = "Central Blocking Latitude"
	}
	styler.writeParagraph(title, "h1", "C")
	styler.addSpacer(3)
	if !meta.Generated.IsZero() {
		styler.writeParagraph("Generated "+meta.Generated.Format("2006-01-02 15:04 MST"), "normal", "C")
	}
	styler.addSpacer(5)

	styler.writeParagraph("Run Parameters", "h2", "L")
	variable := meta.Variable
	if meta.Units != "" {
		variable = fmt.Sprintf("%s (%s)", meta.Variable, meta.Units)
	}
	years := "none"
	if len(res.Years) > 0 {
		years = fmt.Sprintf("%d to %d (%d seasons)", res.Years[0], res.Years[len(res.Years)-1], len(res.Years))
	}
	latSpan := "none"
	if len(res.Lat) > 0 {
		latSpan = fmt.Sprintf("%g°N to %g°N (%d latitudes)", res.Lat[0], res.Lat[len(res.Lat)-1], len(res.Lat))
	}
	params := [][]string{
		{"Input", meta.Source},
		{"Variable", variable},
		{"Years", years},
		{"Days per season", fmt.Sprintf("%d", res.NumDays)},
		{"Latitudes", latSpan},
		{"Longitudes", fmt.Sprintf("%d", len(res.Lon))},
		{"High-pass window", fmt.Sprintf("%d days (half-window %d)", 2*res.Params.HighPassHalfWindow+1, res.Params.HighPassHalfWindow)},
		{"Longitude smoother", fmt.Sprintf("%d points (half-window %d)", 2*res.Params.SmoothHalfWindow+1, res.Params.SmoothHalfWindow)},
	}
	styler.writeTable([]string{"Parameter", "Value"}, []float64{0.3, 0.7}, params)
	styler.addSpacer(5)

	if len(meta.Warnings) > 0 {
		styler.writeParagraph("Input Warnings", "h2", "L")
		for _, w := range meta.Warnings {
			styler.writeParagraph(w, "warning", "L")
		}
		styler.addSpacer(5)
	}

	styler.newPage()
	styler.writeParagraph("Zonal-Mean Central Blocking Latitude", "h2", "L")
	zonal := res.ZonalMean()
	rows := make([][]string, len(zonal))
	for y, v := range zonal {
		missing := 0
		for _, c := range res.Smoothed.Row(y) {
			if math.IsNaN(c) {
				missing++
			}
		}
		rows[y] = []string{fmt.Sprintf("%d", res.Years[y]), formatLat(v), fmt.Sprintf("%d", missing)}
	}
	styler.writeTable([]string{"Year", "Zonal-mean CBL (°N)", "Longitudes without data"}, []float64{0.2, 0.4, 0.4}, rows)

	plotDefs := []struct {
		Key     string
		Title   string
		Caption string
		Aspect  float64
	}{
		{ImageVarianceMap, "Weighted Variance and Blocking Latitude", "Time-mean weighted standard deviation of the high-pass field with the climatological CBL (±1 inter-annual std dashed)", float64(mapHeight) / float64(mapWidth)},
		{ImageCBLLines, "Smoothed CBL by Year", "Smoothed central blocking latitude per season; climatology in bold", 0.5},
	}
	for _, pDef := range plotDefs {
		styler.newPage()
		styler.writeParagraph(pDef.Title, "h2", "L")
		imgBytes, ok := images[pDef.Key]
		if !ok || len(imgBytes) == 0 {
			styler.writeParagraph(fmt.Sprintf("Plot for %s not available.", strings.ToLower(pDef.Title)), "normal", "L")
			continue
		}
		width := pdfContentWidth * 0.85
		height := width * pDef.Aspect
		if maxH := styler.pageHeight - styler.currentY - 2*styler.lineHeight; height > maxH {
			width *= maxH / height
			height = maxH
		}
		styler.addImage(imgBytes, pDef.Key, width, height, pDef.Caption)
	}

	return pdf.OutputFileAndClose(filepath)
}
