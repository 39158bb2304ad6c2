package histogram

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// Report collects histograms and renders them as a PDF, one page per
// track, each page carrying a QR code of the histogram digest.
type Report struct {
	Title  string
	Format string
	Collector
}

// Save writes the PDF to path.
func (r *Report) Save(path string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(r.title(), false)
	pdf.SetCreator("floppy", false)
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)

	if len(r.Entries) == 0 {
		pdf.AddPage()
		addTitle(pdf, r.title())
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, "No tracks recorded.", "", "L", false)
	}
	for i, e := range r.Entries {
		pdf.AddPage()
		addTitle(pdf, r.title())
		addSummary(pdf, r.Format, e)
		addChart(pdf, e)
		if err := addDigest(pdf, i, e.Histogram); err != nil {
			return err
		}
	}

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.OutputFileAndClose(path)
}

func (r *Report) title() string {
	if r.Title == "" {
		return "Flux Timing Histogram"
	}
	return r.Title
}

func addTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)
}

func addSummary(pdf *gofpdf.Fpdf, format string, e Entry) {
	h := e.Histogram
	peak, peakN := h.Peak()
	items := []struct {
		label string
		value string
	}{
		{"Format", format},
		{"Track", strconv.Itoa(h.Track)},
		{"Counters", strconv.Itoa(h.Total)},
		{"Peak", fmt.Sprintf("0x%02x (%d)", peak, peakN)},
		{"Outside bounds", strconv.Itoa(h.Outside(e.Bounds))},
	}
	pdf.SetFont("Helvetica", "", 11)
	for _, item := range items {
		pdf.CellFormat(40, 6, item.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, item.value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	headers := []string{"Entry", "Read low", "Read high", "Write", "Count"}
	widths := []float64{20, 30, 30, 30, 20}
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 10)
	for i, hd := range headers {
		pdf.CellFormat(widths[i], 7, hd, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for i, b := range e.Bounds {
		values := []string{
			strconv.Itoa(i),
			fmt.Sprintf("0x%04x", b.ReadLow),
			fmt.Sprintf("0x%04x", b.ReadHigh),
			fmt.Sprintf("0x%04x", b.Write),
			strconv.Itoa(int(b.Count)),
		}
		for j, v := range values {
			pdf.CellFormat(widths[j], 6, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(6)
}

// addChart draws one bar per counter value; bounds ranges are shaded.
func addChart(pdf *gofpdf.Fpdf, e Entry) {
	const (
		chartW = 180.0
		chartH = 80.0
	)
	x0, y0 := pdf.GetX(), pdf.GetY()
	barW := chartW / Bins

	pdf.SetFillColor(225, 235, 250)
	for _, b := range e.Bounds {
		lo, hi := b.Low(), min(b.High(), Bins-1)
		pdf.Rect(x0+float64(lo)*barW, y0, float64(hi-lo+1)*barW, chartH, "F")
	}

	top := e.Histogram.Max()
	pdf.SetFillColor(40, 70, 140)
	if top > 0 {
		for c, n := range e.Histogram.Counts {
			if n == 0 {
				continue
			}
			h := chartH * float64(n) / float64(top)
			pdf.Rect(x0+float64(c)*barW, y0+chartH-h, barW, h, "F")
		}
	}
	pdf.SetDrawColor(0, 0, 0)
	pdf.Rect(x0, y0, chartW, chartH, "D")

	pdf.SetFont("Helvetica", "", 8)
	for c := 0; c < Bins; c += 16 {
		pdf.Text(x0+float64(c)*barW, y0+chartH+4, fmt.Sprintf("0x%02x", c))
	}
	pdf.SetXY(x0, y0+chartH+8)
}

func addDigest(pdf *gofpdf.Fpdf, page int, h *Histogram) error {
	digest := h.Digest()
	png, err := qrcode.Encode(digest, qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("histogram: qr code: %w", err)
	}
	name := fmt.Sprintf("digest-%d", page)
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))

	x, y := pdf.GetX(), pdf.GetY()
	pdf.ImageOptions(name, x, y, 30, 30, false, opts, 0, "")
	pdf.SetXY(x+34, y+12)
	pdf.SetFont("Courier", "", 8)
	pdf.Cell(0, 5, digest)
	return nil
}

var _ Sink = (*Report)(nil)
