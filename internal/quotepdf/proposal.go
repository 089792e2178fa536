package quotepdf

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"quote-engine/internal/ageband"
	"quote-engine/internal/model"
)

const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight
)

// Proposal is everything printed on a quote proposal.
type Proposal struct {
	Draft       model.Draft
	Quote       model.QuotePayload
	Summary     model.Summary
	GeneratedAt time.Time
}

type report struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
	p   Proposal
}

// Render lays the proposal out on A4 pages and returns the PDF bytes.
func Render(p Proposal) ([]byte, error) {
	r := &report{pdf: fpdf.New("P", "mm", "A4", ""), p: p}
	r.tr = r.pdf.UnicodeTranslatorFromDescriptor("")

	r.pdf.SetMargins(marginLeft, marginTop, marginRight)
	r.pdf.SetAutoPageBreak(true, marginBottom)
	r.pdf.SetTitle("Quote proposal "+p.Draft.ID, true)
	r.pdf.SetCreationDate(p.GeneratedAt)

	r.pdf.AddPage()
	r.addHeader()
	r.addLives()
	r.addProducts()
	r.addFooter()

	var buf bytes.Buffer
	if err := r.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *report) addHeader() {
	r.pdf.SetFont("Arial", "B", 20)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 12, r.tr(quoteTitle(r.p.Summary.QuoteType)), "", 1, "L", false, 0, "")

	r.pdf.SetFont("Arial", "", 10)
	r.pdf.SetTextColor(80, 80, 80)
	rows := [][2]string{
		{"Quote", r.p.Draft.ID},
		{"Date", r.p.GeneratedAt.Format("02/01/2006")},
		{"Client type", clientTypeLabel(r.p.Quote.ClientType)},
		{"Location", fmt.Sprintf("state %d, city %d", r.p.Quote.StateID, r.p.Quote.CityID)},
		{"Budget", fmt.Sprintf("%s to %s", money(decimal.NewFromInt(int64(r.p.Quote.MinPrice))),
			money(decimal.NewFromInt(int64(r.p.Quote.MaxPrice))))},
	}
	if r.p.Quote.Client != "" {
		rows = append(rows, [2]string{"Client", r.p.Quote.Client})
	}
	for _, row := range rows {
		r.pdf.SetFont("Arial", "B", 10)
		r.pdf.CellFormat(35, 6, r.tr(row[0]), "", 0, "L", false, 0, "")
		r.pdf.SetFont("Arial", "", 10)
		r.pdf.CellFormat(contentWidth-35, 6, r.tr(row[1]), "", 1, "L", false, 0, "")
	}
	r.pdf.Ln(4)
}

func (r *report) addLives() {
	r.drawSectionHeader(fmt.Sprintf("Lives (%d)", r.p.Summary.Lives))

	widths := []float64{60, 30}
	r.drawTableHeader([]string{"Age band", "Lives"}, widths)

	keys := make([]string, 0, len(r.p.Quote.Ages))
	for k := range r.p.Quote.Ages {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return bandOrder(keys[i]) < bandOrder(keys[j]) })
	for _, k := range keys {
		r.drawTableRow([]string{k, strconv.Itoa(r.p.Quote.Ages[k])}, widths, false)
	}
	r.pdf.Ln(6)
}

func (r *report) addProducts() {
	r.drawSectionHeader("Products")

	widths := []float64{45, 45, 50, 40}
	price := "Price"
	if r.p.Summary.ApplyDiscount {
		price = "Price with discount"
	}
	r.drawTableHeader([]string{"Plan", "Table", "Product", price}, widths)

	for _, line := range r.p.Summary.Lines {
		amount := line.Price
		if r.p.Summary.ApplyDiscount {
			amount = line.DiscountedPrice
		}
		r.drawTableRow([]string{
			truncate(line.PlanName, 28),
			truncate(line.TableName, 28),
			truncate(line.ProductName, 32),
			money(amount),
		}, widths, false)
	}

	total := r.p.Summary.Total
	if r.p.Summary.ApplyDiscount {
		total = r.p.Summary.DiscountedTotal
	}
	r.drawTableRow([]string{"Total", "", "", money(total)}, widths, true)
	r.pdf.Ln(6)
}

func (r *report) addFooter() {
	r.pdf.SetFont("Arial", "I", 8)
	r.pdf.SetTextColor(120, 120, 120)
	r.pdf.MultiCell(contentWidth, 4, r.tr("Monthly prices per the operator's tables at the time of the quote. "+
		"Final prices are confirmed when the proposal is submitted."), "", "L", false)
}

func (r *report) drawSectionHeader(title string) {
	r.pdf.SetFont("Arial", "B", 14)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 9, r.tr(title), "", 1, "L", false, 0, "")
	r.pdf.SetDrawColor(0, 51, 102)
	r.pdf.Line(marginLeft, r.pdf.GetY(), marginLeft+contentWidth, r.pdf.GetY())
	r.pdf.Ln(3)
}

func (r *report) drawTableHeader(headers []string, widths []float64) {
	r.pdf.SetFillColor(0, 51, 102)
	r.pdf.SetTextColor(255, 255, 255)
	r.pdf.SetFont("Arial", "B", 9)

	for i, header := range headers {
		align := "L"
		if i == len(headers)-1 {
			align = "R"
		}
		r.pdf.CellFormat(widths[i], 6, r.tr(header), "1", 0, align, true, 0, "")
	}
	r.pdf.Ln(-1)
}

func (r *report) drawTableRow(cells []string, widths []float64, bold bool) {
	r.pdf.SetFillColor(250, 250, 250)
	r.pdf.SetTextColor(50, 50, 50)
	if bold {
		r.pdf.SetFont("Arial", "B", 9)
		r.pdf.SetFillColor(240, 240, 240)
	} else {
		r.pdf.SetFont("Arial", "", 9)
	}

	for i, cell := range cells {
		align := "L"
		if i == len(cells)-1 {
			align = "R"
		}
		r.pdf.CellFormat(widths[i], 5, r.tr(cell), "1", 0, align, true, 0, "")
	}
	r.pdf.Ln(-1)
}

func quoteTitle(q model.QuoteType) string {
	if q == model.QuoteDental {
		return "Dental plan proposal"
	}
	return "Health plan proposal"
}

func clientTypeLabel(code int) string {
	if code == 1 {
		return "Company"
	}
	return "Individual"
}

// money formats an amount in reais, e.g. R$ 1.234,50.
func money(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg, s = true, s[1:]
	}
	intPart, frac := s[:len(s)-3], s[len(s)-2:]

	var grouped []byte
	for i := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped = append(grouped, '.')
		}
		grouped = append(grouped, intPart[i])
	}
	out := "R$ " + string(grouped) + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}

func bandOrder(key string) int {
	if b, ok := ageband.Parse(key); ok {
		return int(b)
	}
	return ageband.Count
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
