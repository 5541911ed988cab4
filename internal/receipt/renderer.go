package receipt

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/matsalen/desafio-procion/internal/domain"
)

// ErrRender marks a failure to produce the receipt document. The order itself is already saved.
var ErrRender = errors.New("receipt render failed")

const (
	rowHeight     = 8.0
	bottomReserve = 30.0
	dateLayout    = "02/01/2006 15:04"
)

var columns = []struct {
	title string
	width float64
	align string
}{
	{"Product", 90, "L"},
	{"Qty", 20, "C"},
	{"Unit price", 35, "R"},
	{"Subtotal", 35, "R"},
}

// Renderer turns a hydrated order into a PDF receipt and an email draft.
type Renderer struct {
	StoreName           string
	Currency            string
	CustomerPlaceholder string
	ProductPlaceholder  string
}

func NewRenderer(storeName, currency string) *Renderer {
	return &Renderer{
		StoreName:           storeName,
		Currency:            currency,
		CustomerPlaceholder: "Customer",
		ProductPlaceholder:  "Product",
	}
}

// FileName is the download name of an order's receipt.
func FileName(o *domain.Order) string {
	return fmt.Sprintf("order_%d.pdf", o.ID)
}

// Render writes the PDF receipt for o to w. Missing customer or product
// data falls back to placeholders instead of failing.
func (r *Renderer) Render(w io.Writer, o *domain.Order) error {
	if o == nil {
		return fmt.Errorf("%w: nil order", ErrRender)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(fmt.Sprintf("%s - order #%d", r.StoreName, o.ID)), false)
	pdf.SetCreator(r.StoreName, false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	r.header(pdf, tr, o)
	tableHeader(pdf)

	_, pageH := pdf.GetPageSize()
	for _, l := range o.Lines {
		if pdf.GetY()+rowHeight > pageH-bottomReserve {
			pdf.AddPage()
			tableHeader(pdf)
		}
		pdf.SetFont("Helvetica", "", 10)
		cells := []string{
			tr(truncate(l.ProductName(r.ProductPlaceholder), 48)),
			fmt.Sprintf("%d", l.Quantity),
			r.money(l.UnitPrice.StringFixed(2)),
			r.money(domain.LineSubtotal(l.Quantity, l.UnitPrice).StringFixed(2)),
		}
		for i, col := range columns {
			pdf.CellFormat(col.width, rowHeight, cells[i], "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if pdf.GetY()+2*rowHeight > pageH-bottomReserve {
		pdf.AddPage()
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	labelWidth := columns[0].width + columns[1].width + columns[2].width
	pdf.CellFormat(labelWidth, rowHeight, "Total", "", 0, "R", false, 0, "")
	pdf.CellFormat(columns[3].width, rowHeight, r.money(o.Total.StringFixed(2)), "", 1, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	return nil
}

// Bytes renders the receipt into memory.
func (r *Renderer) Bytes(o *domain.Order) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) header(pdf *fpdf.Fpdf, tr func(string) string, o *domain.Order) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(r.StoreName+" - Receipt"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 11)
	info := []string{
		fmt.Sprintf("Order: #%d", o.ID),
		"Customer: " + o.CustomerName(r.CustomerPlaceholder),
		"Date: " + o.CreatedAt.Format(dateLayout),
		"Payment: " + o.PaymentMethod,
	}
	for _, line := range info {
		pdf.CellFormat(0, 7, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func tableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range columns {
		pdf.CellFormat(col.width, rowHeight, col.title, "1", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)
}

func (r *Renderer) money(amount string) string {
	if r.Currency == "" {
		return amount
	}
	return r.Currency + " " + amount
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
