package pdfsvc

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	"github.com/projetodesenvolve/orcamento/core"
	"github.com/projetodesenvolve/orcamento/core/budget"
	"github.com/projetodesenvolve/orcamento/core/proposal"
)

const (
	fontFamily = "Helvetica"
	margin     = 20.0
	lineHeight = 8.0
	pageWidth  = 210.0 // A4
	bodyWidth  = pageWidth - 2*margin
)

var (
	brandColor = [3]int{0x1f, 0x3a, 0x8a}
	mutedColor = [3]int{0x6b, 0x72, 0x80}
	fillColor  = [3]int{0xee, 0xf2, 0xff}

	eventLabels = map[string]string{
		budget.EventEntryFee:    "Taxa de adesão (10%)",
		budget.EventDeliveryFee: "Taxa de entrega (10%)",
		budget.EventInstallment: "Parcela %d/%d",
	}
)

type renderer struct {
	title  string
	issuer string
}

var _ proposal.Renderer = (*renderer)(nil)

func NewRenderer(conf *core.Config) proposal.Renderer {
	return &renderer{
		title:  "Proposta Institucional - Projeto Desenvolve",
		issuer: conf.Mail.SenderName,
	}
}

// document wraps fpdf with the UTF-8 to cp1252 translation the core fonts need.
type document struct {
	*fpdf.Fpdf
	tr func(string) string
}

func (d *document) color(rgb [3]int) {
	d.SetTextColor(rgb[0], rgb[1], rgb[2])
}

func (d *document) text(w float64, txt string, align string, fill bool) {
	d.CellFormat(w, lineHeight, d.tr(txt), "", 0, align, fill, 0, "")
}

func (d *document) line(txt string, size float64, style string) {
	d.SetFont(fontFamily, style, size)
	d.text(bodyWidth, txt, "L", false)
	d.Ln(lineHeight)
}

func (r *renderer) Render(ctx context.Context, p proposal.Proposal) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	doc := &document{Fpdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	// fixed dates and catalog order keep the output reproducible
	pdf.SetCreationDate(p.IssuedAt)
	pdf.SetModificationDate(p.IssuedAt)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(r.title, true)
	pdf.SetAuthor(r.issuer, true)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(fontFamily, "I", 8)
		doc.color(mutedColor)
		doc.text(0, fmt.Sprintf("Página %d/{nb}", pdf.PageNo()), "C", false)
	})

	r.cover(doc, p)
	r.budget(doc, p)
	r.ledger(doc, p)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "writing pdf")
	}
	return buf.Bytes(), nil
}

func (r *renderer) cover(doc *document, p proposal.Proposal) {
	doc.AddPage()
	doc.SetY(90)
	doc.color(brandColor)
	doc.SetFont(fontFamily, "B", 24)
	doc.text(0, "Proposta Institucional", "C", false)
	doc.Ln(12)
	doc.SetFont(fontFamily, "", 16)
	doc.text(0, "Projeto Desenvolve", "C", false)
	doc.Ln(30)

	doc.color(mutedColor)
	doc.SetFont(fontFamily, "", 11)
	doc.text(0, "Emitida em "+budget.DateOf(p.IssuedAt).Format(), "C", false)
	doc.Ln(lineHeight)
	doc.text(0, fmt.Sprintf("Alunos: %d", p.Students), "C", false)
	doc.Ln(lineHeight)
	doc.text(0, "Data de assinatura: "+p.SigningDate.Format(), "C", false)
}

func (r *renderer) budget(doc *document, p proposal.Proposal) {
	s := p.Schedule
	doc.AddPage()
	doc.color(brandColor)
	doc.line("Simulação financeira", 18, "B")
	doc.Ln(4)

	doc.color([3]int{0, 0, 0})
	doc.line(fmt.Sprintf("Valor por aluno: %s", budget.FormatCurrency(p.UnitCost)), 11, "")
	doc.line(fmt.Sprintf("Quantidade de alunos: %d", p.Students), 11, "")
	doc.Ln(4)

	if s.IsEmpty() {
		doc.line("Informe a quantidade de alunos para calcular o investimento.", 11, "I")
		return
	}

	for _, l := range s.Lines()[:3] {
		doc.line(l, 12, "")
	}
	doc.Ln(6)

	// yearly distribution box
	doc.SetFillColor(fillColor[0], fillColor[1], fillColor[2])
	doc.color(brandColor)
	doc.SetFont(fontFamily, "B", 12)
	doc.text(bodyWidth, "Distribuição por ano", "L", true)
	doc.Ln(lineHeight)
	doc.color([3]int{0, 0, 0})
	doc.SetFont(fontFamily, "", 11)
	for _, b := range s.YearlyBuckets {
		doc.text(bodyWidth, fmt.Sprintf("Total em %d (%d meses): %s", b.Year, b.MonthsCount, budget.FormatCurrency(b.TotalAmount)), "L", true)
		doc.Ln(lineHeight)
	}
	doc.Ln(6)

	doc.color(brandColor)
	doc.line("Investimento total: "+budget.FormatCurrency(s.TotalCost), 14, "B")
}

func (r *renderer) ledger(doc *document, p proposal.Proposal) {
	s := p.Schedule
	if s.IsEmpty() {
		return
	}

	doc.AddPage()
	doc.color(brandColor)
	doc.line("Cronograma de pagamentos", 18, "B")
	doc.Ln(4)

	cols := []float64{bodyWidth * 0.5, bodyWidth * 0.2, bodyWidth * 0.3}
	header := func() {
		doc.SetFillColor(brandColor[0], brandColor[1], brandColor[2])
		doc.SetTextColor(255, 255, 255)
		doc.SetFont(fontFamily, "B", 10)
		doc.text(cols[0], "Descrição", "L", true)
		doc.text(cols[1], "Vencimento", "C", true)
		doc.text(cols[2], "Valor", "R", true)
		doc.Ln(lineHeight)
		doc.SetTextColor(0, 0, 0)
		doc.SetFont(fontFamily, "", 10)
	}
	header()

	_, pageHeight := doc.GetPageSize()
	for i, ev := range s.Events {
		if doc.GetY()+lineHeight > pageHeight-margin-10 {
			doc.AddPage()
			header()
		}
		label := eventLabels[ev.Kind]
		if ev.Kind == budget.EventInstallment {
			label = fmt.Sprintf(label, ev.Number, s.InstallmentCount)
		}
		fill := i%2 == 1
		doc.SetFillColor(fillColor[0], fillColor[1], fillColor[2])
		doc.text(cols[0], label, "L", fill)
		doc.text(cols[1], ev.DueDate.Format(), "C", fill)
		doc.text(cols[2], budget.FormatCurrency(ev.Amount), "R", fill)
		doc.Ln(lineHeight)
	}
}
