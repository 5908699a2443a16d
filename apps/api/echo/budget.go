package echoapi

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/projetodesenvolve/orcamento/core"
	"github.com/projetodesenvolve/orcamento/core/budget"
	"github.com/projetodesenvolve/orcamento/core/proposal"
	"github.com/projetodesenvolve/orcamento/core/recipient"
)

const pdfDataURLPrefix = "data:application/pdf;base64,"

var (
	errMissingDocument = errors.New("pdf_base64 or signing_date is required")
	errInvalidDocument = errors.New("not a base64 encoded PDF document")
)

type budgetApi struct {
	svc        proposal.Service
	recipients recipient.Service
	validate   *validator.Validate
}

func registerBudgetAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc proposal.Service,
	recipients recipient.Service,
	validate *validator.Validate,
) {
	api := budgetApi{
		svc:        svc,
		recipients: recipients,
		validate:   validate,
	}

	ag := g.Group("", jwt)
	ag.GET("/budget", api.quote)
	ag.GET("/budget/pdf", api.pdf)
	ag.POST("/send-budget", api.send)
}

// Handlers

func (api *budgetApi) quote(ctx echo.Context) error {
	req, err := api.bindQuoteRequest(ctx)
	if err != nil {
		return err
	}

	in, sched, err := api.svc.Quote(req)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, NewQuoteResponse(in, sched))
}

func (api *budgetApi) pdf(ctx echo.Context) error {
	req, err := api.bindQuoteRequest(ctx)
	if err != nil {
		return err
	}

	_, doc, err := api.svc.Generate(ctx.Request().Context(), req)
	if err != nil {
		return err
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", proposal.AttachmentName))
	return ctx.Blob(http.StatusOK, proposal.AttachmentMimeType, doc)
}

func (api *budgetApi) send(ctx echo.Context) error {
	var data SendBudgetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendBudgetRequest")
	}
	reqCtx := ctx.Request().Context()

	d := proposal.Dispatch{Recipients: data.Recipients}
	switch {
	case data.PDFBase64 != "":
		doc, err := decodePDF(data.PDFBase64)
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "pdf_base64", Error: err.Error()})
		}
		d.Document = doc
	case data.SigningDate != "":
		p, doc, err := api.svc.Generate(reqCtx, budget.QuoteRequest{Students: data.Students, SigningDate: data.SigningDate})
		if err != nil {
			return err
		}
		d.Document = doc
		d.Summary = p.Summary()
	default:
		return core.NewValidationError(errMissingDocument, core.FieldError{Field: "pdf_base64", Error: errMissingDocument.Error()})
	}

	// no recipients given: fall back to the preselected ones
	if d.Recipients == nil {
		emails, err := api.recipients.SelectedEmails(reqCtx)
		if err != nil {
			return errors.Wrap(err, "listing selected recipients")
		}
		d.Recipients = emails
	}

	res, err := api.svc.Dispatch(reqCtx, d)
	if err != nil {
		return err
	}
	if !res.Success {
		return ctx.JSON(http.StatusBadGateway, res)
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *budgetApi) bindQuoteRequest(ctx echo.Context) (budget.QuoteRequest, error) {
	var req budget.QuoteRequest
	if err := ctx.Bind(&req); err != nil {
		return req, errors.Wrap(err, "binding to QuoteRequest")
	}
	if err := api.validate.Struct(req); err != nil {
		return req, err
	}
	return req, nil
}

// decodePDF accepts a data URL or bare base64 PDF.
func decodePDF(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), pdfDataURLPrefix)
	doc, err := base64.StdEncoding.DecodeString(s)
	if err != nil || !bytes.HasPrefix(doc, []byte("%PDF")) {
		return nil, errInvalidDocument
	}
	return doc, nil
}

type (
	QuoteResponse struct {
		Students    int             `json:"students"`
		UnitCost    decimal.Decimal `json:"unit_cost"`
		SigningDate budget.Date     `json:"signing_date"`
		budget.Schedule
		Formatted FormattedSchedule `json:"formatted"`
	}

	FormattedSchedule struct {
		TotalCost      string   `json:"total_cost"`
		EntryFee       string   `json:"entry_fee"`
		DeliveryFee    string   `json:"delivery_fee"`
		MonthlyPayment string   `json:"monthly_payment"`
		Lines          []string `json:"lines"`
	}

	SendBudgetRequest struct {
		Students    string   `json:"students"`
		SigningDate string   `json:"signing_date"`
		PDFBase64   string   `json:"pdf_base64"`
		Recipients  []string `json:"recipients"`
	}
)

func NewQuoteResponse(in budget.Input, sched budget.Schedule) QuoteResponse {
	res := QuoteResponse{
		Students:    in.Students,
		UnitCost:    in.UnitCost,
		SigningDate: in.SigningDate,
		Schedule:    sched,
		Formatted:   FormattedSchedule{Lines: []string{}},
	}
	if !sched.IsEmpty() {
		res.Formatted = FormattedSchedule{
			TotalCost:      budget.FormatCurrency(sched.TotalCost),
			EntryFee:       budget.FormatCurrency(sched.EntryFee),
			DeliveryFee:    budget.FormatCurrency(sched.DeliveryFee),
			MonthlyPayment: budget.FormatCurrency(sched.MonthlyPayment),
			Lines:          sched.Lines(),
		}
	}
	return res
}
