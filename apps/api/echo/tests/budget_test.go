package tests

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/projetodesenvolve/orcamento/apps/api/echo"
	"github.com/projetodesenvolve/orcamento/core/budget"
	"github.com/projetodesenvolve/orcamento/core/proposal"
	"github.com/projetodesenvolve/orcamento/services/email"
)

func Test_budgetApi_quote(t *testing.T) {
	app := setup(t)

	t.Run("reference quote", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/budget?students=150&signing_date=2025-01-01", app.token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var res QuoteResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, 150, res.Students)
		assert.Equal(t, "2025-01-01", res.SigningDate.String())
		assert.True(t, res.TotalCost.Equal(decimal.NewFromInt(4725000)))
		assert.Len(t, res.Events, 26)
		require.Len(t, res.YearlyBuckets, 3)
		assert.Equal(t, 2025, res.YearlyBuckets[0].Year)
		assert.Equal(t, 11, res.YearlyBuckets[0].MonthsCount)
		assert.Equal(t, "R$ 4.725.000,00", res.Formatted.TotalCost)
		assert.Equal(t, "R$ 157.500,00", res.Formatted.MonthlyPayment)
		assert.Equal(t, []string{
			"10% - 30 dias: R$ 472.500,00",
			"10% - 60 dias: R$ 472.500,00",
			"24x R$ 157.500,00",
			"Total em 2025 (11 meses): R$ 2.362.500,00",
			"Total em 2026 (12 meses): R$ 1.890.000,00",
			"Total em 2027 (3 meses): R$ 472.500,00",
			"Investimento total: R$ 4.725.000,00",
		}, res.Formatted.Lines)
	})

	t.Run("students digits only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/budget?students=1a2&signing_date=2025-01-01", app.token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var res QuoteResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, 12, res.Students)
	})

	t.Run("no students", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/budget?signing_date=2025-01-01", app.token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var res QuoteResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Empty(t, res.Events)
		assert.Empty(t, res.YearlyBuckets)
		assert.Empty(t, res.Formatted.Lines)
		assert.True(t, res.TotalCost.IsZero())
	})

	tests := []httpTest{
		{
			name: "signing_date required", path: "/api/budget?students=10", token: app.token,
			wantCode: http.StatusBadRequest, wantData: []byte(`{"signing_date":"this field is required"}`),
		},
	}
	runHTTPTests(t, app, tests)

	for _, date := range []string{"2025-02-30", "01/01/2025", "nope"} {
		t.Run("invalid date "+date, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/api/budget?students=10&signing_date="+date, app.token)
			app.ServeHTTP(rec, req)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var res map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.Contains(t, res["signing_date"], "invalid date")
		})
	}
}

func Test_budgetApi_pdf(t *testing.T) {
	app := setup(t)

	req, rec := newAuthRequest(http.MethodGet, "/api/budget/pdf?students=150&signing_date=2025-01-01", app.token)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, proposal.AttachmentMimeType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), proposal.AttachmentName)
	assert.Equal(t, "%PDF-1.3 150 alunos 2025-01-01", rec.Body.String())

	req, rec = newAuthRequest(http.MethodGet, "/api/budget/pdf?students=150&signing_date=2025-13-01", app.token)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_budgetApi_send(t *testing.T) {
	doc := []byte("%PDF-1.4 proposta")
	dataURL := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(doc)

	sendBody := func(t *testing.T, data SendBudgetRequest) []byte {
		return marchallObj(t, data)
	}

	t.Run("validation", func(t *testing.T) {
		app := setup(t)
		tests := []httpTest{
			{
				name: "no document", method: http.MethodPost, path: "/api/send-budget", token: app.token,
				body:     sendBody(t, SendBudgetRequest{Recipients: []string{"ana@escola.br"}}),
				wantCode: http.StatusBadRequest, wantData: []byte(`{"pdf_base64":"pdf_base64 or signing_date is required"}`),
			},
			{
				name: "not base64", method: http.MethodPost, path: "/api/send-budget", token: app.token,
				body:     sendBody(t, SendBudgetRequest{PDFBase64: "data:application/pdf;base64,@@@", Recipients: []string{"ana@escola.br"}}),
				wantCode: http.StatusBadRequest, wantData: []byte(`{"pdf_base64":"not a base64 encoded PDF document"}`),
			},
			{
				name: "not a pdf", method: http.MethodPost, path: "/api/send-budget", token: app.token,
				body:     sendBody(t, SendBudgetRequest{PDFBase64: base64.StdEncoding.EncodeToString([]byte("hello")), Recipients: []string{"ana@escola.br"}}),
				wantCode: http.StatusBadRequest, wantData: []byte(`{"pdf_base64":"not a base64 encoded PDF document"}`),
			},
			{
				name: "no recipients", method: http.MethodPost, path: "/api/send-budget", token: app.token,
				body:     sendBody(t, SendBudgetRequest{PDFBase64: dataURL}),
				wantCode: http.StatusBadRequest, wantData: []byte(`{"recipients":"no recipients provided"}`),
			},
		}
		runHTTPTests(t, app, tests)

		_, sent := emailsvc.LastSentMessage()
		assert.False(t, sent)
	})

	tests := []struct {
		name       string
		hidden     []string
		stored     map[string]bool // email -> selected
		data       SendBudgetRequest
		wantSentTo []string
		wantHidden int
		wantTo     []string
		wantBcc    []string
		wantDoc    []byte
		wantText   string
	}{
		{
			name:       "client rendered document",
			data:       SendBudgetRequest{PDFBase64: dataURL, Recipients: []string{"ana@escola.br", "ANA@escola.br"}},
			wantSentTo: []string{"ana@escola.br"},
			wantTo:     []string{"ana@escola.br"},
			wantDoc:    doc,
		},
		{
			name:       "bare base64 document",
			data:       SendBudgetRequest{PDFBase64: base64.StdEncoding.EncodeToString(doc), Recipients: []string{"ana@escola.br"}},
			wantSentTo: []string{"ana@escola.br"},
			wantTo:     []string{"ana@escola.br"},
			wantDoc:    doc,
		},
		{
			name:       "server rendered document",
			data:       SendBudgetRequest{Students: "150", SigningDate: "2025-01-01", Recipients: []string{"ana@escola.br"}},
			wantSentTo: []string{"ana@escola.br"},
			wantTo:     []string{"ana@escola.br"},
			wantDoc:    []byte("%PDF-1.3 150 alunos 2025-01-01"),
			wantText:   "Investimento total: R$ 4.725.000,00",
		},
		{
			name:       "selected recipients by default",
			stored:     map[string]bool{"ana@escola.br": true, "bruno@escola.br": false, "carla@escola.br": true},
			data:       SendBudgetRequest{PDFBase64: dataURL},
			wantSentTo: []string{"carla@escola.br", "ana@escola.br"},
			wantTo:     []string{"carla@escola.br", "ana@escola.br"},
			wantDoc:    doc,
		},
		{
			name:       "hidden recipients merged",
			hidden:     []string{"diretoria@projetodesenvolve.com.br", "ana@escola.br"},
			data:       SendBudgetRequest{PDFBase64: dataURL, Recipients: []string{"ana@escola.br"}},
			wantSentTo: []string{"ana@escola.br"},
			wantHidden: 1,
			wantTo:     []string{"ana@escola.br"},
			wantBcc:    []string{"diretoria@projetodesenvolve.com.br"},
			wantDoc:    doc,
		},
		{
			name:       "hidden recipients only",
			hidden:     []string{"diretoria@projetodesenvolve.com.br"},
			data:       SendBudgetRequest{PDFBase64: dataURL, Recipients: []string{}},
			wantSentTo: []string{},
			wantHidden: 1,
			wantTo:     []string{"diretoria@projetodesenvolve.com.br"},
			wantDoc:    doc,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setup(t, withHiddenRecipients(tt.hidden...))
			// stored in creation order; the store lists newest first
			for _, email := range sortedKeys(tt.stored) {
				app.addRecipient(t, email, tt.stored[email])
			}

			req, rec := newAuthRequest(http.MethodPost, "/api/send-budget", app.token, sendBody(t, tt.data))
			app.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var res proposal.DispatchResult
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.True(t, res.Success)
			assert.NotEmpty(t, res.DispatchID)
			assert.Equal(t, tt.wantSentTo, res.SentTo)
			assert.Equal(t, tt.wantHidden, res.HiddenCount)

			msg, ok := emailsvc.LastSentMessage()
			require.True(t, ok)
			assert.Equal(t, tt.wantTo, addressesOf(msg.To))
			assert.Equal(t, tt.wantBcc, addressesOf(msg.Bcc))
			require.Len(t, msg.Attachments, 1)
			attached, err := msg.Attachments[0].Decoded()
			require.NoError(t, err)
			assert.Equal(t, tt.wantDoc, attached)
			if tt.wantText != "" {
				assert.Contains(t, msg.TextContent, tt.wantText)
			}
		})
	}

	t.Run("invalid signing date", func(t *testing.T) {
		app := setup(t)
		req, rec := newAuthRequest(http.MethodPost, "/api/send-budget", app.token,
			sendBody(t, SendBudgetRequest{Students: "10", SigningDate: "2025-02-29", Recipients: []string{"ana@escola.br"}}))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "signing_date")
	})

	t.Run("provider failure", func(t *testing.T) {
		app := setup(t, withMailer(emailsvc.NewConsoleServiceMock(errors.New("smtp2go: status 401"))))
		req, rec := newAuthRequest(http.MethodPost, "/api/send-budget", app.token,
			sendBody(t, SendBudgetRequest{PDFBase64: dataURL, Recipients: []string{"ana@escola.br"}}))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadGateway, rec.Code)

		var res proposal.DispatchResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.False(t, res.Success)
		assert.Equal(t, "smtp2go: status 401", res.Detail)
		assert.Equal(t, []string{"ana@escola.br"}, res.SentTo)
	})
}

func TestNewQuoteResponse_empty(t *testing.T) {
	date, err := budget.ParseDate("2025-01-01")
	require.NoError(t, err)
	in := budget.Input{UnitCost: decimal.NewFromInt(31500), SigningDate: date}
	sched, err := budget.Calculate(in)
	require.NoError(t, err)

	res := NewQuoteResponse(in, sched)
	data := string(marchallObj(t, res))
	assert.True(t, strings.Contains(data, `"lines":[]`), data)
	assert.True(t, strings.Contains(data, `"events":[]`), data)
}
