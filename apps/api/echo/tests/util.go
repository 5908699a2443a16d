package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	. "github.com/projetodesenvolve/orcamento/apps/api/echo"
	"github.com/projetodesenvolve/orcamento/core"
	"github.com/projetodesenvolve/orcamento/core/proposal"
	"github.com/projetodesenvolve/orcamento/core/recipient"
	"github.com/projetodesenvolve/orcamento/services/email"
	"github.com/projetodesenvolve/orcamento/services/logger"
	"github.com/projetodesenvolve/orcamento/storage/database/inmem"
)

const (
	operatorUser = "admin"
	operatorPass = "s3nha-forte"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

// pdfRenderer renders a tiny stand-in document.
type pdfRenderer struct{}

func (pdfRenderer) Render(_ context.Context, p proposal.Proposal) ([]byte, error) {
	return []byte(fmt.Sprintf("%%PDF-1.3 %d alunos %s", p.Students, p.SigningDate)), nil
}

type testApp struct {
	Server
	conf    *core.Config
	rcptSvc recipient.Service
	token   string
}

type (
	appSettings struct {
		conf           *core.Config
		proposal       proposal.Options
		wrapRecipients func(recipient.Service) recipient.Service
	}

	appOption func(s *appSettings)
)

func withHiddenRecipients(emails ...string) appOption {
	return func(s *appSettings) { s.proposal.HiddenRecipients = emails }
}

func withMailer(mailer core.EmailService) appOption {
	return func(s *appSettings) { s.proposal.Mailer = mailer }
}

func withLoginRate(perSecond float64, burst int) appOption {
	return func(s *appSettings) {
		s.conf.Server.LoginRate = perSecond
		s.conf.Server.LoginBurst = burst
	}
}

// withRecipientService wraps the recipient service handed to the server; the app keeps the unwrapped one.
func withRecipientService(wrap func(recipient.Service) recipient.Service) appOption {
	return func(s *appSettings) { s.wrapRecipients = wrap }
}

func newConfig() *core.Config {
	return &core.Config{
		Env:       "TEST",
		TestMode:  true,
		AppName:   "Orçamento PD",
		SecretKey: "test-secret",
		Server: core.ServerConfig{
			JWTExpirationDelta:        2 * time.Hour,
			JWTRefreshExpirationDelta: 8 * time.Hour,
			CORSOrigins:               []string{"*"},
			BodyLimit:                 "50M",
		},
		Auth:  core.AuthConfig{User: operatorUser, Password: operatorPass},
		Quote: core.QuoteConfig{UnitCost: decimal.NewFromInt(31500)},
	}
}

func setup(t *testing.T, options ...appOption) *testApp {
	conf := newConfig()
	settings := &appSettings{
		conf: conf,
		proposal: proposal.Options{
			UnitCost: conf.Quote.UnitCost,
			Renderer: pdfRenderer{},
			Mailer:   emailsvc.NewConsoleServiceMock(),
		},
	}
	for _, opt := range options {
		opt(settings)
	}
	propOpts := settings.proposal
	if err := PreparePasswordHash(&conf.Auth); err != nil {
		t.Fatalf("PreparePasswordHash() failed: %v", err)
	}

	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger(conf, io.Discard), conf)
	propOpts.Logger = logger

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	// set up repos & services
	rcptSvc := recipient.NewService(inmemdb.NewRecipientRepository(inmemdb.Open()))
	serverRcptSvc := rcptSvc
	if settings.wrapRecipients != nil {
		serverRcptSvc = settings.wrapRecipients(rcptSvc)
	}
	emailsvc.ResetSentMessages()

	app := &testApp{
		Server: NewServer(Options{
			DisableReqLogs: true,
			Config:         conf,
			Logger:         logger,
			RecipientSvc:   serverRcptSvc,
			ProposalSvc:    proposal.NewService(propOpts),
			Validate:       validate,
			Translator:     translator,
		}),
		conf:    conf,
		rcptSvc: rcptSvc,
	}
	app.token = getToken(t, conf)
	return app
}

func (app *testApp) addRecipient(t *testing.T, email string, selected bool) recipient.Recipient {
	ctx := context.Background()
	rcpt, err := app.rcptSvc.Add(ctx, recipient.NewRecipient{Email: email})
	if err != nil {
		t.Fatalf("addRecipient() failed: %v", err)
	}
	if !selected {
		if rcpt, err = app.rcptSvc.SetSelected(ctx, rcpt.ID, false); err != nil {
			t.Fatalf("addRecipient() failed: %v", err)
		}
	}
	return rcpt
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, conf *core.Config, origIat ...int64) string {
	token, err := GenerateToken(conf, NewClaims(conf, conf.Auth.User, origIat...))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "code")
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app http.Handler, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func addressesOf(list []mail.Address) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.Address)
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
