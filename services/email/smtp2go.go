package emailsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/projetodesenvolve/orcamento/core"
)

var (
	smtp2goHost     = "https://api.smtp2go.com"
	smtp2goEndpoint = "/v3/email/send"
	smtp2goTimeout  = 30 * time.Second
)

type (
	smtp2goService struct {
		key    string
		from   mail.Address
		host   string
		client *rest.Client
	}

	smtp2goAttachment struct {
		Filename string `json:"filename"`
		Fileblob string `json:"fileblob"` // base64
		Mimetype string `json:"mimetype"`
	}

	smtp2goHeader struct {
		Header string `json:"header"`
		Value  string `json:"value"`
	}

	smtp2goPayload struct {
		APIKey        string              `json:"api_key"`
		To            []string            `json:"to"`
		Cc            []string            `json:"cc,omitempty"`
		Bcc           []string            `json:"bcc,omitempty"`
		Sender        string              `json:"sender"`
		Subject       string              `json:"subject"`
		TextBody      string              `json:"text_body,omitempty"`
		HTMLBody      string              `json:"html_body,omitempty"`
		CustomHeaders []smtp2goHeader     `json:"custom_headers,omitempty"`
		Attachments   []smtp2goAttachment `json:"attachments,omitempty"`
	}

	smtp2goResponse struct {
		RequestID string `json:"request_id"`
		Data      struct {
			Succeeded int      `json:"succeeded"`
			Failed    int      `json:"failed"`
			Failures  []string `json:"failures"`
			EmailID   string   `json:"email_id"`
			Error     string   `json:"error"`
		} `json:"data"`
	}
)

var _ core.EmailService = (*smtp2goService)(nil)

func NewSmtp2goService(conf *core.Config) core.EmailService {
	return &smtp2goService{
		key:    conf.Mail.Smtp2goApiKey,
		from:   conf.Mail.DefaultFromEmail(),
		host:   smtp2goHost,
		client: &rest.Client{HTTPClient: &http.Client{Timeout: smtp2goTimeout}},
	}
}

func (svc *smtp2goService) prepare(msg core.EmailMessage) ([]byte, error) {
	payload := smtp2goPayload{
		APIKey:   svc.key,
		To:       addresses(msg.To),
		Cc:       addresses(msg.Cc),
		Bcc:      addresses(msg.Bcc),
		Sender:   svc.from.String(),
		Subject:  msg.Subject,
		TextBody: msg.TextContent,
		HTMLBody: msg.HTMLContent,
	}
	if payload.To == nil {
		payload.To = []string{}
	}
	for k, v := range msg.Headers {
		payload.CustomHeaders = append(payload.CustomHeaders, smtp2goHeader{Header: k, Value: v})
	}
	for _, at := range msg.Attachments {
		payload.Attachments = append(payload.Attachments, smtp2goAttachment{
			Filename: at.Filename,
			Fileblob: at.Content.String(),
			Mimetype: at.ContentType,
		})
	}
	return json.Marshal(payload)
}

func (svc *smtp2goService) Send(ctx context.Context, msg *core.EmailMessage) error {
	if err := msg.Prepare(); err != nil {
		return err
	}
	body, err := svc.prepare(*msg)
	if err != nil {
		return errors.Wrap(err, "encoding smtp2go payload")
	}
	req, err := rest.BuildRequestObject(rest.Request{
		Method:  rest.Post,
		BaseURL: svc.host + smtp2goEndpoint,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
		Body: body,
	})
	if err != nil {
		return errors.Wrap(err, "building smtp2go request")
	}

	httpRes, err := svc.client.MakeRequest(req.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "sending email via smtp2go")
	}
	res, err := rest.BuildResponse(httpRes)
	if err != nil {
		return errors.Wrap(err, "reading smtp2go response")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return &ProviderError{Provider: ProviderSmtp2go, StatusCode: res.StatusCode, Body: res.Body}
	}

	var parsed smtp2goResponse
	if err = json.Unmarshal([]byte(res.Body), &parsed); err == nil && (parsed.Data.Failed > 0 || parsed.Data.Error != "") {
		return &ProviderError{Provider: ProviderSmtp2go, StatusCode: res.StatusCode, Body: res.Body}
	}
	return nil
}
