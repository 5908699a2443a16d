package emailsvc

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"

	"github.com/projetodesenvolve/orcamento/core"
)

type resendService struct {
	client *resend.Client
	from   mail.Address
}

var _ core.EmailService = (*resendService)(nil)

func NewResendService(conf *core.Config) core.EmailService {
	return &resendService{
		client: resend.NewClient(conf.Mail.ResendApiKey),
		from:   conf.Mail.DefaultFromEmail(),
	}
}

func (svc *resendService) prepare(msg core.EmailMessage) (*resend.SendEmailRequest, error) {
	params := &resend.SendEmailRequest{
		From:    svc.from.String(),
		To:      addresses(msg.To),
		Cc:      addresses(msg.Cc),
		Bcc:     addresses(msg.Bcc),
		Subject: msg.Subject,
		Text:    msg.TextContent,
		Html:    msg.HTMLContent,
		Headers: msg.Headers,
	}
	for _, at := range msg.Attachments {
		content, err := at.Decoded()
		if err != nil {
			return nil, errors.Wrap(err, "decoding attachment "+at.Filename)
		}
		params.Attachments = append(params.Attachments, &resend.Attachment{
			Content:     content,
			Filename:    at.Filename,
			ContentType: at.ContentType,
		})
	}
	return params, nil
}

func (svc *resendService) Send(ctx context.Context, msg *core.EmailMessage) error {
	if err := msg.Prepare(); err != nil {
		return err
	}
	params, err := svc.prepare(*msg)
	if err != nil {
		return err
	}
	if _, err = svc.client.Emails.SendWithContext(ctx, params); err != nil {
		return errors.Wrap(err, "sending email via resend")
	}
	return nil
}

func addresses(addrs []mail.Address) []string {
	if len(addrs) == 0 {
		return nil
	}
	list := make([]string, 0, len(addrs))
	for _, a := range addrs {
		list = append(list, a.Address)
	}
	return list
}
