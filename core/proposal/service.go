package proposal

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/projetodesenvolve/orcamento/core"
	"github.com/projetodesenvolve/orcamento/core/budget"
)

var (
	ErrNoRecipients  = errors.New("no recipients provided")
	ErrEmptyDocument = errors.New("document is empty")

	nowFunc = time.Now // mockable
)

type (
	Service interface {
		// Quote computes the schedule of req.
		Quote(req budget.QuoteRequest) (budget.Input, budget.Schedule, error)
		// Generate computes and renders the proposal of req.
		Generate(ctx context.Context, req budget.QuoteRequest) (Proposal, []byte, error)
		// Dispatch mails a rendered document to the given recipients plus the configured hidden ones.
		// A provider failure is reported in the result, not as an error.
		Dispatch(ctx context.Context, d Dispatch) (DispatchResult, error)
	}

	Options struct {
		UnitCost         decimal.Decimal
		FeePolicy        *budget.FeePolicy // DefaultFeePolicy when nil or invalid
		HiddenRecipients []string
		Renderer         Renderer
		Mailer           core.EmailService
		Logger           core.Logger
	}

	service struct {
		opts     Options
		policy   budget.FeePolicy
		inFlight singleflight.Group
	}
)

var _ Service = (*service)(nil)

func NewService(opts Options) Service {
	policy := budget.DefaultFeePolicy
	if opts.FeePolicy != nil {
		if err := opts.FeePolicy.Validate(); err != nil {
			if opts.Logger != nil {
				opts.Logger.Warn("ignoring fee policy: " + err.Error())
			}
		} else {
			policy = *opts.FeePolicy
		}
	}
	opts.HiddenRecipients = core.MergeEmails(opts.HiddenRecipients)
	return &service{opts: opts, policy: policy}
}

func (svc *service) Quote(req budget.QuoteRequest) (budget.Input, budget.Schedule, error) {
	in, err := req.ToInput(svc.opts.UnitCost)
	if err != nil {
		return budget.Input{}, budget.Schedule{}, err
	}
	sched, err := svc.policy.Calculate(in)
	if err != nil {
		return budget.Input{}, budget.Schedule{}, err
	}
	return in, sched, nil
}

func (svc *service) Generate(ctx context.Context, req budget.QuoteRequest) (Proposal, []byte, error) {
	in, sched, err := svc.Quote(req)
	if err != nil {
		return Proposal{}, nil, err
	}
	p := NewProposal(in, sched, nowFunc())
	doc, err := svc.opts.Renderer.Render(ctx, p)
	if err != nil {
		return Proposal{}, nil, errors.Wrap(err, "rendering proposal")
	}
	return p, doc, nil
}

func (svc *service) Dispatch(ctx context.Context, d Dispatch) (DispatchResult, error) {
	if len(d.Document) == 0 {
		return DispatchResult{}, core.NewValidationError(ErrEmptyDocument, core.FieldError{Field: "document", Error: ErrEmptyDocument.Error()})
	}

	visible := core.MergeEmails(onlyEmails(d.Recipients))
	hidden := excluding(svc.opts.HiddenRecipients, visible)
	if len(visible)+len(hidden) == 0 {
		return DispatchResult{}, core.NewValidationError(ErrNoRecipients, core.FieldError{Field: "recipients", Error: ErrNoRecipients.Error()})
	}

	// identical submissions in flight share one delivery, so it must outlive the caller that started it
	v, _, _ := svc.inFlight.Do(dispatchKey(d.Document, visible, hidden), func() (interface{}, error) {
		return svc.send(context.WithoutCancel(ctx), d, visible, hidden), nil
	})
	return v.(DispatchResult), nil
}

func (svc *service) send(ctx context.Context, d Dispatch, visible, hidden []string) DispatchResult {
	res := DispatchResult{
		DispatchID:  uuid.New().String(),
		SentTo:      visible,
		HiddenCount: len(hidden),
	}

	msg := &core.EmailMessage{
		Subject:      MailSubject,
		TemplateName: MailTemplate,
		Headers:      map[string]string{RefIDHeader: res.DispatchID},
	}
	if d.Summary != nil {
		msg.TemplateData = *d.Summary
	}
	// hidden recipients stay out of the visible headers unless nobody else receives the mail
	if len(visible) > 0 {
		msg.To = core.AddressList(visible)
		msg.Bcc = core.AddressList(hidden)
	} else {
		msg.To = core.AddressList(hidden)
	}

	err := msg.Attach(bytes.NewReader(d.Document), AttachmentName, AttachmentMimeType)
	if err == nil {
		err = svc.opts.Mailer.Send(ctx, msg)
	}
	if err != nil {
		res.Detail = err.Error()
		if svc.opts.Logger != nil {
			svc.opts.Logger.Error("dispatching proposal", errors.Wrap(err, "dispatching proposal"), map[string]interface{}{
				"dispatch_id": res.DispatchID,
				"recipients":  len(visible) + len(hidden),
			})
		}
		return res
	}

	res.Success = true
	if svc.opts.Logger != nil {
		svc.opts.Logger.Info("proposal dispatched", map[string]interface{}{
			"dispatch_id": res.DispatchID,
			"recipients":  len(visible) + len(hidden),
		})
	}
	return res
}

func onlyEmails(list []string) []string {
	emails := make([]string, 0, len(list))
	for _, e := range list {
		if strings.Contains(e, "@") {
			emails = append(emails, e)
		}
	}
	return emails
}

// excluding returns the addresses of list absent from other, ignoring case.
func excluding(list, other []string) []string {
	taken := make(map[string]struct{}, len(other))
	for _, e := range other {
		taken[strings.ToLower(e)] = struct{}{}
	}
	kept := make([]string, 0, len(list))
	for _, e := range list {
		if _, ok := taken[strings.ToLower(e)]; !ok {
			kept = append(kept, e)
		}
	}
	return kept
}

func dispatchKey(doc []byte, visible, hidden []string) string {
	all := make([]string, 0, len(visible)+len(hidden))
	for _, e := range append(append([]string{}, visible...), hidden...) {
		all = append(all, strings.ToLower(e))
	}
	sort.Strings(all)

	sum := sha256.Sum256(doc)
	return hex.EncodeToString(sum[:]) + "|" + strings.Join(all, ",")
}
