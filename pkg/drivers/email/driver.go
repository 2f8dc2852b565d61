// Package email provides the email_send driver.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/autoflow/pkg/drivers"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/protocol"
	"github.com/dukex/autoflow/pkg/transport"
	"github.com/go-playground/validator/v10"
)

type Driver struct {
	sender   transport.EmailSender
	validate *validator.Validate
}

func New(sender transport.EmailSender) *Driver {
	return &Driver{
		sender:   sender,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (d *Driver) Type() string {
	return models.NodeTypeEmailSend
}

func (d *Driver) Execute(ctx context.Context, req protocol.Request) protocol.Result {
	email := transport.Email{
		From:    drivers.String(req.Params, "fromEmail"),
		To:      drivers.SplitList(drivers.String(req.Params, "toEmail")),
		Cc:      drivers.SplitList(drivers.String(req.Params, "cc")),
		Subject: drivers.String(req.Params, "subject"),
		Body:    drivers.String(req.Params, "body"),
	}

	if err := d.validate.Struct(email); err != nil {
		return protocol.Fatal(fmt.Sprintf("invalid email parameters: %v", err))
	}

	if err := d.sender.Send(ctx, email); err != nil {
		if transport.IsTemporary(err) || errors.Is(err, context.DeadlineExceeded) {
			return protocol.Retryable(err.Error())
		}

		return protocol.Fatal(err.Error())
	}

	return protocol.Success(map[string]any{
		"to":      strings.Join(email.To, ","),
		"subject": email.Subject,
		"sent":    true,
	})
}
