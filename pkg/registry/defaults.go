package registry

import (
	"net/http"
	"time"

	"github.com/dukex/autoflow/pkg/drivers/email"
	"github.com/dukex/autoflow/pkg/drivers/ifelse"
	"github.com/dukex/autoflow/pkg/drivers/loop"
	"github.com/dukex/autoflow/pkg/drivers/manual"
	"github.com/dukex/autoflow/pkg/drivers/schedule"
	"github.com/dukex/autoflow/pkg/drivers/timer"
	"github.com/dukex/autoflow/pkg/drivers/webhook"
	"github.com/dukex/autoflow/pkg/transport"
)

// DriverDeps are the collaborators needed by the built-in drivers.
type DriverDeps struct {
	EmailSender      transport.EmailSender
	HTTPClient       *http.Client
	MaxTimerDuration time.Duration
}

// DefaultDrivers registers one driver for every built-in node type.
func DefaultDrivers(deps DriverDeps) (*Drivers, error) {
	return NewDrivers(
		manual.New(),
		schedule.New(),
		email.New(deps.EmailSender),
		webhook.New(deps.HTTPClient),
		ifelse.New(),
		loop.New(),
		timer.New(deps.MaxTimerDuration),
	)
}
