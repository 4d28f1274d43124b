package authreq

import (
	"math/rand"
	"time"

	"fedauth/internal/domain"
)

// Simulated network context attached to auto-generated demo requests.
const (
	demoIPAddress = "192.168.1.100"
	demoUserAgent = "Mozilla/5.0 Demo Browser"
	demoLocation  = "San Francisco, CA"
)

// DefaultQuietPeriod is how long a device must sit idle before the next demo
// request is synthesized for it.
const DefaultQuietPeriod = 30 * time.Second

// DemoGenerator decides, at poll time, whether to synthesize a demo request
// for an idle device. It is evaluated at most once per poll call and never
// runs as a background task, which bounds demo traffic to roughly one
// request per quiet period of polling per idle device.
type DemoGenerator struct {
	quietPeriod time.Duration
	now         func() time.Time
	pickAction  func() domain.RequestAction
}

// NewDemoGenerator builds a generator with the given quiet period. The
// action is a coin flip between login and approve_transaction; both the
// clock and the picker can be overridden for deterministic tests.
func NewDemoGenerator(quietPeriod time.Duration) *DemoGenerator {
	if quietPeriod <= 0 {
		quietPeriod = DefaultQuietPeriod
	}
	return &DemoGenerator{
		quietPeriod: quietPeriod,
		now:         time.Now,
		pickAction:  coinFlipAction,
	}
}

// WithClock overrides the generator clock; used in tests.
func (g *DemoGenerator) WithClock(now func() time.Time) *DemoGenerator {
	g.now = now
	return g
}

// WithActionPicker overrides the random action choice; used in tests.
func (g *DemoGenerator) WithActionPicker(pick func() domain.RequestAction) *DemoGenerator {
	g.pickAction = pick
	return g
}

// ShouldGenerate reports whether a device with no pending requests is due a
// synthetic one. last is the device's most recent request of any status;
// hasLast is false when the device has never had one.
func (g *DemoGenerator) ShouldGenerate(last domain.AuthRequest, hasLast bool) bool {
	if !hasLast {
		return true
	}
	return last.CreatedAt.Before(g.now().Add(-g.quietPeriod))
}

// Action returns the action tag for the next synthetic request.
func (g *DemoGenerator) Action() domain.RequestAction {
	return g.pickAction()
}

// Metadata returns the fixed simulated network context for demo requests.
func (g *DemoGenerator) Metadata() domain.Metadata {
	return domain.Metadata{
		"ipAddress": demoIPAddress,
		"userAgent": demoUserAgent,
		"location":  demoLocation,
	}
}

func coinFlipAction() domain.RequestAction {
	if rand.Intn(2) == 0 {
		return domain.ActionLogin
	}
	return domain.ActionApproveTransaction
}
