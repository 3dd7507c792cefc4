// Package formflow drives the underwriting form: it gates submission on
// required-field validation, applies the demo preset, and tracks the submit
// control through an explicit Idle -> Submitting -> Idle|Redirected machine so
// the control's enabled/label state is derived from the machine rather than
// being mutated ad hoc.
package formflow

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/propforma/underwrite/pkg/form"
)

// State enumerates the submission machine.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateRedirected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateRedirected:
		return "redirected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrInvalid is returned by Submit when required fields are empty. No
	// request is issued in that case.
	ErrInvalid = errors.New("formflow: required fields are missing")
	// ErrSubmitInFlight is returned when Submit is called while a previous
	// attempt has not resolved.
	ErrSubmitInFlight = errors.New("formflow: submit already in flight")
	// ErrRedirected is returned when Submit is called after a successful
	// submission already produced a redirect target.
	ErrRedirected = errors.New("formflow: submission already redirected")
)

// ServerError carries an application-level rejection reported by the analyze
// endpoint. The form stays editable and the user may retry.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("formflow: server rejected submission: %s", e.Message)
}

// Notifier receives user-facing messages. The presentation mechanism is the
// caller's concern; the controller only decides what to say.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

// Control is the derived visual state of a button.
type Control struct {
	Label    string
	Disabled bool
}

const demoAckDuration = 2 * time.Second

// Option configures a Controller.
type Option func(*Controller)

// WithClient sets the submission client. Without one, Submit fails.
func WithClient(client *Client) Option {
	return func(c *Controller) { c.client = client }
}

// WithNotifier sets the destination for user-facing messages.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notify = n
		}
	}
}

// WithSubmitLabel overrides the submit control's resting label.
func WithSubmitLabel(label string) Option {
	return func(c *Controller) {
		if strings.TrimSpace(label) != "" {
			c.submitLabel = label
		}
	}
}

// WithDemoLabel overrides the demo control's resting label.
func WithDemoLabel(label string) Option {
	return func(c *Controller) {
		if strings.TrimSpace(label) != "" {
			c.demoLabel = label
		}
	}
}

// WithClock injects the time source used for the transient demo
// acknowledgment.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// Controller binds to a form model and owns the submission lifecycle for it.
// All methods are safe for concurrent use, though the expected usage is a
// single event loop.
type Controller struct {
	mu sync.Mutex

	model  form.Model
	values map[string]string
	checks map[string]bool
	marks  map[string]struct{}

	state    State
	redirect string

	client *Client
	notify Notifier
	now    func() time.Time

	submitLabel string
	demoLabel   string
	demoAckTil  time.Time
}

// NewController builds a controller for the given model. A model with no
// fields yields a controller whose operations are all no-ops, matching a page
// without the form.
func NewController(model form.Model, options ...Option) *Controller {
	c := &Controller{
		model:       model,
		values:      make(map[string]string),
		checks:      make(map[string]bool),
		marks:       make(map[string]struct{}),
		notify:      NotifierFunc(func(string) {}),
		now:         time.Now,
		submitLabel: "Run Analysis",
		demoLabel:   "Load Demo Deal",
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	for _, field := range model.Fields {
		if field.Default != "" && !field.Checkbox() {
			c.values[field.Name] = field.Default
		}
	}
	return c
}

// SetValue records an edit to a text field and clears any validation mark on
// it, regardless of whether the new value would itself pass validation. Marks
// are only re-evaluated on the next submit attempt.
func (c *Controller) SetValue(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.model.Has(name) {
		return
	}
	c.values[name] = value
	delete(c.marks, name)
}

// SetChecked records a checkbox toggle.
func (c *Controller) SetChecked(name string, checked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.model.Has(name) {
		return
	}
	c.checks[name] = checked
	delete(c.marks, name)
}

// Value returns the current value of a field.
func (c *Controller) Value(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[name]
}

// Checked returns the current state of a checkbox field.
func (c *Controller) Checked(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checks[name]
}

// Marked reports whether a field currently carries an invalid mark.
func (c *Controller) Marked(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.marks[name]
	return ok
}

// State returns the submission machine's current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RedirectTarget returns the processing-page path once the machine reaches
// StateRedirected, and "" otherwise.
func (c *Controller) RedirectTarget() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.redirect
}

// SubmitControl derives the submit button's visual state from the machine.
func (c *Controller) SubmitControl() Control {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateSubmitting:
		return Control{Label: "Analyzing...", Disabled: true}
	case StateRedirected:
		return Control{Label: c.submitLabel, Disabled: true}
	default:
		return Control{Label: c.submitLabel, Disabled: false}
	}
}

// DemoControl derives the demo button's visual state. For a short window after
// LoadDemo it shows an acknowledgment label, then reverts; this is cosmetic
// and carries no other state.
func (c *Controller) DemoControl() Control {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.now().Before(c.demoAckTil) {
		return Control{Label: "Demo Loaded", Disabled: false}
	}
	return Control{Label: c.demoLabel, Disabled: false}
}

// Validate marks every required field whose trimmed value is empty and clears
// the mark on the rest. All fields are checked before the verdict is returned;
// there is no short-circuit.
func (c *Controller) Validate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateLocked()
}

func (c *Controller) validateLocked() bool {
	valid := true
	for _, field := range c.model.Fields {
		if !field.Required || field.Checkbox() {
			continue
		}
		if strings.TrimSpace(c.values[field.Name]) == "" {
			c.marks[field.Name] = struct{}{}
			valid = false
		} else {
			delete(c.marks, field.Name)
		}
	}
	return valid
}

// LoadDemo applies the preset to every field that exists in the model, clears
// marks on the touched fields, and forces the preset's checkboxes on. Applying
// it twice yields the same state as applying it once.
func (c *Controller) LoadDemo(preset form.DemoPreset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, value := range preset.Values {
		if !c.model.Has(name) {
			continue
		}
		c.values[name] = value
		delete(c.marks, name)
	}
	for _, name := range preset.Checked {
		if !c.model.Has(name) {
			continue
		}
		c.checks[name] = true
		delete(c.marks, name)
	}
	c.demoAckTil = c.now().Add(demoAckDuration)
}

// Payload snapshots the current form state as the submission payload. Checked
// boxes contribute "on", mirroring browser form encoding; unchecked boxes are
// absent.
func (c *Controller) Payload() url.Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.payloadLocked()
}

func (c *Controller) payloadLocked() url.Values {
	payload := url.Values{}
	for _, field := range c.model.Fields {
		if field.Checkbox() {
			if c.checks[field.Name] {
				payload.Set(field.Name, "on")
			}
			continue
		}
		payload.Set(field.Name, c.values[field.Name])
	}
	return payload
}

// Submit runs validation and, if the form is valid, issues exactly one analyze
// request built from the current form state. On `job_id` the machine moves to
// StateRedirected and RedirectTarget is set; on a server `error` or a
// transport failure the message is surfaced and the machine returns to
// StateIdle; a response carrying neither field is surfaced as a generic error
// and likewise returns to StateIdle.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateSubmitting:
		c.mu.Unlock()
		return ErrSubmitInFlight
	case StateRedirected:
		c.mu.Unlock()
		return ErrRedirected
	}
	if !c.validateLocked() {
		c.mu.Unlock()
		return ErrInvalid
	}
	if c.client == nil {
		c.mu.Unlock()
		return fmt.Errorf("formflow: no client configured")
	}
	c.state = StateSubmitting
	payload := c.payloadLocked()
	c.mu.Unlock()

	result, err := c.client.Analyze(ctx, payload)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.state = StateIdle
		var transport *TransportError
		if errors.As(err, &transport) {
			c.notify.Notify(fmt.Sprintf("Network error: %v", transport.Err))
		} else {
			c.notify.Notify("Unexpected response from server. Please try again.")
		}
		return err
	}

	switch {
	case result.JobID != "":
		c.state = StateRedirected
		c.redirect = "/processing/" + result.JobID
		return nil
	case result.Message != "":
		c.state = StateIdle
		c.notify.Notify(result.Message)
		return &ServerError{Message: result.Message}
	default:
		// Neither contract field present. The original client left the form
		// stuck disabled here; treat it as a recoverable generic error instead.
		c.state = StateIdle
		c.notify.Notify("Unexpected response from server. Please try again.")
		return fmt.Errorf("formflow: response carried neither job_id nor error")
	}
}
