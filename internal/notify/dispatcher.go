package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/parallax/audit-backend/internal/metrics"
	"github.com/parallax/audit-backend/internal/model"
)

// Notification kinds, used in logs and metrics.
const (
	KindConfirmation = "confirmation"
	KindAdmin        = "admin"
)

// Config configures a Dispatcher.
type Config struct {
	From       string
	AdminEmail string
	// Timeout bounds one dispatch (both emails). Zero means no bound.
	Timeout time.Duration
}

// Dispatcher sends the submitter confirmation and the admin alert after a
// submission has been stored. Dispatch is fire-and-forget: failures are
// logged and counted, never returned and never retried.
type Dispatcher struct {
	mailer  Mailer
	cfg     Config
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. m may be nil.
func NewDispatcher(mailer Mailer, cfg Config, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{mailer: mailer, cfg: cfg, metrics: m}
}

// Enabled reports whether notifications are actually sent.
func (d *Dispatcher) Enabled() bool {
	_, disabled := d.mailer.(Disabled)
	return !disabled
}

// NotifySubmission starts sending both emails in the background and returns
// immediately.
func (d *Dispatcher) NotifySubmission(rec model.AuditRequest) {
	if !d.Enabled() {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.send(rec)
	}()
}

// Wait blocks until in-flight notifications finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) send(rec model.AuditRequest) {
	ctx := context.Background()
	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}

	var g errgroup.Group
	g.Go(func() error {
		msg, err := confirmationMessage(d.cfg.From, rec)
		if err != nil {
			return d.fail(KindConfirmation, rec, err)
		}
		return d.deliver(ctx, KindConfirmation, rec, msg)
	})
	g.Go(func() error {
		if d.cfg.AdminEmail == "" {
			slog.Warn("admin notification skipped: ADMIN_EMAIL not set", "audit_request_id", rec.ID)
			return nil
		}
		msg, err := adminMessage(d.cfg.From, d.cfg.AdminEmail, rec)
		if err != nil {
			return d.fail(KindAdmin, rec, err)
		}
		return d.deliver(ctx, KindAdmin, rec, msg)
	})
	_ = g.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, kind string, rec model.AuditRequest, msg Message) error {
	if err := d.mailer.Send(ctx, msg); err != nil {
		return d.fail(kind, rec, err)
	}
	slog.Info("notification sent", "kind", kind, "audit_request_id", rec.ID, "to", msg.To)
	return nil
}

func (d *Dispatcher) fail(kind string, rec model.AuditRequest, err error) error {
	slog.Error("notification failed", "kind", kind, "audit_request_id", rec.ID, "error", err)
	d.metrics.IncrementNotificationFailure(kind)
	return err
}
