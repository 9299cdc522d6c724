package events_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/frahmantamala/expense-console/internal/core/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

type fakeRecorder struct {
	mu       sync.Mutex
	events   []string
	sessions []string
}

func (f *fakeRecorder) IncEvent(eventType string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType)
}

func (f *fakeRecorder) IncSessionEvent(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, event)
}

var _ = Describe("EventBus", func() {
	var (
		bus     *events.EventBus
		slogger *slog.Logger
	)

	BeforeEach(func() {
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		bus = events.NewEventBus(slogger)
	})

	It("delivers asynchronously even after the publishing context is cancelled", func() {
		received := make(chan events.Event, 1)
		bus.Subscribe(events.EventTypeExpenseSubmitted, func(ctx context.Context, e events.Event) error {
			Expect(ctx.Err()).NotTo(HaveOccurred())
			received <- e
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		Expect(bus.Publish(ctx, events.NewExpenseSubmittedEvent("ana", "12", "49.99", "USD"))).To(Succeed())

		var e events.Event
		Eventually(received).Should(Receive(&e))
		Expect(e.EventActor()).To(Equal("ana"))
		Expect(e.Payload()).To(HaveKeyWithValue("expense_id", "12"))
	})

	It("stops at the first failing handler when publishing synchronously", func() {
		calls := 0
		bus.Subscribe(events.EventTypeRuleCreated, func(context.Context, events.Event) error {
			calls++
			return errors.New("boom")
		})
		bus.Subscribe(events.EventTypeRuleCreated, func(context.Context, events.Event) error {
			calls++
			return nil
		})

		err := bus.PublishSync(context.Background(), events.NewRecordEvent(events.EventTypeRuleCreated, "ana", "Half", nil))
		Expect(err).To(MatchError(ContainSubstring("rule.created")))
		Expect(calls).To(Equal(1))
	})

	It("ignores events nobody listens to", func() {
		Expect(bus.Publish(context.Background(), events.NewLoggedOutEvent("s1", "ana"))).To(Succeed())
	})

	It("waits for in-flight handlers", func() {
		release := make(chan struct{})
		bus.Subscribe(events.EventTypeLoggedIn, func(context.Context, events.Event) error {
			<-release
			return nil
		})
		Expect(bus.Publish(context.Background(), events.NewLoggedInEvent("s1", "ana", "EMPLOYEE"))).To(Succeed())

		short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		Expect(bus.Wait(short)).To(MatchError(context.DeadlineExceeded))

		close(release)
		Expect(bus.Wait(context.Background())).To(Succeed())
	})

	Describe("subscribers", func() {
		It("counts events and session transitions", func() {
			rec := &fakeRecorder{}
			events.RegisterMetrics(bus, rec)

			Expect(bus.PublishSync(context.Background(), events.NewLoggedInEvent("s1", "ana", "EMPLOYEE"))).To(Succeed())
			Expect(bus.PublishSync(context.Background(), events.NewApprovalActionedEvent("bo", "4", "approve"))).To(Succeed())

			Expect(rec.events).To(Equal([]string{events.EventTypeLoggedIn, events.EventTypeApprovalActioned}))
			Expect(rec.sessions).To(Equal([]string{"logged_in"}))
		})

		It("writes an audit line", func() {
			var buf bytes.Buffer
			events.RegisterAuditLog(bus, slog.New(slog.NewTextHandler(&buf, nil)))

			Expect(bus.PublishSync(context.Background(), events.NewRecordEvent(events.EventTypeCompanyCreated, "root", "Acme", map[string]interface{}{"currency": "EUR"}))).To(Succeed())

			Expect(buf.String()).To(ContainSubstring("Audit: console event"))
			Expect(buf.String()).To(ContainSubstring("name=Acme"))
			Expect(buf.String()).To(ContainSubstring("actor=root"))
		})
	})
})
