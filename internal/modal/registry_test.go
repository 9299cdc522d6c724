package modal_test

import (
	"context"
	"errors"
	"net/url"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-console/internal"
	"github.com/frahmantamala/expense-console/internal/modal"
)

var _ = Describe("Registry", func() {
	var (
		runner   *heldRunner
		observer *fakeObserver
		hub      *modal.Hub
		reg      *modal.Registry
	)

	BeforeEach(func() {
		runner = &heldRunner{}
		observer = &fakeObserver{}
		hub = modal.NewHub(runner, time.Minute, quietLogger, modal.WithObserver(observer))
		reg = hub.Registry("session-1")
	})

	It("starts in loading and becomes ready with the loaded data", func() {
		inst := reg.Open(modal.KindTeamExpenses, url.Values{}, func(context.Context) (any, error) {
			return "rows", nil
		})

		Expect(inst.View().Loading()).To(BeTrue())
		runner.RunAll()

		view := inst.View()
		Expect(view.State).To(Equal(modal.StateReady))
		Expect(view.Data).To(Equal("rows"))
		Expect(observer.loads).To(Equal(1))
	})

	It("is ready at once without a loader", func() {
		inst := reg.Open(modal.KindLogin, url.Values{}, nil)

		Expect(inst.View().State).To(Equal(modal.StateReady))
		Expect(runner.jobs).To(BeEmpty())
	})

	It("records a failed load", func() {
		inst := reg.Open(modal.KindTeamExpenses, url.Values{}, func(context.Context) (any, error) {
			return nil, internal.NewNetworkError(errors.New("refused"))
		})
		runner.RunAll()

		view := inst.View()
		Expect(view.Failed()).To(BeTrue())
		Expect(view.Data).To(BeNil())
		Expect(view.ErrMessage()).NotTo(BeEmpty())
		Expect(observer.failed).To(Equal(1))
	})

	It("keeps one modal per session and destroys the previous one", func() {
		var loadCtx context.Context
		first := reg.Open(modal.KindTeamExpenses, url.Values{}, func(ctx context.Context) (any, error) {
			loadCtx = ctx
			return "late", nil
		})
		second := reg.Open(modal.KindApprovalHistory, url.Values{}, nil)

		Expect(first.Alive()).To(BeFalse())
		Expect(first.Context().Err()).To(MatchError(context.Canceled))
		Expect(reg.Current()).To(BeIdenticalTo(second))
		Expect(observer.Open()).To(Equal(1))

		runner.RunAll()
		Expect(loadCtx.Err()).To(HaveOccurred())
		Expect(first.View().Data).To(BeNil())
		Expect(first.View().State).To(Equal(modal.StateLoading))
	})

	It("drops the result of a load superseded by a reload", func() {
		calls := 0
		load := func(context.Context) (any, error) {
			calls++
			return calls, nil
		}
		inst := reg.Open(modal.KindTeamExpenses, url.Values{}, load)
		stale := runner.jobs[0]
		runner.jobs = nil

		reg.Reload(inst, load)
		runner.RunAll()
		Expect(inst.View().Data).To(Equal(1))

		stale()
		Expect(inst.View().Data).To(Equal(1))
	})

	It("resolves only the open instance", func() {
		inst := reg.Open(modal.KindLogin, url.Values{}, nil)

		found, err := reg.Get(inst.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeIdenticalTo(inst))

		_, err = reg.Get("other")
		Expect(err).To(MatchError(internal.ErrModalNotFound))

		Expect(reg.Close(inst.ID)).To(BeTrue())
		Expect(reg.Close(inst.ID)).To(BeFalse())
		_, err = reg.Get(inst.ID)
		Expect(err).To(MatchError(internal.ErrModalNotFound))
	})

	It("ignores writes once destroyed", func() {
		inst := reg.Open(modal.KindLogin, url.Values{}, nil)
		reg.Close(inst.ID)

		inst.SetFlash(modal.SuccessFlash("saved"))
		inst.SetFormError(url.Values{"name": {"x"}}, errors.New("boom"), "failed")

		Expect(inst.View().Flash).To(Equal(modal.Flash{}))
		Expect(inst.View().Form).To(BeNil())
	})

	It("fails the load when the runner refuses it", func() {
		pool := modal.NewPool(1, 1, quietLogger)
		pool.Shutdown()
		reg := modal.NewHub(pool, time.Minute, quietLogger).Registry("s")

		inst := reg.Open(modal.KindTeamExpenses, url.Values{}, func(context.Context) (any, error) {
			return "never", nil
		})

		Expect(inst.View().Failed()).To(BeTrue())
		Expect(inst.View().ErrMessage()).To(ContainSubstring("busy"))
	})
})

var _ = Describe("Instance form state", func() {
	It("keeps the submitted values and field errors", func() {
		reg := modal.NewHub(inlineRunner{}, time.Minute, quietLogger).Registry("s")
		inst := reg.Open(modal.KindCreateCompany, url.Values{}, nil)

		err := internal.NewValidationFieldError("name", "Company name is required", internal.ErrCodeValidationFailed)
		inst.SetFormError(url.Values{"currency": {"EUR"}}, err, "Failed")

		view := inst.View()
		Expect(view.Value("currency")).To(Equal("EUR"))
		Expect(view.FieldError("name")).To(Equal("Company name is required"))
		Expect(view.Flash.Level).To(Equal("error"))

		inst.ClearForm()
		Expect(inst.View().Value("currency")).To(BeEmpty())
		Expect(inst.View().Flash.Message).To(BeEmpty())
	})

	It("switches view parameters without touching the opener's values", func() {
		reg := modal.NewHub(inlineRunner{}, time.Minute, quietLogger).Registry("s")
		params := url.Values{"tab": {"all"}}
		inst := reg.Open(modal.KindExpenseHistory, params, nil)

		inst.SetParam("tab", "pending")

		Expect(inst.Param("tab")).To(Equal("pending"))
		Expect(params.Get("tab")).To(Equal("all"))
	})
})

var _ = Describe("Hub", func() {
	var (
		now      time.Time
		observer *fakeObserver
		hub      *modal.Hub
	)

	BeforeEach(func() {
		now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		observer = &fakeObserver{}
		hub = modal.NewHub(inlineRunner{}, 10*time.Minute, quietLogger,
			modal.WithObserver(observer),
			modal.WithClock(func() time.Time { return now }))
	})

	It("returns the same registry for a session", func() {
		Expect(hub.Registry("a")).To(BeIdenticalTo(hub.Registry("a")))
		Expect(hub.Registry("a")).NotTo(BeIdenticalTo(hub.Registry("b")))
		Expect(hub.Len()).To(Equal(2))
	})

	It("evicts idle modals and forgets empty registries", func() {
		idle := hub.Registry("idle").Open(modal.KindLogin, url.Values{}, nil)
		now = now.Add(8 * time.Minute)
		busy := hub.Registry("busy").Open(modal.KindLogin, url.Values{}, nil)

		evicted := hub.Sweep(now.Add(5 * time.Minute))

		Expect(evicted).To(Equal(1))
		Expect(idle.Alive()).To(BeFalse())
		Expect(busy.Alive()).To(BeTrue())
		Expect(hub.Len()).To(Equal(1))
		Expect(observer.evictions).To(Equal(1))
	})

	It("counts lookups as activity", func() {
		reg := hub.Registry("s")
		inst := reg.Open(modal.KindLogin, url.Values{}, nil)

		now = now.Add(9 * time.Minute)
		_, err := reg.Get(inst.ID)
		Expect(err).NotTo(HaveOccurred())

		Expect(hub.Sweep(now.Add(5 * time.Minute))).To(Equal(0))
		Expect(inst.Alive()).To(BeTrue())
	})

	It("routes an open on a forgotten registry to the live one", func() {
		stale := hub.Registry("s")
		hub.Sweep(now.Add(time.Hour))
		Expect(hub.Len()).To(Equal(0))

		inst := stale.Open(modal.KindLogin, url.Values{}, nil)

		Expect(hub.Len()).To(Equal(1))
		Expect(hub.Registry("s").Current()).To(BeIdenticalTo(inst))
		Expect(stale.Current()).To(BeNil())
	})

	It("destroys the modal of a dropped session", func() {
		inst := hub.Registry("s").Open(modal.KindLogin, url.Values{}, nil)

		hub.Drop("s")

		Expect(inst.Alive()).To(BeFalse())
		Expect(hub.Len()).To(Equal(0))
		Expect(observer.Open()).To(Equal(0))
	})
})
