package modal_test

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-console/internal/modal"
)

var _ = Describe("Pool", func() {
	It("runs submitted jobs", func() {
		pool := modal.NewPool(2, 4, quietLogger)
		defer pool.Shutdown()

		var wg sync.WaitGroup
		var mu sync.Mutex
		ran := 0
		for i := 0; i < 3; i++ {
			wg.Add(1)
			Expect(pool.Submit(func() {
				defer wg.Done()
				mu.Lock()
				ran++
				mu.Unlock()
			})).To(Succeed())
		}
		wg.Wait()
		Expect(ran).To(Equal(3))
	})

	It("survives a panicking job", func() {
		pool := modal.NewPool(1, 2, quietLogger)
		defer pool.Shutdown()

		Expect(pool.Submit(func() { panic("boom") })).To(Succeed())

		done := make(chan struct{})
		Expect(pool.Submit(func() { close(done) })).To(Succeed())
		Eventually(done, time.Second).Should(BeClosed())
	})

	It("refuses work when the queue is full", func() {
		pool := modal.NewPool(1, 1, quietLogger)
		release := make(chan struct{})
		started := make(chan struct{})
		defer func() {
			close(release)
			pool.Shutdown()
		}()

		Expect(pool.Submit(func() {
			close(started)
			<-release
		})).To(Succeed())
		Eventually(started, time.Second).Should(BeClosed())

		// one job waits at the dispatcher, one fills the queue
		Expect(pool.Submit(func() {})).To(Succeed())
		Eventually(func() error { return pool.Submit(func() {}) }, time.Second).Should(MatchError(modal.ErrQueueFull))
	})

	It("refuses work after shutdown", func() {
		pool := modal.NewPool(1, 1, quietLogger)
		pool.Shutdown()

		Expect(pool.Submit(func() {})).To(MatchError(modal.ErrPoolShutdown))
	})
})
