package staging

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestStagingSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "staging ring allocator suite")
}

var _ = Describe("Reserve", func() {
	var a *Allocator

	// Each page holds exactly one 512-byte reservation, so the third
	// Reserve call always has to wrap back around to page 0.
	const pageFill = 400

	BeforeEach(func() {
		var err error
		a, err = New(fakeGPU{}, 512, 1024) // two pages
		Expect(err).NotTo(HaveOccurred())
	})

	When("the next page is still owned by an uncompleted batch", func() {
		It("blocks until NotifyBatchComplete releases it, instead of erroring immediately", func() {
			busy := a.NextBatch()
			_, err := a.Reserve(pageFill, busy) // fills page 0
			Expect(err).NotTo(HaveOccurred())
			_, err = a.Reserve(pageFill, a.NextBatch()) // fills page 1
			Expect(err).NotTo(HaveOccurred())

			waiter := a.NextBatch()
			done := make(chan error, 1)
			go func() {
				_, err := a.Reserve(pageFill, waiter) // wraps to page 0, busy
				done <- err
			}()

			Consistently(done, 5*time.Millisecond).ShouldNot(Receive())

			a.NotifyBatchComplete(busy)

			Eventually(done, pageWait*3).Should(Receive(BeNil()))
		})
	})

	When("the busy page never completes", func() {
		It("gives up after pageWait and returns ErrBusy", func() {
			busy := a.NextBatch()
			_, err := a.Reserve(pageFill, busy) // fills page 0
			Expect(err).NotTo(HaveOccurred())
			_, err = a.Reserve(pageFill, a.NextBatch()) // fills page 1
			Expect(err).NotTo(HaveOccurred())

			_, err = a.Reserve(pageFill, a.NextBatch()) // wraps to page 0, stays busy
			Expect(err).To(MatchError(ErrBusy))
		})
	})
})
