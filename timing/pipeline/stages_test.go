package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/iplcsim/insts"
	"github.com/sarchlab/iplcsim/timing/pipeline"
)

var _ = Describe("Slot", func() {
	It("should treat the zero value as a bubble", func() {
		var s pipeline.Slot

		Expect(s.IsNOP()).To(BeTrue())
		Expect(s.Fetched()).To(BeFalse())
		Expect(s.Retirable()).To(BeFalse())
	})

	It("should treat a fetched nop as fetched but not retirable", func() {
		s := pipeline.Slot{Address: 0x100, Ops: insts.Nop{}}

		Expect(s.Fetched()).To(BeTrue())
		Expect(s.Retirable()).To(BeFalse())
	})

	It("should retire a real instruction with an address", func() {
		s := pipeline.Slot{Address: 0x100, Ops: insts.Syscall{}}

		Expect(s.Retirable()).To(BeTrue())
		Expect(s.String()).To(Equal("SYSCALL: 0x100"))
	})

	It("should name stages like the pipeline dump", func() {
		Expect(pipeline.StageFetch.String()).To(Equal("FETCH"))
		Expect(pipeline.StageWriteback.String()).To(Equal("WB"))
		Expect(pipeline.Stage(7).String()).To(Equal("Stage(7)"))
	})
})
