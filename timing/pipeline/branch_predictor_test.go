package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/iplcsim/insts"
	"github.com/sarchlab/iplcsim/timing/pipeline"
)

var _ = Describe("StaticPredictor", func() {
	branch := pipeline.Slot{Address: 0x400130, Ops: insts.Branch{Reg1: insts.NoReg, Reg2: insts.NoReg}}
	fallThrough := pipeline.Slot{Address: 0x400134, Ops: insts.Nop{}}
	target := pipeline.Slot{Address: 0x400150, Ops: insts.Nop{}}

	Context("when predicting not taken", func() {
		bp := pipeline.NewStaticPredictor(false)

		It("should be correct on fall-through", func() {
			res := bp.Resolve(branch, fallThrough)

			Expect(res).To(Equal(pipeline.Resolution{
				Evaluated: true,
				Taken:     false,
				Predicted: false,
				Correct:   true,
			}))
		})

		It("should be wrong on a jump to the target", func() {
			res := bp.Resolve(branch, target)

			Expect(res.Taken).To(BeTrue())
			Expect(res.Correct).To(BeFalse())
		})
	})

	Context("when predicting taken", func() {
		bp := pipeline.NewStaticPredictor(true)

		It("should be correct on a jump to the target", func() {
			Expect(bp.Resolve(branch, target).Correct).To(BeTrue())
		})

		It("should be wrong on fall-through", func() {
			Expect(bp.Resolve(branch, fallThrough).Correct).To(BeFalse())
		})
	})

	It("should not evaluate without a fetched successor", func() {
		res := pipeline.NewStaticPredictor(false).Resolve(branch, pipeline.Slot{})

		Expect(res.Evaluated).To(BeFalse())
		Expect(res.Correct).To(BeFalse())
	})
})
