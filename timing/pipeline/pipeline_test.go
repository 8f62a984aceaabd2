package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/iplcsim/insts"
	"github.com/sarchlab/iplcsim/timing/latency"
	"github.com/sarchlab/iplcsim/timing/pipeline"
)

type hookRecorder struct {
	cycles   int
	accesses []pipeline.DataAccessEvent
	branches []pipeline.BranchEvent
}

func (r *hookRecorder) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case pipeline.HookPosCycle:
		r.cycles++
	case pipeline.HookPosDataAccess:
		r.accesses = append(r.accesses, ctx.Item.(pipeline.DataAccessEvent))
	case pipeline.HookPosBranchResolved:
		r.branches = append(r.branches, ctx.Item.(pipeline.BranchEvent))
	}
}

// advanceTo moves the youngest instruction from Fetch into stage s.
func advanceTo(p *pipeline.Pipeline, s pipeline.Stage) {
	for i := pipeline.StageFetch; i < s; i++ {
		p.Advance()
	}
}

var _ = Describe("Pipeline", func() {
	var (
		mockCtrl *gomock.Controller
		dcache   *MockDataCache
		p        *pipeline.Pipeline
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		dcache = NewMockDataCache(mockCtrl)
		p = pipeline.NewPipeline(dcache)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Describe("Initial state", func() {
		It("should start with every stage empty", func() {
			Expect(p.Empty()).To(BeTrue())
			Expect(p.Stages()).To(Equal(pipeline.Stages{}))
			Expect(p.Stats()).To(Equal(pipeline.Statistics{}))
		})

		It("should default to predict not taken and a 10-cycle miss", func() {
			Expect(p.PredictTaken()).To(BeFalse())
			Expect(p.TimingConfig().CacheMissDelay).To(Equal(uint64(10)))
		})
	})

	Describe("Insert", func() {
		It("should advance once and place the instruction in Fetch", func() {
			p.SetFetchAddress(0x400100)
			p.InsertRType("add", 2, 3, 4)

			Expect(p.Stats().Cycles).To(Equal(uint64(1)))
			Expect(p.Stage(pipeline.StageFetch)).To(Equal(pipeline.Slot{
				Address: 0x400100,
				Ops:     insts.RType{Mnemonic: "add", Dest: 2, Reg1: 3, Reg2OrConst: 4},
			}))
		})

		It("should shift earlier instructions one stage per insert", func() {
			p.SetFetchAddress(0x100)
			p.InsertJump("j")
			p.SetFetchAddress(0x104)
			p.InsertSyscall()
			p.SetFetchAddress(0x108)
			p.InsertNop()

			Expect(p.Stage(pipeline.StageALU).Kind()).To(Equal(insts.KindJump))
			Expect(p.Stage(pipeline.StageDecode).Kind()).To(Equal(insts.KindSyscall))
			Expect(p.Stage(pipeline.StageFetch).Kind()).To(Equal(insts.KindNOP))
			Expect(p.Stage(pipeline.StageFetch).Address).To(Equal(uint32(0x108)))
		})

		It("should treat nil operands as a nop", func() {
			p.SetFetchAddress(0x100)
			p.Insert(nil)

			Expect(p.Stage(pipeline.StageFetch).Ops).To(Equal(insts.Nop{}))
		})
	})

	Describe("Drain", func() {
		It("should be idempotent on an empty pipeline", func() {
			p.Drain()
			p.Drain()

			Expect(p.Stats()).To(Equal(pipeline.Statistics{}))
			Expect(p.Stages()).To(Equal(pipeline.Stages{}))
		})

		It("should retire every in-flight instruction", func() {
			for i, addr := range []uint32{0x100, 0x104, 0x108} {
				p.SetFetchAddress(addr)
				p.InsertRType("add", insts.Reg(i+1), 0, 0)
			}

			p.Drain()

			Expect(p.Empty()).To(BeTrue())
			Expect(p.Stats().Instructions).To(Equal(uint64(3)))
			Expect(p.Stats().Cycles).To(Equal(uint64(8)))
			Expect(p.Stats().CPI()).To(BeNumerically("~", 8.0/3.0, 1e-9))
		})

		It("should not retire instructions without an address", func() {
			p.InsertRType("add", 1, 2, 3)
			p.Drain()

			Expect(p.Stats().Instructions).To(BeZero())
		})

		It("should stop at explicit nops", func() {
			p.SetFetchAddress(0x100)
			p.InsertNop()
			p.Drain()

			Expect(p.Stats().Cycles).To(Equal(uint64(1)))
			Expect(p.Stats().Instructions).To(BeZero())
		})
	})

	Describe("Branch resolution", func() {
		insertBranchFollowedBy := func(next uint32) {
			p.SetFetchAddress(0x100)
			p.InsertBranch(insts.NoReg, insts.NoReg)
			p.SetFetchAddress(next)
			p.InsertRType("add", 1, 2, 3)
		}

		It("should charge one cycle and squash Decode on a misprediction", func() {
			insertBranchFollowedBy(0x200)
			before := p.Stats().Cycles

			p.Advance()

			stats := p.Stats()
			Expect(stats.Cycles - before).To(Equal(uint64(2)))
			Expect(stats.Branches).To(Equal(uint64(1)))
			Expect(stats.CorrectPredictions).To(BeZero())
			Expect(stats.Mispredictions).To(Equal(uint64(1)))

			Expect(p.Stage(pipeline.StageMem).Kind()).To(Equal(insts.KindBranch))
			Expect(p.Stage(pipeline.StageALU).IsNOP()).To(BeTrue())
			Expect(p.Stage(pipeline.StageDecode).Address).To(Equal(uint32(0x200)))
		})

		It("should count a correct not-taken prediction", func() {
			insertBranchFollowedBy(0x104)
			before := p.Stats().Cycles

			p.Advance()

			Expect(p.Stats().Cycles - before).To(Equal(uint64(1)))
			Expect(p.Stats().CorrectPredictions).To(Equal(uint64(1)))
			Expect(p.Stats().PredictionAccuracy()).To(Equal(100.0))
			Expect(p.Stage(pipeline.StageALU).Kind()).To(Equal(insts.KindBranch))
		})

		It("should count a correct taken prediction", func() {
			p = pipeline.NewPipeline(dcache, pipeline.WithPredictTaken(true))
			insertBranchFollowedBy(0x200)

			p.Advance()

			Expect(p.Stats().CorrectPredictions).To(Equal(uint64(1)))
			Expect(p.Stats().Mispredictions).To(BeZero())
		})

		It("should not score a branch with nothing fetched behind it", func() {
			p.SetFetchAddress(0x100)
			p.InsertBranch(insts.NoReg, insts.NoReg)
			p.Advance()
			before := p.Stats().Cycles

			p.Advance()

			Expect(p.Stats().Cycles - before).To(Equal(uint64(1)))
			Expect(p.Stats().Branches).To(Equal(uint64(1)))
			Expect(p.Stats().CorrectPredictions).To(BeZero())
			Expect(p.Stats().Mispredictions).To(BeZero())
		})

		It("should retire the instruction pushed out by the penalty shift", func() {
			p.SetFetchAddress(0x0f0)
			p.InsertRType("add", 1, 2, 3)
			p.SetFetchAddress(0x0f4)
			p.InsertRType("add", 4, 5, 6)
			insertBranchFollowedBy(0x200)
			p.Advance()

			Expect(p.Stats().Instructions).To(Equal(uint64(1)))

			p.Drain()

			// The squashed slot never retires; the branch and its successors do.
			Expect(p.Stats().Instructions).To(Equal(uint64(4)))
		})

		It("should report resolutions through hooks", func() {
			recorder := &hookRecorder{}
			p.AcceptHook(recorder)
			insertBranchFollowedBy(0x200)

			p.Advance()

			Expect(recorder.branches).To(HaveLen(1))
			Expect(recorder.branches[0]).To(Equal(pipeline.BranchEvent{
				Address:     0x100,
				NextAddress: 0x200,
				Resolution: pipeline.Resolution{
					Evaluated: true,
					Taken:     true,
					Predicted: false,
					Correct:   false,
				},
			}))
		})
	})

	Describe("Memory stage", func() {
		const dataAddr = uint32(0x7fffeff8)

		insertLoadThenALU := func(alu insts.Operands) {
			p.SetFetchAddress(0x100)
			p.InsertLoadWord(8, insts.NoReg, dataAddr)
			p.SetFetchAddress(0x104)
			p.Insert(alu)
			advanceTo(p, pipeline.StageALU)
		}

		It("should stall one cycle on a load-use hazard", func() {
			insertLoadThenALU(insts.RType{Mnemonic: "add", Dest: 9, Reg1: 8, Reg2OrConst: 10})
			Expect(p.Stage(pipeline.StageMem).Kind()).To(Equal(insts.KindLoadWord))
			dcache.EXPECT().Access(dataAddr).Return(true)
			before := p.Stats().Cycles

			p.Advance()

			Expect(p.Stats().Cycles - before).To(Equal(uint64(2)))
			Expect(p.Stats().HazardStalls).To(Equal(uint64(1)))
		})

		It("should not stall when the ALU instruction is independent", func() {
			insertLoadThenALU(insts.RType{Mnemonic: "add", Dest: 9, Reg1: 7, Reg2OrConst: 10})
			dcache.EXPECT().Access(dataAddr).Return(true)
			before := p.Stats().Cycles

			p.Advance()

			Expect(p.Stats().Cycles - before).To(Equal(uint64(1)))
			Expect(p.Stats().HazardStalls).To(BeZero())
		})

		It("should charge the miss penalty on a data miss", func() {
			insertLoadThenALU(insts.RType{Mnemonic: "add", Dest: 9, Reg1: 8, Reg2OrConst: 10})
			dcache.EXPECT().Access(dataAddr).Return(false)
			before := p.Stats().Cycles

			p.Advance()

			Expect(p.Stats().Cycles - before).To(Equal(uint64(10)))
			Expect(p.Stats().MemStallCycles).To(Equal(uint64(9)))
			Expect(p.Stats().HazardStalls).To(BeZero())
		})

		It("should use the configured miss delay", func() {
			p = pipeline.NewPipeline(dcache, pipeline.WithTimingConfig(
				&latency.TimingConfig{CacheMissDelay: 4, HazardStallCycles: 1}))
			p.SetFetchAddress(0x100)
			p.InsertStoreWord(5, insts.NoReg, dataAddr)
			advanceTo(p, pipeline.StageMem)
			dcache.EXPECT().Access(dataAddr).Return(false)
			before := p.Stats().Cycles

			p.Advance()

			Expect(p.Stats().Cycles - before).To(Equal(uint64(4)))
		})

		It("should check the source register of a store", func() {
			p.SetFetchAddress(0x100)
			p.InsertStoreWord(5, insts.NoReg, dataAddr)
			p.SetFetchAddress(0x104)
			p.InsertBranch(6, 5)
			advanceTo(p, pipeline.StageALU)
			dcache.EXPECT().Access(dataAddr).Return(true)

			recorder := &hookRecorder{}
			p.AcceptHook(recorder)
			p.Advance()

			Expect(p.Stats().HazardStalls).To(Equal(uint64(1)))
			Expect(recorder.accesses).To(Equal([]pipeline.DataAccessEvent{
				{Address: dataAddr, Store: true, Hit: true, Hazard: true},
			}))
		})

		It("should not access the cache for other instructions", func() {
			p.SetFetchAddress(0x100)
			p.InsertRType("add", 1, 2, 3)
			p.SetFetchAddress(0x104)
			p.InsertJump("jr")
			p.Drain()

			Expect(p.Stats().Instructions).To(Equal(uint64(2)))
		})
	})

	Describe("StallFetch", func() {
		It("should advance the given number of times", func() {
			recorder := &hookRecorder{}
			p.AcceptHook(recorder)

			p.StallFetch(9)

			Expect(p.Stats().Cycles).To(Equal(uint64(9)))
			Expect(p.Stats().FetchStallCycles).To(Equal(uint64(9)))
			Expect(recorder.cycles).To(Equal(9))
		})
	})

	Describe("Reset", func() {
		It("should clear stages and statistics", func() {
			p.SetFetchAddress(0x100)
			p.InsertRType("add", 1, 2, 3)

			p.Reset()

			Expect(p.Empty()).To(BeTrue())
			Expect(p.FetchAddress()).To(BeZero())
			Expect(p.Stats()).To(Equal(pipeline.Statistics{}))
		})
	})
})
