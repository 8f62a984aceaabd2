package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/iplcsim/insts"
	"github.com/sarchlab/iplcsim/timing/pipeline"
)

var _ = Describe("HazardUnit", func() {
	var hazardUnit *pipeline.HazardUnit

	load := pipeline.Slot{Address: 0x100, Ops: insts.LoadWord{Dest: 8, Base: 29, DataAddress: 0x1000}}
	store := pipeline.Slot{Address: 0x100, Ops: insts.StoreWord{Src: 8, Base: 29, DataAddress: 0x1000}}

	BeforeEach(func() {
		hazardUnit = pipeline.NewHazardUnit()
	})

	DescribeTable("DetectDataHazard",
		func(mem pipeline.Slot, alu insts.Operands, expected bool) {
			got := hazardUnit.DetectDataHazard(mem, pipeline.Slot{Address: 0x104, Ops: alu})
			Expect(got).To(Equal(expected))
		},
		Entry("rtype reads the load destination as reg1", load,
			insts.RType{Dest: 1, Reg1: 8, Reg2OrConst: 2}, true),
		Entry("rtype reads the load destination as reg2", load,
			insts.RType{Dest: 1, Reg1: 2, Reg2OrConst: 8}, true),
		Entry("rtype writes the load destination", load,
			insts.RType{Dest: 8, Reg1: 1, Reg2OrConst: 2}, true),
		Entry("rtype is independent", load,
			insts.RType{Dest: 1, Reg1: 2, Reg2OrConst: 3}, false),
		Entry("load shares the destination", load,
			insts.LoadWord{Dest: 8, Base: 1}, true),
		Entry("load uses it as base", load,
			insts.LoadWord{Dest: 1, Base: 8}, true),
		Entry("store uses it as source", store,
			insts.StoreWord{Src: 8, Base: 1}, true),
		Entry("store uses it as base", store,
			insts.StoreWord{Src: 1, Base: 8}, true),
		Entry("branch compares it", store,
			insts.Branch{Reg1: 1, Reg2: 8}, true),
		Entry("branch is independent", store,
			insts.Branch{Reg1: 1, Reg2: 2}, false),
		Entry("jump never conflicts", load, insts.Jump{Mnemonic: "jr"}, false),
		Entry("syscall never conflicts", load, insts.Syscall{}, false),
		Entry("nop never conflicts", load, insts.Nop{}, false),
		Entry("bubble never conflicts", load, nil, false),
	)

	It("should ignore the base register of the memory instruction", func() {
		alu := pipeline.Slot{Ops: insts.RType{Dest: 1, Reg1: 29, Reg2OrConst: 2}}
		Expect(hazardUnit.DetectDataHazard(load, alu)).To(BeFalse())
	})

	It("should never match an unnamed register", func() {
		mem := pipeline.Slot{Ops: insts.LoadWord{Dest: insts.NoReg, Base: insts.NoReg}}
		alu := pipeline.Slot{Ops: insts.RType{Mnemonic: "lui", Dest: 1, Reg1: insts.NoReg, Reg2OrConst: insts.NoReg}}

		Expect(hazardUnit.DetectDataHazard(mem, alu)).To(BeFalse())
	})

	It("should report no hazard when Mem is not a memory instruction", func() {
		mem := pipeline.Slot{Ops: insts.RType{Dest: 8}}
		alu := pipeline.Slot{Ops: insts.RType{Reg1: 8}}

		Expect(hazardUnit.DetectDataHazard(mem, alu)).To(BeFalse())
	})
})
