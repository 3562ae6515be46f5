package stage_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/windsim/internal/dynamo"
	"github.com/san-kum/windsim/internal/params"
	"github.com/san-kum/windsim/internal/stage"
)

type countingFlow struct {
	id    string
	calls *[]string
}

func (c *countingFlow) Generate(*dynamo.Env) { *c.calls = append(*c.calls, c.id) }

var _ = Describe("Registry", func() {
	var (
		env   *dynamo.Env
		out   *bytes.Buffer
		calls []string
		reg   *stage.Registry[dynamo.FlowGenerator]
	)

	entry := func(id string) stage.Entry[dynamo.FlowGenerator] {
		return stage.Entry[dynamo.FlowGenerator]{
			ID:  id,
			New: func() dynamo.FlowGenerator { return &countingFlow{id: id, calls: &calls} },
		}
	}

	BeforeEach(func() {
		out = &bytes.Buffer{}
		logger := logrus.New()
		logger.SetOutput(out)
		env = dynamo.NewEnv(params.NewStore(), logrus.NewEntry(logger))
		calls = nil
		reg = stage.NewRegistry[dynamo.FlowGenerator]("flow_gen", stage.NewUnset("flow_gen", env),
			entry("constant_flow_gen"),
			entry("csv_fixed_interp_flow_gen"),
		)
	})

	It("starts with the fallback active", func() {
		Expect(reg.Dispatched()).To(BeFalse())
		Expect(reg.ActiveID()).To(Equal(stage.UnsetID))
	})

	It("lists identifiers in declaration order", func() {
		Expect(reg.IDs()).To(Equal([]string{"constant_flow_gen", "csv_fixed_interp_flow_gen"}))
	})

	It("invokes exactly the dispatched implementation until another dispatch", func() {
		Expect(reg.Dispatch("csv_fixed_interp_flow_gen")).To(BeTrue())
		for i := 0; i < 3; i++ {
			reg.Active().Generate(env)
		}
		Expect(calls).To(Equal([]string{"csv_fixed_interp_flow_gen", "csv_fixed_interp_flow_gen", "csv_fixed_interp_flow_gen"}))

		Expect(reg.Dispatch("constant_flow_gen")).To(BeTrue())
		reg.Active().Generate(env)
		Expect(calls[len(calls)-1]).To(Equal("constant_flow_gen"))
		Expect(reg.ActiveID()).To(Equal("constant_flow_gen"))
	})

	It("keeps the previous implementation when dispatch misses", func() {
		Expect(reg.Dispatch("constant_flow_gen")).To(BeTrue())
		Expect(reg.Dispatch("turbulent_flow_gen")).To(BeFalse())
		Expect(reg.ActiveID()).To(Equal("constant_flow_gen"))
		reg.Active().Generate(env)
		Expect(calls).To(Equal([]string{"constant_flow_gen"}))
	})

	It("treats identifiers as exact, case-sensitive matches", func() {
		Expect(reg.Dispatch("Constant_Flow_Gen")).To(BeFalse())
		Expect(reg.Dispatch("constant_flow_gen ")).To(BeFalse())
		Expect(reg.Dispatched()).To(BeFalse())
	})

	It("last registration wins", func() {
		reg.Register("a", &countingFlow{id: "a", calls: &calls})
		reg.Register("b", &countingFlow{id: "b", calls: &calls})
		reg.Active().Generate(env)
		Expect(calls).To(Equal([]string{"b"}))
	})

	Describe("DispatchOrAbort", func() {
		It("reports the valid identifiers and raises shutdown on a miss", func() {
			err := reg.DispatchOrAbort("turbulent_flow_gen", env.Shutdown, env.Log)
			Expect(err).To(MatchError(stage.ErrUnknownStage))

			var unknown *stage.UnknownStageError
			Expect(err).To(BeAssignableToTypeOf(unknown))
			unknown = err.(*stage.UnknownStageError)
			Expect(unknown.Valid).To(ConsistOf("constant_flow_gen", "csv_fixed_interp_flow_gen"))

			Expect(env.Shutdown.Requested()).To(BeTrue())
			Expect(reg.Dispatched()).To(BeFalse())
			Expect(out.String()).To(ContainSubstring("turbulent_flow_gen"))
			Expect(out.String()).To(ContainSubstring("constant_flow_gen,csv_fixed_interp_flow_gen"))
		})

		It("leaves shutdown clear on a hit", func() {
			Expect(reg.DispatchOrAbort("constant_flow_gen", env.Shutdown, env.Log)).To(Succeed())
			Expect(env.Shutdown.Requested()).To(BeFalse())
		})
	})

	Describe("Unset fallback", func() {
		It("logs and raises shutdown when invoked", func() {
			reg.Active().Generate(env)
			Expect(env.Shutdown.Requested()).To(BeTrue())
			Expect(env.Shutdown.Err()).To(MatchError(dynamo.ErrUnsetStage))
			Expect(out.String()).To(ContainSubstring("should not be here"))
		})

		It("fails integration steps without touching state", func() {
			sv, err := dynamo.Standalone([]string{"x"}, dynamo.State{1})
			Expect(err).NotTo(HaveOccurred())
			u := stage.NewUnset("integrator", env)
			Expect(u.Step(nil, sv, 0.1)).To(MatchError(dynamo.ErrUnsetStage))
			Expect(sv.At(0)).To(Equal(1.0))
		})
	})

	It("panics on duplicate identifiers", func() {
		Expect(func() {
			stage.NewRegistry[dynamo.FlowGenerator]("flow_gen", nil, entry("a"), entry("a"))
		}).To(Panic())
	})
})
