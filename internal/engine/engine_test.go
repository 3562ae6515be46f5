package engine_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/windsim/internal/config"
	"github.com/san-kum/windsim/internal/dynamo"
	"github.com/san-kum/windsim/internal/engine"
	"github.com/san-kum/windsim/internal/metrics"
	"github.com/san-kum/windsim/internal/params"
	"github.com/san-kum/windsim/internal/shm"
	"github.com/san-kum/windsim/internal/stage"
	"github.com/san-kum/windsim/internal/storage"
)

func ballCSV() string {
	data, err := os.ReadFile(filepath.Join("testdata", "ball.csv"))
	Expect(err).NotTo(HaveOccurred())
	return string(data)
}

// withRows appends rows to a parameter file; later rows override earlier ones.
func withRows(base string, rows ...string) string {
	return base + strings.Join(rows, "\n") + "\n"
}

func without(base, name string) string {
	var kept []string
	for _, line := range strings.Split(base, "\n") {
		if !strings.HasPrefix(line, name+",") {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func load(body string) *params.Store {
	s, err := params.Load(strings.NewReader(body))
	Expect(err).NotTo(HaveOccurred())
	return s
}

func lastLine(buf *bytes.Buffer) string {
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	return lines[len(lines)-1]
}

func number(t *params.Table, name string) float64 {
	v, err := t.Number(name)
	Expect(err).NotTo(HaveOccurred())
	return v
}

var _ = Describe("Engine", func() {
	var (
		out *bytes.Buffer
		log *logrus.Entry
	)

	BeforeEach(func() {
		out = &bytes.Buffer{}
		logger := logrus.New()
		logger.SetOutput(out)
		logger.SetLevel(logrus.DebugLevel)
		log = logrus.NewEntry(logger)
	})

	Describe("the ball thrown in air", func() {
		It("reproduces the closed-form trajectory and exits cleanly", func() {
			data := storage.New(GinkgoT().TempDir())
			store := load(ballCSV())
			eng, err := engine.New(store, engine.Options{Log: log, Storage: data})
			Expect(err).NotTo(HaveOccurred())

			sum, err := eng.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(eng.Close()).To(Succeed())

			Expect(sum.Steps).To(Equal(int64(100)))
			Expect(sum.SimTime).To(BeNumerically("~", 1.0, 1e-12))
			Expect(number(store.Dynamic, "theta")).To(BeNumerically("~", 5.0-0.5*9.81, 1e-9))
			Expect(number(store.Dynamic, "omega")).To(BeNumerically("~", 5.0-9.81, 1e-9))
			Expect(number(store.Dynamic, "time")).To(BeNumerically("~", 1.0, 1e-12))
			Expect(dynamo.ExitCode(err)).To(Equal(0))
			Expect(lastLine(out)).To(ContainSubstring("msg=closing"))

			meta, err := data.Load(sum.RunID)
			Expect(err).NotTo(HaveOccurred())
			Expect(meta.Status).To(Equal("ok"))
			Expect(meta.Stages).To(HaveKeyWithValue("integrator", "rk4_integrator"))
			Expect(meta.Stages).To(HaveKeyWithValue("drivetrain", stage.UnsetID))

			times, theta, err := data.LoadSeries(sum.RunID, "theta")
			Expect(err).NotTo(HaveOccurred())
			Expect(times).To(HaveLen(101))
			for i, tm := range times {
				Expect(theta[i]).To(BeNumerically("~", 5*tm-0.5*9.81*tm*tm, 1e-6))
			}
		})

		DescribeTable("every integrator lands near the analytic height",
			func(id string, tol float64) {
				store := load(withRows(ballCSV(), "integrator_function_call,char,fixed,"+id))
				eng, err := engine.New(store, engine.Options{Log: log})
				Expect(err).NotTo(HaveOccurred())
				_, err = eng.Run(context.Background())
				Expect(err).NotTo(HaveOccurred())
				Expect(eng.Close()).To(Succeed())
				Expect(number(store.Dynamic, "theta")).To(BeNumerically("~", 5.0-0.5*9.81, tol))
			},
			Entry("euler", "euler_integrator", 0.06),
			Entry("ab2", "ab2_integrator", 1e-3),
			Entry("rk4", "rk4_integrator", 1e-9),
		)

		It("writes process_argv back into the parameter file when logging", func() {
			path := filepath.Join(GinkgoT().TempDir(), "ball.csv")
			Expect(os.WriteFile(path, []byte(ballCSV()), 0o644)).To(Succeed())
			store, err := params.LoadFile(path)
			Expect(err).NotTo(HaveOccurred())

			eng, err := engine.New(store, engine.Options{
				Log:       log,
				Storage:   storage.New(GinkgoT().TempDir()),
				Argv:      []string{"windsim", "run", "--logging", "1"},
				ParentPID: 4242,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(eng.Close()).To(Succeed())

			written, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(written)).To(ContainSubstring("process_argv,char,fixed,windsim run --logging 1"))
			pid, err := store.Fixed.Int("parent_pid")
			Expect(err).NotTo(HaveOccurred())
			Expect(*pid).To(Equal(4242))
		})
	})

	Describe("dispatch", func() {
		It("fails with the valid alternatives for an unknown identifier", func() {
			store := load(withRows(ballCSV(), "integrator_function_call,char,fixed,rk5_integrator"))
			_, err := engine.New(store, engine.Options{Log: log})

			var unknown *stage.UnknownStageError
			Expect(errors.As(err, &unknown)).To(BeTrue())
			Expect(unknown.ID).To(Equal("rk5_integrator"))
			Expect(out.String()).To(ContainSubstring("invalid stage identifier"))
			Expect(out.String()).To(ContainSubstring("euler_integrator,ab2_integrator,rk4_integrator"))
			Expect(dynamo.ExitCode(err)).To(Equal(1))
		})

		It("requires a selector for every top-level stage", func() {
			store := load(without(ballCSV(), "data_proc_function_call"))
			_, err := engine.New(store, engine.Options{Log: log})
			Expect(err).To(MatchError(params.ErrNotFound))
		})

		It("fails loudly when a nested stage was never selected", func() {
			store := load(withRows(ballCSV(),
				"eom_function_call,char,fixed,rotor_eom",
				"rotor_inertia,double,fixed,10",
			))
			eng, err := engine.New(store, engine.Options{Log: log})
			Expect(err).NotTo(HaveOccurred())
			Expect(eng.ActiveID(engine.KindDrivetrain)).To(Equal(stage.UnsetID))

			sum, err := eng.Run(context.Background())
			Expect(err).To(MatchError(dynamo.ErrUnsetStage))
			Expect(sum.Steps).To(BeZero())
			Expect(number(store.Dynamic, "omega")).To(Equal(5.0))
			Expect(out.String()).To(ContainSubstring("should not be here"))
			Expect(eng.Close()).To(Succeed())
			Expect(lastLine(out)).To(ContainSubstring("msg=closing"))
		})
	})

	Describe("the main loop", func() {
		It("runs the controller at the control rate", func() {
			store := load(withRows(ballCSV(), "control_dt,double,fixed,0.05"))
			reg := prometheus.NewRegistry()
			loop, err := metrics.NewLoop(reg)
			Expect(err).NotTo(HaveOccurred())

			eng, err := engine.New(store, engine.Options{Log: log, Metrics: loop})
			Expect(err).NotTo(HaveOccurred())
			sum, err := eng.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(eng.Close()).To(Succeed())

			Expect(sum.ControlFirings).To(Equal(int64(20)))
			Expect(testutil.ToFloat64(loop.ControlFirings)).To(Equal(20.0))
			Expect(testutil.ToFloat64(loop.Ticks)).To(Equal(100.0))
		})

		It("stops with ErrInterrupted when the context is cancelled", func() {
			eng, err := engine.New(load(ballCSV()), engine.Options{Log: log})
			Expect(err).NotTo(HaveOccurred())
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			sum, err := eng.Run(ctx)
			Expect(err).To(MatchError(dynamo.ErrInterrupted))
			Expect(sum.Steps).To(BeZero())
			Expect(dynamo.ExitCode(err)).To(Equal(1))
			Expect(eng.Close()).To(Succeed())
		})

		It("refuses a second run", func() {
			eng, err := engine.New(load(ballCSV()), engine.Options{Log: log})
			Expect(err).NotTo(HaveOccurred())
			_, err = eng.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			_, err = eng.Run(context.Background())
			Expect(err).To(HaveOccurred())
			Expect(eng.Close()).To(Succeed())
		})

		It("keeps the last full history for controllers", func() {
			store := load(withRows(ballCSV(), `history_vars,char,fixed,"omega,theta"`, "history_depth,int,fixed,3"))
			eng, err := engine.New(store, engine.Options{Log: log})
			Expect(err).NotTo(HaveOccurred())
			_, err = eng.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			h, err := eng.Env().History.Get("omega")
			Expect(err).NotTo(HaveOccurred())
			h.Refresh()
			Expect(h.LocalTicks()).To(Equal([]int64{98, 99, 100}))
			Expect(h.Local()[2]).To(BeNumerically("~", 5.0-9.81, 1e-9))
			Expect(eng.Close()).To(Succeed())
		})
	})

	Describe("history depth", func() {
		It("must be an int parameter", func() {
			store := load(withRows(ballCSV(), "history_vars,char,fixed,omega", "history_depth,double,fixed,3.7"))
			_, err := engine.New(store, engine.Options{Log: log})
			Expect(err).To(MatchError(params.ErrTypeMismatch))
		})

		It("must be positive", func() {
			store := load(withRows(ballCSV(), "history_vars,char,fixed,omega", "history_depth,int,fixed,0"))
			_, err := engine.New(store, engine.Options{Log: log})
			Expect(err).To(HaveOccurred())
		})

		It("defaults to one slot", func() {
			store := load(withRows(ballCSV(), "history_vars,char,fixed,omega"))
			eng, err := engine.New(store, engine.Options{Log: log})
			Expect(err).NotTo(HaveOccurred())
			h, err := eng.Env().History.Get("omega")
			Expect(err).NotTo(HaveOccurred())
			Expect(h.Depth()).To(Equal(1))
			Expect(eng.Close()).To(Succeed())
		})
	})

	Describe("embedded presets", func() {
		It("all dispatch and run a short interval", func() {
			for _, name := range config.PresetNames() {
				store := load(withRows(string(config.GetPreset(name)), "dur_sec,double,fixed,0.5"))
				eng, err := engine.New(store, engine.Options{Log: log})
				Expect(err).NotTo(HaveOccurred(), name)
				sum, err := eng.Run(context.Background())
				Expect(err).NotTo(HaveOccurred(), name)
				Expect(sum.Steps).To(Equal(int64(50)), name)
				Expect(eng.Close()).To(Succeed(), name)
			}
		})
	})

	Describe("a turbine in measured wind", func() {
		var windPath, shmName string

		BeforeEach(func() {
			windPath = filepath.Join(GinkgoT().TempDir(), "wind.csv")
			Expect(os.WriteFile(windPath, []byte("time,speed\n0,8\n0.5,9\n1,8\n"), 0o644)).To(Succeed())
			shmName = fmt.Sprintf("/windsim_engine_%d", os.Getpid())
		})

		turbine := func(dur string, policy string) *params.Store {
			base := string(config.GetPreset("turbine"))
			return load(withRows(base,
				"dur_sec,double,fixed,"+dur,
				"flow_gen_function_call,char,fixed,csv_fixed_interp_flow_gen",
				"flow_csv_path,char,fixed,"+windPath,
				"flow_data_end_policy,char,fixed,"+policy,
				"shm_name,char,fixed,"+shmName,
			))
		}

		newOrSkip := func(store *params.Store) *engine.Engine {
			eng, err := engine.New(store, engine.Options{Log: log})
			if errors.Is(err, shm.ErrUnsupported) {
				Skip("shared memory not supported")
			}
			Expect(err).NotTo(HaveOccurred())
			return eng
		}

		It("spins the rotor up and releases the cache on close", func() {
			store := turbine("1.0", "shutdown")
			eng := newOrSkip(store)
			Expect(number(store.Fixed, "flow_total_duration")).To(Equal(1.0))

			_, err := eng.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			omega := number(store.Dynamic, "omega")
			Expect(omega).To(BeNumerically(">", 1.0))
			Expect(math.IsInf(omega, 0) || math.IsNaN(omega)).To(BeFalse())
			Expect(number(store.Dynamic, "gen_torque_cmd")).To(BeNumerically(">", 0))

			Expect(eng.Close()).To(Succeed())
			_, err = shm.OpenReadOnly(shmName, 101)
			Expect(err).To(MatchError(shm.ErrNotExist))
		})

		It("shuts down when the wind data runs out", func() {
			eng := newOrSkip(turbine("2.0", "shutdown"))
			sum, err := eng.Run(context.Background())
			Expect(err).To(MatchError(dynamo.ErrDataExhausted))
			Expect(sum.Steps).To(Equal(int64(101)))
			Expect(eng.Close()).To(Succeed())
		})

		It("holds the last sample when configured to", func() {
			store := turbine("2.0", "hold")
			eng := newOrSkip(store)
			sum, err := eng.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(sum.Steps).To(Equal(int64(200)))
			Expect(number(store.Dynamic, "flow_speed")).To(BeNumerically("~", 8.0, 1e-9))
			Expect(eng.Close()).To(Succeed())
		})
	})
})
