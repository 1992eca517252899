package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/protoengine/protocol/protocolengine"
	"github.com/sarchlab/protoengine/sim"
)

type sampleStruct struct {
	field1 int
	field2 string
	field3 *sampleStruct
	field4 []sampleStruct
}

type sampleComponent struct {
	*sim.ComponentBase

	inBuf    sim.Buffer
	outBuf   sim.Buffer
	spareBuf sim.Buffer
	ticked   int
}

func (c *sampleComponent) Handle(_ sim.Event) error {
	return nil
}

func (c *sampleComponent) TickLater() {
	c.ticked++
}

func newSampleComponent() *sampleComponent {
	return &sampleComponent{
		ComponentBase: sim.NewComponentBase("Comp"),
		inBuf:         sim.NewBuffer("Comp.In", 10),
		outBuf:        sim.NewBuffer("Comp.Out", 0),
	}
}

type sampleProvider struct {
	stats protocolengine.Stats
}

func (p sampleProvider) Name() string {
	return p.stats.Engine
}

func (p sampleProvider) Stats() protocolengine.Stats {
	return p.stats
}

type sampleQueue struct{}

func (sampleQueue) Name() string  { return "HE.InputQ.VC0" }
func (sampleQueue) Size() int     { return 5 }
func (sampleQueue) PeakSize() int { return 7 }
func (sampleQueue) Capacity() int { return 0 }

var _ = Describe("Monitor", func() {
	var (
		m    *Monitor
		comp *sampleComponent
	)

	get := func(url string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()
		m.Router().ServeHTTP(rec, req)

		return rec
	}

	BeforeEach(func() {
		m = NewMonitor()
		m.RegisterEngine(sim.NewSerialEngine())
		comp = newSampleComponent()
		m.RegisterComponent(comp)
	})

	It("should register components and their non-nil buffers", func() {
		Expect(m.components).To(HaveLen(1))
		Expect(m.buffers).To(HaveLen(2))
	})

	It("should ignore small port numbers", func() {
		m.WithPortNumber(80)

		Expect(m.portNumber).To(Equal(0))
	})

	It("should list components", func() {
		rec := get("/api/list_components")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`["Comp"]`))
	})

	It("should report the current time", func() {
		rec := get("/api/now")

		Expect(rec.Body.String()).To(MatchJSON(`{"now":0}`))
	})

	It("should tick a component", func() {
		rec := get("/api/tick/Comp")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(comp.ticked).To(Equal(1))
	})

	It("should answer 404 for unknown components", func() {
		rec := get("/api/tick/Other")

		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	Context("when listing buffers", func() {
		BeforeEach(func() {
			comp.inBuf.Push(1)
			comp.outBuf.Push(1)
			comp.outBuf.Push(2)
			comp.outBuf.Push(3)
			comp.outBuf.Pop()
		})

		It("should sort by level", func() {
			rec := get("/api/hangdetector/buffers?sort=level")

			Expect(rec.Body.String()).To(MatchJSON(`[
				{"buffer":"Comp.Out","level":2,"peak":3,"cap":0},
				{"buffer":"Comp.In","level":1,"peak":1,"cap":10}
			]`))
		})

		It("should sort by percent and treat unbounded buffers as empty",
			func() {
				rec := get("/api/hangdetector/buffers")

				Expect(rec.Body.String()).To(MatchJSON(`[
					{"buffer":"Comp.In","level":1,"peak":1,"cap":10},
					{"buffer":"Comp.Out","level":2,"peak":3,"cap":0}
				]`))
			})

		It("should page the result", func() {
			rec := get("/api/hangdetector/buffers?sort=level&limit=1&offset=1")

			Expect(rec.Body.String()).To(MatchJSON(`[
				{"buffer":"Comp.In","level":1,"peak":1,"cap":10}
			]`))
		})

		It("should include queues registered on their own", func() {
			m.RegisterBuffer(sampleQueue{})

			rec := get("/api/hangdetector/buffers?sort=level&limit=1")

			Expect(rec.Body.String()).To(MatchJSON(`[
				{"buffer":"HE.InputQ.VC0","level":5,"peak":7,"cap":0}
			]`))
		})

		It("should return nothing past the end", func() {
			rec := get("/api/hangdetector/buffers?offset=5")

			Expect(rec.Body.String()).To(MatchJSON(`[]`))
		})

		It("should reject unknown sort methods", func() {
			rec := get("/api/hangdetector/buffers?sort=name")

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Context("with protocol engines", func() {
		BeforeEach(func() {
			m.RegisterStatsProvider(sampleProvider{protocolengine.Stats{
				Engine:         "Node[0].HE",
				Role:           "Home",
				ThreadsCreated: 3,
			}})
		})

		It("should list engines", func() {
			rec := get("/api/engines")

			Expect(rec.Body.String()).To(MatchJSON(`["Node[0].HE"]`))
		})

		It("should report engine statistics", func() {
			rec := get("/api/engine/Node[0].HE/stats")

			stats := protocolengine.Stats{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &stats)).To(Succeed())
			Expect(stats.Role).To(Equal("Home"))
			Expect(stats.ThreadsCreated).To(Equal(uint64(3)))
		})

		It("should answer 404 for unknown engines", func() {
			rec := get("/api/engine/Node[1].RE/stats")

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	It("should track progress bars", func() {
		bar := m.CreateProgressBar("Accesses", 10)
		bar.IncrementInProgress(4)
		bar.MoveInProgressToFinished(3)

		rec := get("/api/progress")
		bars := []map[string]any{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &bars)).To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0]["name"]).To(Equal("Accesses"))
		Expect(bars[0]["finished"]).To(BeNumerically("==", 3))
		Expect(bars[0]["in_progress"]).To(BeNumerically("==", 1))

		m.CompleteProgressBar(bar)
		Expect(m.progressBars).To(BeEmpty())
	})

	It("should walk int fields", func() {
		s := &sampleStruct{
			field1: 1,
		}

		elem, err := m.walkFields(s, "field1")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.Int))
		Expect(elem.Int()).To(Equal(int64(1)))
	})

	It("should walk string fields", func() {
		s := &sampleStruct{
			field2: "abc",
		}

		elem, err := m.walkFields(s, "field2")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.String))
		Expect(elem.String()).To(Equal("abc"))
	})

	It("should walk struct pointers", func() {
		s := &sampleStruct{
			field3: &sampleStruct{},
		}

		elem, err := m.walkFields(s, "field3")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.Struct))
		Expect(elem.Type().Name()).To(Equal("sampleStruct"))
	})

	It("should walk slices recursively", func() {
		s := &sampleStruct{
			field4: []sampleStruct{{
				field3: &sampleStruct{field1: 7},
			}, {}},
		}

		elem, err := m.walkFields(s, "field4.0.field3.field1")

		Expect(err).To(BeNil())
		Expect(elem.Int()).To(Equal(int64(7)))
	})

	It("should reject non-numeric slice indices", func() {
		s := &sampleStruct{
			field4: []sampleStruct{{}},
		}

		_, err := m.walkFields(s, "field4.first")

		Expect(err).To(MatchError(fieldFormatError{field: "first"}))
	})
})
