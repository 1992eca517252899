// Package monitoring turns a running simulation into a web server, so that
// the engine can be paused and the state of nodes, buffers, and protocol
// engines can be inspected while it runs.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"reflect"
	"runtime/pprof"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unsafe"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/sarchlab/protoengine/monitoring/web"
	"github.com/sarchlab/protoengine/protocol/protocolengine"
	"github.com/sarchlab/protoengine/sim"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// A StatsProvider reports the statistics of a protocol engine.
type StatsProvider interface {
	Name() string
	Stats() protocolengine.Stats
}

// Monitor can turn a simulation into a server and allows external monitoring
// controlling of the simulation.
type Monitor struct {
	engine     sim.Engine
	components []sim.Component
	buffers    []BufferLevel
	providers  []StatsProvider
	portNumber int

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterEngine registers the engine that is used in the simulation.
func (m *Monitor) RegisterEngine(e sim.Engine) {
	m.engine = e
}

// RegisterComponent register a component to be monitored. The buffers held
// directly by the component are registered too.
func (m *Monitor) RegisterComponent(c sim.Component) {
	m.components = append(m.components, c)

	m.registerBuffers(c)
}

// BufferLevel is a queue watched by the hang detector. A capacity of 0 or
// less means the queue is unbounded.
type BufferLevel interface {
	Name() string
	Size() int
	PeakSize() int
	Capacity() int
}

// RegisterBuffer registers a queue that is not a buffer field of any
// component, such as the input queues of a protocol engine.
func (m *Monitor) RegisterBuffer(b BufferLevel) {
	m.buffers = append(m.buffers, b)
}

// RegisterStatsProvider registers a protocol engine whose statistics can be
// queried.
func (m *Monitor) RegisterStatsProvider(p StatsProvider) {
	m.providers = append(m.providers, p)
}

func (m *Monitor) registerBuffers(c any) {
	v := reflect.ValueOf(c)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return
	}

	v = v.Elem()
	bufferType := reflect.TypeOf((*sim.Buffer)(nil)).Elem()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if field.Type() != bufferType || field.IsNil() {
			continue
		}

		fieldRef := reflect.NewAt(
			field.Type(),
			unsafe.Pointer(field.UnsafeAddr()),
		).Elem().Interface().(sim.Buffer)
		m.buffers = append(m.buffers, fieldRef)
	}
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        sim.GetIDGenerator().Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the handler that serves the monitoring API and the web page.
func (m *Monitor) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/tick/{name}", m.tick)
	r.HandleFunc("/api/list_components", m.listComponents)
	r.HandleFunc("/api/component/{name}", m.listComponentDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/hangdetector/buffers", m.hangDetectorBuffers)
	r.HandleFunc("/api/engines", m.listEngines)
	r.HandleFunc("/api/engine/{name}/stats", m.engineStats)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the monitor as a web server and returns the port it
// listens on.
func (m *Monitor) StartServer() (int, error) {
	addr := ":" + strconv.Itoa(m.portNumber)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return 0, err
	}

	port := listener.Addr().(*net.TCPAddr).Port
	fmt.Fprintf(os.Stderr,
		"Monitoring simulation with http://localhost:%d\n", port)

	go func() {
		err := http.Serve(listener, m.Router())
		dieOnErr(err)
	}()

	return port, nil
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Pause()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Continue()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	now := m.engine.CurrentTime()
	fmt.Fprintf(w, "{\"now\":%d}", now)
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(m.components))
	for _, c := range m.components {
		names = append(names, c.Name())
	}

	writeJSON(w, names)
}

type tickingComponent interface {
	TickLater()
}

func (m *Monitor) tick(w http.ResponseWriter, r *http.Request) {
	compName := mux.Vars(r)["name"]

	comp := m.findComponentOr404(w, compName)
	if comp == nil {
		return
	}

	tickingComp, ok := comp.(tickingComponent)
	if !ok {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	tickingComp.TickLater()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	component := m.findComponentOr404(w, name)
	if component == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type fieldReq struct {
	CompName  string `json:"comp_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	component := m.findComponentOr404(w, req.CompName)
	if component == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	err = serializer.Serialize(w)
	dieOnErr(err)
}

type bufferLevel struct {
	Buffer string `json:"buffer"`
	Level  int    `json:"level"`
	Peak   int    `json:"peak"`
	Cap    int    `json:"cap"`
}

func (m *Monitor) hangDetectorBuffers(w http.ResponseWriter, r *http.Request) {
	sortMethod, limit, offset, err := m.buffersParseParams(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	sortedBuffers := m.sortAndSelectBuffers(sortMethod, limit, offset)

	levels := make([]bufferLevel, 0, len(sortedBuffers))
	for _, b := range sortedBuffers {
		levels = append(levels, bufferLevel{
			Buffer: b.Name(),
			Level:  b.Size(),
			Peak:   b.PeakSize(),
			Cap:    b.Capacity(),
		})
	}

	writeJSON(w, levels)
}

func (*Monitor) buffersParseParams(
	r *http.Request,
) (sort string, limit, offset int, err error) {
	sortMethod := r.URL.Query().Get("sort")
	if sortMethod == "" {
		sortMethod = "percent"
	}

	if sortMethod != "level" && sortMethod != "percent" {
		return "", 0, 0, fmt.Errorf(
			"invalid sort method: %s, allowed values are `level` and `percent`",
			sortMethod)
	}

	limitNumber, err := intParam(r, "limit")
	if err != nil {
		return sortMethod, 0, 0, err
	}

	offsetNumber, err := intParam(r, "offset")
	if err != nil {
		return sortMethod, limitNumber, 0, err
	}

	if limitNumber < 0 || offsetNumber < 0 {
		return sortMethod, 0, 0, errors.New("limit and offset cannot be negative")
	}

	return sortMethod, limitNumber, offsetNumber, nil
}

func intParam(r *http.Request, key string) (int, error) {
	str := r.URL.Query().Get(key)
	if str == "" {
		return 0, nil
	}

	return strconv.Atoi(str)
}

// bufferPercent returns how full a buffer is. Unbounded buffers are never
// full, so they report 0.
func bufferPercent(b BufferLevel) float64 {
	if b.Capacity() <= 0 {
		return 0
	}

	return float64(b.Size()) / float64(b.Capacity())
}

// sortAndSelectBuffers sorts the registered buffers and returns a page of
// them. A limit of 0 returns every buffer after the offset.
func (m *Monitor) sortAndSelectBuffers(
	sortMethod string,
	limit, offset int,
) []BufferLevel {
	sortedBuffers := make([]BufferLevel, len(m.buffers))
	copy(sortedBuffers, m.buffers)

	switch sortMethod {
	case "level":
		sort.SliceStable(sortedBuffers, func(i, j int) bool {
			sizeI := sortedBuffers[i].Size()
			sizeJ := sortedBuffers[j].Size()

			if sizeI != sizeJ {
				return sizeI > sizeJ
			}

			return bufferPercent(sortedBuffers[i]) >
				bufferPercent(sortedBuffers[j])
		})
	case "percent":
		sort.SliceStable(sortedBuffers, func(i, j int) bool {
			percentI := bufferPercent(sortedBuffers[i])
			percentJ := bufferPercent(sortedBuffers[j])

			if percentI != percentJ {
				return percentI > percentJ
			}

			return sortedBuffers[i].Size() > sortedBuffers[j].Size()
		})
	default:
		log.Panicf("invalid sort method %s", sortMethod)
	}

	if offset > len(sortedBuffers) {
		offset = len(sortedBuffers)
	}

	end := len(sortedBuffers)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	return sortedBuffers[offset:end]
}

func (m *Monitor) listEngines(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(m.providers))
	for _, p := range m.providers {
		names = append(names, p.Name())
	}

	writeJSON(w, names)
}

func (m *Monitor) engineStats(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	for _, p := range m.providers {
		if p.Name() == name {
			writeJSON(w, p.Stats())
			return
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Engine not found"))
	dieOnErr(err)
}

type fieldFormatError struct {
	field string
}

func (e fieldFormatError) Error() string {
	return fmt.Sprintf("field %q is not a slice index", e.field)
}

// walkFields follows a dot-separated path of field names and slice indices
// from comp.
func (m *Monitor) walkFields(
	comp interface{},
	fields string,
) (reflect.Value, error) {
	elem := reflect.ValueOf(comp)

	fieldNames := strings.Split(fields, ".")

	for len(fieldNames) > 0 {
		switch elem.Kind() {
		case reflect.Ptr, reflect.Interface:
			elem = elem.Elem()
		case reflect.Struct:
			elem = elem.FieldByName(fieldNames[0])
			fieldNames = fieldNames[1:]
		case reflect.Slice:
			index, err := strconv.Atoi(fieldNames[0])
			if err != nil {
				return elem, fieldFormatError{field: fieldNames[0]}
			}

			elem = elem.Index(index)
			fieldNames = fieldNames[1:]
		default:
			log.Panicf("kind %s not supported", elem.Kind())
		}
	}

	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}

	return elem, nil
}

func (m *Monitor) findComponentOr404(
	w http.ResponseWriter,
	name string,
) sim.Component {
	for _, c := range m.components {
		if c.Name() == name {
			return c
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Component not found"))
	dieOnErr(err)

	return nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	writeJSON(w, m.progressBars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memorySize, err := proc.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
