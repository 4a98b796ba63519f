// Package monitoring serves the state of running connectors over HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/simradio/connector"
	"github.com/sarchlab/simradio/monitoring/web"
	"github.com/sarchlab/simradio/sim"
	"github.com/sarchlab/simradio/tracing"
)

// Monitor turns a client process into a server that reports its connectors,
// radios and request latencies.
type Monitor struct {
	portNumber int

	lock       sync.Mutex
	connectors []*connector.Connector
	tracers    map[string]*tracing.AverageTimeTracer

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	server *http.Server
	url    string
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		tracers: make(map[string]*tracing.AverageTimeTracer),
	}
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

// RegisterConnector registers a connector to be monitored.
func (m *Monitor) RegisterConnector(c *connector.Connector) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.connectors = append(m.connectors, c)
}

// RegisterTracer publishes the statistics of a tracer under a name.
func (m *Monitor) RegisterTracer(name string, t *tracing.AverageTimeTracer) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.tracers[name] = t
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		id:    sim.GetIDGenerator().Generate(),
		name:  name,
		start: time.Now(),
		total: total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the webpage. A nil bar is ignored.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	if pb == nil {
		return
	}

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

// Router returns the routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/connectors", m.listConnectors)
	r.HandleFunc("/api/connector/{name}", m.connectorDetails)
	r.HandleFunc("/api/radio/{name}/{band}", m.radioDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/requests", m.listRequestStats)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	m.url = fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Fprintf(os.Stderr, "Monitoring connectors with %s\n", m.url)

	go func() {
		err := m.server.Serve(listener)
		if err != nil && err != http.ErrServerClosed {
			log.Panic(err)
		}
	}()

	return m.url
}

// OpenBrowser opens the monitor page in the default browser.
func (m *Monitor) OpenBrowser() error {
	if m.url == "" {
		return fmt.Errorf("monitoring server is not started")
	}

	return browser.OpenURL(m.url)
}

// StopServer shuts the web server down.
func (m *Monitor) StopServer() error {
	if m.server == nil {
		return nil
	}

	return m.server.Close()
}

func (m *Monitor) listConnectors(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	statuses := make([]connector.Status, 0, len(m.connectors))
	for _, c := range m.connectors {
		statuses = append(statuses, c.Status())
	}
	m.lock.Unlock()

	writeJSON(w, statuses)
}

func (m *Monitor) connectorDetails(w http.ResponseWriter, r *http.Request) {
	c := m.findConnectorOr404(w, mux.Vars(r)["name"])
	if c == nil {
		return
	}

	writeJSON(w, c.Status())
}

func (m *Monitor) radioDetails(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	c := m.findConnectorOr404(w, vars["name"])
	if c == nil {
		return
	}

	radio, ok := c.FindByBand(vars["band"])
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(radio)
	serializer.SetMaxDepth(1)

	err := serializer.Serialize(w)
	dieOnErr(err)
}

type fieldReq struct {
	Connector string `json:"connector,omitempty"`
	Band      string `json:"band,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

// listFieldValue serializes one field of a radio, addressed by a dotted path
// such as "signal.value".
func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	req := fieldReq{}

	err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	c := m.findConnectorOr404(w, req.Connector)
	if c == nil {
		return
	}

	radio, ok := c.FindByBand(req.Band)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(radio)
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

// RequestStats summarizes one registered tracer.
type RequestStats struct {
	Name      string  `json:"name"`
	Count     uint64  `json:"count"`
	Failures  uint64  `json:"failures"`
	InFlight  int     `json:"in_flight"`
	AverageMs float64 `json:"average_ms"`
	MaxMs     float64 `json:"max_ms"`
}

func (m *Monitor) listRequestStats(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	stats := make([]RequestStats, 0, len(m.tracers))
	for name, t := range m.tracers {
		stats = append(stats, RequestStats{
			Name:      name,
			Count:     t.TotalCount(),
			Failures:  t.FailureCount(),
			InFlight:  t.InflightCount(),
			AverageMs: float64(t.AverageTime()) / float64(time.Millisecond),
			MaxMs:     float64(t.MaxTime()) / float64(time.Millisecond),
		})
	}
	m.lock.Unlock()

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Name < stats[j].Name
	})

	writeJSON(w, stats)
}

func (m *Monitor) findConnectorOr404(
	w http.ResponseWriter,
	name string,
) *connector.Connector {
	m.lock.Lock()
	defer m.lock.Unlock()

	for _, c := range m.connectors {
		if c.Name() == name {
			return c
		}
	}

	w.WriteHeader(http.StatusNotFound)

	return nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bars := make([]ProgressStatus, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.Status())
	}

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

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
