// Package monitoring serves a web page and a JSON API that show what a
// running network is doing.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
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
	"github.com/pkg/browser"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/process"
	"github.com/sirupsen/logrus"
	"github.com/syifan/goseth"

	"github.com/sarchlab/sc2melee/actor"
	"github.com/sarchlab/sc2melee/monitoring/web"
)

// Monitor turns a network into a web server that allows external monitoring
// and pausing.
type Monitor struct {
	network    *actor.Network
	actors     []actor.ActorInfo
	portNumber int
	openPage   bool
	startTime  time.Time

	server *http.Server
	addr   string

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{startTime: time.Now()}
}

// WithPortNumber sets the port number of the monitor. Ports below 1000 are
// replaced by a random port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 && portNumber != 0 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser opens the monitoring page in a browser once the server
// starts.
func (m *Monitor) WithBrowser(open bool) *Monitor {
	m.openPage = open
	return m
}

// RegisterNetwork registers the network and all the actors it contains. It
// must be called after all the actors are added.
func (m *Monitor) RegisterNetwork(n *actor.Network) {
	m.network = n
	m.actors = n.Actors()
}

// collectBuffers finds the buffers the actors hold right now. Actors may
// create buffers while they run, so the fields are read on every call.
func (m *Monitor) collectBuffers() []actor.Buffer {
	var buffers []actor.Buffer
	for _, info := range m.actors {
		buffers = append(buffers, actorBuffers(info.Actor)...)
	}

	return buffers
}

func actorBuffers(a any) []actor.Buffer {
	v := reflect.ValueOf(a)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil
	}

	var buffers []actor.Buffer

	v = v.Elem()
	bufferType := reflect.TypeOf((*actor.Buffer)(nil)).Elem()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if field.Type() != bufferType || field.IsNil() {
			continue
		}

		ref := reflect.NewAt(
			field.Type(),
			unsafe.Pointer(field.UnsafeAddr()),
		).Elem().Interface().(actor.Buffer)
		buffers = append(buffers, ref)
	}

	return buffers
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        actor.GetIDGenerator().Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the page.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			bars = append(bars, b)
		}
	}

	m.progressBars = bars
}

// Addr returns the address the server listens on. It is empty before the
// server starts.
func (m *Monitor) Addr() string {
	return m.addr
}

// Router creates the handler that serves the page and the API.
func (m *Monitor) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseNetwork)
	r.HandleFunc("/api/continue", m.continueNetwork)
	r.HandleFunc("/api/status", m.status)
	r.HandleFunc("/api/list_actors", m.listActors)
	r.HandleFunc("/api/actor/{name}", m.listActorDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/buffers", m.listBuffers)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(http.FileServer(web.Assets()))

	return r
}

// StartServer starts the monitor as a web server.
func (m *Monitor) StartServer() error {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(m.portNumber))
	if err != nil {
		return errors.Wrap(err, "monitor listen")
	}

	port := listener.Addr().(*net.TCPAddr).Port
	m.addr = fmt.Sprintf("localhost:%d", port)
	url := "http://" + m.addr

	fmt.Fprintf(os.Stderr, "Monitoring network with %s\n", url)

	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("monitor stopped")
		}
	}()

	if m.openPage {
		if err := browser.OpenURL(url); err != nil {
			logrus.WithError(err).Warn("cannot open browser")
		}
	}

	return nil
}

// StopServer shuts the web server down.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) pauseNetwork(w http.ResponseWriter, _ *http.Request) {
	m.network.Pause()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) continueNetwork(w http.ResponseWriter, _ *http.Request) {
	m.network.Continue()
	w.WriteHeader(http.StatusOK)
}

type statusRsp struct {
	Network string  `json:"network"`
	Uptime  float64 `json:"uptime"`
	Pending int     `json:"pending"`
}

func (m *Monitor) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, statusRsp{
		Network: m.network.Name(),
		Uptime:  time.Since(m.startTime).Seconds(),
		Pending: m.network.Pending(),
	})
}

type stateReporter interface {
	State() string
}

type actorRsp struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state,omitempty"`
}

func (m *Monitor) listActors(w http.ResponseWriter, _ *http.Request) {
	rsp := make([]actorRsp, 0, len(m.actors))
	m.network.Inspect(func() {
		for _, info := range m.actors {
			a := actorRsp{ID: string(info.ID), Name: info.Name}
			if r, ok := info.Actor.(stateReporter); ok {
				a.State = r.State()
			}

			rsp = append(rsp, a)
		}
	})

	writeJSON(w, rsp)
}

func (m *Monitor) listActorDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	a := m.findActorOr404(w, name)
	if a == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(a)
	serializer.SetMaxDepth(1)

	m.network.Inspect(func() {
		if err := serializer.Serialize(w); err != nil {
			logrus.WithError(err).Warn("cannot serialize actor")
		}
	})
}

type fieldReq struct {
	ActorName string `json:"actor_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	req := fieldReq{}

	err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a := m.findActorOr404(w, req.ActorName)
	if a == nil {
		return
	}

	m.network.Inspect(func() {
		m.serializeField(w, a, req.FieldName)
	})
}

func (m *Monitor) serializeField(w http.ResponseWriter, a actor.Actor, field string) {
	if _, err := walkFields(a, field); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(a)
	serializer.SetMaxDepth(1)

	err := serializer.SetEntryPoint(strings.Split(field, "."))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := serializer.Serialize(w); err != nil {
		logrus.WithError(err).Warn("cannot serialize field")
	}
}

type bufferRsp struct {
	Buffer string `json:"buffer"`
	Level  int    `json:"level"`
	Cap    int    `json:"cap"`
}

func (m *Monitor) listBuffers(w http.ResponseWriter, r *http.Request) {
	sortMethod, limit, offset, err := buffersParseParams(r)
	if err != nil {
		http.Error(w, "Error: "+err.Error(), http.StatusBadRequest)
		return
	}

	var rsp []bufferRsp
	m.network.Inspect(func() {
		buffers := m.sortAndSelectBuffers(sortMethod, limit, offset)

		rsp = make([]bufferRsp, 0, len(buffers))
		for _, b := range buffers {
			rsp = append(rsp, bufferRsp{
				Buffer: b.Name(),
				Level:  b.Size(),
				Cap:    b.Capacity(),
			})
		}
	})

	writeJSON(w, rsp)
}

func buffersParseParams(r *http.Request) (sortMethod string, limit, offset int, err error) {
	query := r.URL.Query()

	sortMethod = query.Get("sort")
	if sortMethod == "" {
		sortMethod = "percent"
	}

	if sortMethod != "level" && sortMethod != "percent" {
		return "", 0, 0, errors.Errorf(
			"invalid sort method: %s, allowed values are `level` and `percent`",
			sortMethod)
	}

	if s := query.Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil {
			return "", 0, 0, errors.Wrap(err, "limit")
		}
	}

	if s := query.Get("offset"); s != "" {
		if offset, err = strconv.Atoi(s); err != nil {
			return "", 0, 0, errors.Wrap(err, "offset")
		}
	}

	if limit < 0 || offset < 0 {
		return "", 0, 0, errors.New("limit and offset must not be negative")
	}

	return sortMethod, limit, offset, nil
}

func bufferPercent(b actor.Buffer) float64 {
	return float64(b.Size()) / float64(b.Capacity())
}

// sortAndSelectBuffers sorts the buffers, fullest first. A limit of 0 keeps
// all the buffers after the offset.
func (m *Monitor) sortAndSelectBuffers(
	sortMethod string,
	limit, offset int,
) []actor.Buffer {
	sorted := m.collectBuffers()

	sort.SliceStable(sorted, func(i, j int) bool {
		sizeI, sizeJ := sorted[i].Size(), sorted[j].Size()
		percentI, percentJ := bufferPercent(sorted[i]), bufferPercent(sorted[j])

		if sortMethod == "level" {
			if sizeI != sizeJ {
				return sizeI > sizeJ
			}

			return percentI > percentJ
		}

		if percentI != percentJ {
			return percentI > percentJ
		}

		return sizeI > sizeJ
	})

	if offset > len(sorted) {
		offset = len(sorted)
	}

	end := len(sorted)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	return sorted[offset:end]
}

type fieldFormatError struct {
	field string
}

func (e fieldFormatError) Error() string {
	return fmt.Sprintf("field %q cannot be walked", e.field)
}

// walkFields follows a dot separated path of field names and slice indices.
func walkFields(root interface{}, fields string) (reflect.Value, error) {
	elem := reflect.ValueOf(root)
	names := strings.Split(fields, ".")

	for len(names) > 0 {
		switch elem.Kind() {
		case reflect.Ptr, reflect.Interface:
			elem = elem.Elem()
		case reflect.Struct:
			elem = elem.FieldByName(names[0])
			if !elem.IsValid() {
				return elem, fieldFormatError{field: names[0]}
			}

			names = names[1:]
		case reflect.Slice:
			index, err := strconv.Atoi(names[0])
			if err != nil || index < 0 || index >= elem.Len() {
				return elem, fieldFormatError{field: names[0]}
			}

			elem = elem.Index(index)
			names = names[1:]
		default:
			return elem, fieldFormatError{field: names[0]}
		}
	}

	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}

	return elem, nil
}

func (m *Monitor) findActorOr404(w http.ResponseWriter, name string) actor.Actor {
	for _, info := range m.actors {
		if info.Name == name {
			return info.Actor
		}
	}

	http.Error(w, "Actor not found", http.StatusNotFound)

	return nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]ProgressBarSnapshot, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.Snapshot())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	memory, err := proc.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memory.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if _, err := w.Write(data); err != nil {
		logrus.WithError(err).Debug("monitor response not written")
	}
}
