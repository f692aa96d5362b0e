package server

import (
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/nicolagi/kvs/kvs"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	log "github.com/sirupsen/logrus"
	"google.golang.org/protobuf/proto"
)

type requestKey struct {
	method string
	status int
}

// requestCounts counts replies to /kvs/{key} by method and status code.
type requestCounts struct {
	mu sync.Mutex
	m  map[requestKey]uint64
}

func newRequestCounts() *requestCounts {
	return &requestCounts{m: make(map[requestKey]uint64)}
}

func (c *requestCounts) add(method string, status int) {
	c.mu.Lock()
	c.m[requestKey{method: method, status: status}]++
	c.mu.Unlock()
}

func (c *requestCounts) family() *dto.MetricFamily {
	c.mu.Lock()
	keys := make([]requestKey, 0, len(c.m))
	for k := range c.m {
		keys = append(keys, k)
	}
	values := make(map[requestKey]uint64, len(c.m))
	for k, v := range c.m {
		values[k] = v
	}
	c.mu.Unlock()
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].method != keys[j].method {
			return keys[i].method < keys[j].method
		}
		return keys[i].status < keys[j].status
	})
	mf := newFamily("kvs_requests_total", "Replies to /kvs/{key} requests, by method and status code.", dto.MetricType_COUNTER)
	for _, k := range keys {
		mf.Metric = append(mf.Metric, counter(float64(values[k]), "method", k.method, "code", strconv.Itoa(k.status)))
	}
	return mf
}

// relayCounter is implemented by handlers that forward requests.
type relayCounter interface {
	Counts() kvs.RelayCounts
}

func (s *Server) families() []*dto.MetricFamily {
	families := []*dto.MetricFamily{s.requests.family()}
	if store := s.opts.store; store != nil {
		c := store.Snapshot()
		ops := newFamily("kvs_store_operations_total", "Store operations, by operation and outcome.", dto.MetricType_COUNTER)
		ops.Metric = []*dto.Metric{
			counter(float64(c.PutsCreated), "op", "put", "outcome", "created"),
			counter(float64(c.PutsReplaced), "op", "put", "outcome", "replaced"),
			counter(float64(c.GetsFound), "op", "get", "outcome", "found"),
			counter(float64(c.GetsMissing), "op", "get", "outcome", "missing"),
			counter(float64(c.DeletesDone), "op", "delete", "outcome", "deleted"),
			counter(float64(c.DeletesMissing), "op", "delete", "outcome", "missing"),
		}
		entries := newFamily("kvs_store_entries", "Number of keys in the store.", dto.MetricType_GAUGE)
		entries.Metric = []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(float64(c.Entries))}}}
		families = append(families, ops, entries)
	}
	if relay, ok := s.opts.handler.(relayCounter); ok {
		c := relay.Counts()
		fwd := newFamily("kvs_forwarded_requests_total", "Requests relayed to the forward target, by outcome.", dto.MetricType_COUNTER)
		fwd.Metric = []*dto.Metric{
			counter(float64(c.Forwarded), "outcome", "relayed"),
			counter(float64(c.Failed), "outcome", "unreachable"),
		}
		families = append(families, fwd)
	}
	return families
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))
	enc := expfmt.NewEncoder(w, format)
	for _, mf := range s.families() {
		if len(mf.Metric) == 0 {
			// The text format has no representation for a family without samples.
			continue
		}
		if err := enc.Encode(mf); err != nil {
			log.WithFields(log.Fields{
				"err":    err,
				"metric": mf.GetName(),
			}).Error("Could not encode metric family")
			return
		}
	}
}

func newFamily(name, help string, typ dto.MetricType) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: typ.Enum(),
	}
}

// counter builds a counter sample; labels are name, value pairs.
func counter(value float64, labels ...string) *dto.Metric {
	m := &dto.Metric{Counter: &dto.Counter{Value: proto.Float64(value)}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &dto.LabelPair{
			Name:  proto.String(labels[i]),
			Value: proto.String(labels[i+1]),
		})
	}
	return m
}
