package export

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"google.golang.org/protobuf/proto"
)

// collector is a minimal OTLP/HTTP trace receiver
type collector struct {
	mu       sync.Mutex
	paths    []string
	names    []string
	services []string
}

func (c *collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req coltracepb.ExportTraceServiceRequest
	if err := proto.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c.mu.Lock()
	c.paths = append(c.paths, r.URL.Path)
	for _, rs := range req.GetResourceSpans() {
		for _, kv := range rs.GetResource().GetAttributes() {
			if kv.GetKey() == "service.name" {
				c.services = append(c.services, kv.GetValue().GetStringValue())
			}
		}
		for _, ss := range rs.GetScopeSpans() {
			for _, span := range ss.GetSpans() {
				c.names = append(c.names, span.GetName())
			}
		}
	}
	c.mu.Unlock()

	w.Header().Set("Content-Type", "application/x-protobuf")
	w.WriteHeader(http.StatusOK)
}

func TestPush(t *testing.T) {
	c := &collector{}
	srv := httptest.NewServer(c)
	defer srv.Close()

	n, err := Push(context.Background(), strings.TrimPrefix(srv.URL, "http://"), sampleTree())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.paths)
	assert.Equal(t, "/v1/traces", c.paths[0])
	assert.ElementsMatch(t, []string{"query", "handle"}, c.names)
	assert.Contains(t, c.services, ServiceName)
}

func TestPushEmptyEndpoint(t *testing.T) {
	_, err := Push(context.Background(), "", sampleTree())
	assert.Error(t, err)
}
