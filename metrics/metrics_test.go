package metrics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthwatch/telemetry/config"
)

type routeLabels struct{ Route, Method string }

func (l routeLabels) Names() []string  { return []string{"route", "method"} }
func (l routeLabels) Values() []string { return []string{l.Route, l.Method} }

func TestSubsystemFQNameRespectsPrefixMode(t *testing.T) {
	r := NewRegistry("My Service", config.ServiceNameFormat{Kind: "metric_prefix"})
	s := r.GetSubsystem("http", false, true)
	fq, err := s.fqName("requests_total")
	require.NoError(t, err)
	assert.Equal(t, "My_Service_http_requests_total", fq)
}

func TestSubsystemFQNameWithoutServicePrefix(t *testing.T) {
	r := NewRegistry("svc", config.ServiceNameFormat{Kind: "metric_prefix"})
	s := r.GetSubsystem("http", false, false)
	fq, err := s.fqName("requests_total")
	require.NoError(t, err)
	assert.Equal(t, "http_requests_total", fq)
}

func TestCounterFamilyGetOrCreateReusesInstance(t *testing.T) {
	r := NewRegistry("svc", config.ServiceNameFormat{Kind: "metric_prefix"})
	s := r.GetSubsystem("http", false, true)
	fam := NewCounterFamilyFor[routeLabels](s, "requests_total", "total requests")

	c1 := fam.GetOrCreate(routeLabels{Route: "/a", Method: "GET"})
	c2 := fam.GetOrCreate(routeLabels{Route: "/a", Method: "GET"})
	c1.Inc(1)
	c2.Inc(1)

	out, err := r.Collect(config.MetricsSettings{})
	require.NoError(t, err)
	assert.Contains(t, string(out), "requests_total")
	assert.Equal(t, 1, strings.Count(string(out), `route="/a"`))
}

func TestRangeGaugeInvariantHolds(t *testing.T) {
	r := NewRegistry("svc", config.ServiceNameFormat{Kind: "metric_prefix"})
	s := r.GetSubsystem("pool", false, true)
	fam := NewRangeGaugeFamily[emptyLabels](s, "connections", "pool size")
	g := fam.GetOrCreate(emptyLabels{})

	g.Set(5)
	g.Set(1)
	g.Set(9)

	cur, min, max := g.renderAndReset()
	assert.Equal(t, 9.0, cur)
	assert.Equal(t, 1.0, min)
	assert.Equal(t, 9.0, max)
}

func TestShardedCounterSumsAcrossShards(t *testing.T) {
	c := newShardedCounter("x", "help", nil)
	for i := 0; i < 100; i++ {
		c.Inc(1)
	}
	assert.EqualValues(t, 100, c.Sum())
}

func TestHistogramFamilyRejectsNonIncreasingBuckets(t *testing.T) {
	r := NewRegistry("svc", config.ServiceNameFormat{Kind: "metric_prefix"})
	s := r.GetSubsystem("latency", false, true)
	_, err := NewHistogramFamily[emptyLabels](s, "duration_seconds", "help", []float64{1, 1, 2})
	assert.Error(t, err)
}

func TestReportInfoReplacesPreviousValue(t *testing.T) {
	r := NewRegistry("svc", config.ServiceNameFormat{Kind: "metric_prefix"})
	r.ReportInfo("build", "build_info", "build metadata", routeLabels{Route: "v1", Method: ""})
	r.ReportInfo("build", "build_info", "build metadata", routeLabels{Route: "v2", Method: ""})

	out, err := r.Collect(config.MetricsSettings{})
	require.NoError(t, err)
	assert.Contains(t, string(out), `route="v2"`)
	assert.NotContains(t, string(out), `route="v1"`)
}

func TestCollectAppendsExtraProducersAndSingleEOF(t *testing.T) {
	r := NewRegistry("svc", config.ServiceNameFormat{Kind: "metric_prefix"})
	r.AddExtraProducer(func() []byte { return []byte("# extra_metric 1\nextra_metric 1\n# EOF\n") })

	out, err := r.Collect(config.MetricsSettings{})
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(out), "# EOF"))
	assert.Contains(t, string(out), "extra_metric 1")
}
