package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatMetric(t *testing.T) {
	client := &StatsdClient{defaultTags: map[string]string{"host": "resolver-1"}}

	require.Equal(
		t,
		"event.filter.tx,host=resolver-1,outcome=expired,schema=dnsmasq",
		client.formatMetric("event.filter.tx", map[string]string{
			"schema":  "dnsmasq",
			"outcome": "expired",
		}),
	)
}

func TestFormatMetricOverridesDefaultTags(t *testing.T) {
	client := &StatsdClient{defaultTags: map[string]string{"host": "resolver-1"}}

	require.Equal(
		t,
		"event.filter.error,host=override",
		client.formatMetric("event.filter.error", map[string]string{"host": "override"}),
	)
}

func TestFormatMetricEscapes(t *testing.T) {
	client := &StatsdClient{}

	require.Equal(t, "latency%3Asweep", client.formatMetric("latency:sweep", nil))
	require.Equal(
		t,
		"gauge.filter.pending,schema=dnsmasq%3Apid",
		client.formatMetric("gauge.filter.pending", map[string]string{"schema": "dnsmasq:pid"}),
	)
}

func TestOutcomeString(t *testing.T) {
	require.Equal(t, "complete", Complete.String())
	require.Equal(t, "expired", Expired.String())
	require.Equal(t, "evicted", Evicted.String())
	require.Equal(t, "flushed", Flushed.String())
	require.Equal(t, "dropped", Dropped.String())
	require.Equal(t, "Outcome(9)", Outcome(9).String())
}

func TestNoopFilterHook(t *testing.T) {
	hook := NewNoopFilterHook()

	hook.EmitLine(true, time.Millisecond)
	hook.EmitTransaction(Complete, 2, time.Second)
	hook.EmitPending(3)
	hook.EmitSweep(time.Millisecond, 1)
	hook.EmitError()
}
