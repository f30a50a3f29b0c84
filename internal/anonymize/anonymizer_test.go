package anonymize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dnsanon/internal/logline"
)

var defaults = Settings{Domain: "example.com", Address: "0.0.0.0"}

func parse(t *testing.T, schema *logline.Schema, raw string) *logline.Record {
	t.Helper()

	line := logline.NewParser(schema, time.Now).Parse(raw)
	require.True(t, line.Structured())

	return line.Record
}

func TestNewAnonymizerRejectsEmptySettings(t *testing.T) {
	_, err := NewAnonymizer(Settings{Address: "0.0.0.0"}, ShouldRedactAddress)
	require.Error(t, err)

	_, err = NewAnonymizer(Settings{Domain: "example.com"}, ShouldRedactAddress)
	require.Error(t, err)
}

func TestAnonymizeGroupActionPolicy(t *testing.T) {
	a, err := NewAnonymizer(defaults, ShouldRedactAddress)
	require.NoError(t, err)

	schema := logline.Dnsmasq()
	records := []*logline.Record{
		parse(t, schema, "Jan 1 12:00:00 dnsmasq[311]: 42 10.0.0.7/5353 query[A] realdomain.com from 10.0.0.7"),
		parse(t, schema, "Jan 1 12:00:00 dnsmasq[311]: 42 10.0.0.7/5353 forwarded realdomain.com to 9.9.9.9"),
		parse(t, schema, "Jan 1 12:00:00 dnsmasq[311]: 42 10.0.0.7/5353 reply realdomain.com is 1.2.3.4"),
	}

	a.AnonymizeGroup(records)

	require.Equal(t, "Jan 1 12:00:00 dnsmasq[311]: 42 10.0.0.7/5353 query[A] example.com from 10.0.0.7", records[0].String())
	require.Equal(t, "Jan 1 12:00:00 dnsmasq[311]: 42 10.0.0.7/5353 forwarded example.com to 9.9.9.9", records[1].String())
	require.Equal(t, "Jan 1 12:00:00 dnsmasq[311]: 42 10.0.0.7/5353 reply example.com is 0.0.0.0", records[2].String())
}

func TestAnonymizeRecordContextPolicy(t *testing.T) {
	a, err := NewAnonymizer(defaults, ShouldRedactTerminalAddress)
	require.NoError(t, err)

	schema := logline.DnsmasqPID()
	forwarded := parse(t, schema, "Jan 1 12:00:00 dnsmasq[311]: 42 10.0.0.7/5353 forwarded realdomain.com to 9.9.9.9")
	cached := parse(t, schema, "Jan 1 12:00:00 dnsmasq[311]: 42 10.0.0.7/5353 cached realdomain.com is 1.2.3.4")

	a.AnonymizeRecord(forwarded)
	a.AnonymizeRecord(cached)

	require.Equal(t, "9.9.9.9", forwarded.Get(logline.FieldAddress))
	require.Equal(t, "0.0.0.0", cached.Get(logline.FieldAddress))
	require.Equal(t, "example.com", forwarded.Get(logline.FieldDomain))
	require.Equal(t, "example.com", cached.Get(logline.FieldDomain))
}

func TestAnonymizeRecordPreservesOtherFields(t *testing.T) {
	a, err := NewAnonymizer(defaults, ShouldRedactAddress)
	require.NoError(t, err)

	record := parse(t, logline.Dnsmasq(), "Feb 29 23:59:59 dnsmasq[9]: 1234 192.168.1.2/40000 cached realdomain.com is ::1")
	stamp := record.Timestamp

	a.AnonymizeRecord(record)

	require.Equal(t, "1234", record.Get(logline.FieldID))
	require.Equal(t, "192.168.1.2/40000", record.Get(logline.FieldClient))
	require.Equal(t, "cached", record.Get(logline.FieldAction))
	require.Equal(t, "is", record.Get(logline.FieldContext))
	require.Equal(t, stamp, record.Timestamp)
}

func TestAnonymizeRecordIdempotent(t *testing.T) {
	a, err := NewAnonymizer(defaults, ShouldRedactAddress)
	require.NoError(t, err)

	record := parse(t, logline.Dnsmasq(), "Jan 1 12:00:00 dnsmasq[311]: 42 10.0.0.7/5353 reply realdomain.com is 1.2.3.4")

	a.AnonymizeRecord(record)
	once := record.String()
	a.AnonymizeRecord(record)

	require.Equal(t, once, record.String())
}

func TestNilPolicyRedactsEverything(t *testing.T) {
	a, err := NewAnonymizer(defaults, nil)
	require.NoError(t, err)

	record := parse(t, logline.Dnsmasq(), "Jan 1 12:00:00 dnsmasq[311]: 42 10.0.0.7/5353 query[A] realdomain.com from 10.0.0.7")
	a.AnonymizeRecord(record)

	require.Equal(t, "0.0.0.0", record.Get(logline.FieldAddress))
}
