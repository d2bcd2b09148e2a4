package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ordertrack/internal/extract"
)

var testAliases = Aliases{
	Prefix: []string{"Prefix", "prefix"},
	Ref:    []string{"Ref Number", "Reference Number", "Ref_Number", "ref_number"},
	Order:  []string{"ORDER, PICK OR PO. NUMBER", "Order", "Pick", "PO Number"},
	Stage:  []string{"Stage", "stage", "Status", "status"},
	Actor:  []string{"USER", "User", "user", "Dropped off by:", "Dropped By"},
	Time:   []string{"Added Time", "added_time", "Submitted Time"},
}

func jsonPayload(t *testing.T, doc string) extract.Value {
	t.Helper()
	v, err := extract.FromJSON([]byte(doc))
	require.NoError(t, err)
	return v
}

func TestNormalize_Composite(t *testing.T) {
	t.Parallel()

	payload := jsonPayload(t, `{"Prefix":"PKT","Ref Number":"001","Stage":"Paperwork Received","USER":"alice","Added Time":"2026-01-02 10:00"}`)
	entries := Normalize(payload, testAliases, KeyModeComposite)

	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "PKT", e.Prefix)
	assert.Equal(t, "001", e.RefNumber)
	assert.Equal(t, "Paperwork Received", e.Stage)
	assert.Equal(t, "alice", e.Actor)
	assert.Equal(t, "2026-01-02 10:00", e.ObservedAt)
	assert.Equal(t, "PKT-001", e.OrderKey(KeyModeComposite))
}

func TestNormalize_NestedFormPayload(t *testing.T) {
	t.Parallel()

	// Form processors wrap answers in nested structures; short-key
	// flattening still finds the fields.
	payload := jsonPayload(t, `{"form":{"answers":{"Ref Number":"77","Stage":"Product Received"}}}`)
	entries := Normalize(payload, testAliases, KeyModeComposite)

	require.Len(t, entries, 1)
	assert.Equal(t, "77", entries[0].RefNumber)
	assert.Equal(t, "Product Received", entries[0].Stage)
}

func TestNormalize_SingleModeSplitsOrderValues(t *testing.T) {
	t.Parallel()

	payload := jsonPayload(t, `{"Order":"A123, A124","Dropped off by:":"bob","Added Time":"t1"}`)
	entries := Normalize(payload, testAliases, KeyModeSingle)

	require.Len(t, entries, 2)
	assert.Equal(t, "A123", entries[0].OrderValue)
	assert.Equal(t, "A124", entries[1].OrderValue)
	// Both entries share the payload's other fields.
	assert.Equal(t, "bob", entries[0].Actor)
	assert.Equal(t, "bob", entries[1].Actor)
	assert.Equal(t, "t1", entries[1].ObservedAt)
}

func TestNormalize_AliasPriority(t *testing.T) {
	t.Parallel()

	// "Stage" outranks "Status" in the alias list.
	payload := jsonPayload(t, `{"Stage":"Paperwork Received","Status":"Product Received"}`)
	entries := Normalize(payload, testAliases, KeyModeComposite)

	require.Len(t, entries, 1)
	assert.Equal(t, "Paperwork Received", entries[0].Stage)
}

func TestNormalize_UnresolvableFieldsDefaultEmpty(t *testing.T) {
	t.Parallel()

	payload := jsonPayload(t, `{"unrelated":"x"}`)
	entries := Normalize(payload, testAliases, KeyModeComposite)

	require.Len(t, entries, 1)
	assert.Equal(t, "", entries[0].RefNumber)
	assert.Equal(t, "", entries[0].Stage)
	assert.Equal(t, "", entries[0].OrderKey(KeyModeComposite))
}

func TestNormalize_SingleModeNoKeyYieldsNoEntries(t *testing.T) {
	t.Parallel()

	payload := jsonPayload(t, `{"Stage":"Paperwork Received"}`)
	assert.Empty(t, Normalize(payload, testAliases, KeyModeSingle))
}
