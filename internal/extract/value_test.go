package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromJSON_Shapes(t *testing.T) {
	t.Parallel()

	v, err := FromJSON([]byte(`{"name":"alice","age":30,"active":true,"note":null}`))
	require.NoError(t, err)
	require.Equal(t, KindMapping, v.Kind())

	flat := Flatten(v)
	assert.Equal(t, "alice", flat["name"])
	assert.Equal(t, "30", flat["age"])
	assert.Equal(t, "true", flat["active"])
	assert.Equal(t, "", flat["note"])
}

func TestFromJSON_Invalid(t *testing.T) {
	t.Parallel()

	_, err := FromJSON([]byte(`{"broken":`))
	assert.Error(t, err)
}

func TestFromJSON_PreservesNumberFormatting(t *testing.T) {
	t.Parallel()

	v, err := FromJSON([]byte(`{"ref":"00123","count":1.50}`))
	require.NoError(t, err)

	flat := Flatten(v)
	assert.Equal(t, "00123", flat["ref"])
	assert.Equal(t, "1.50", flat["count"])
}

func TestFromAny_SortsMapKeys(t *testing.T) {
	t.Parallel()

	v := FromAny(map[string]any{
		"b": "2",
		"a": "1",
		"c": []any{"x", map[string]any{"inner": 7}},
	})
	require.Equal(t, KindMapping, v.Kind())

	flat := Flatten(v)
	assert.Equal(t, "1", flat["a"])
	assert.Equal(t, "2", flat["b"])
	assert.Equal(t, "x", flat["c[0]"])
	assert.Equal(t, "7", flat["c[1].inner"])
}

func TestAsMap_WrapsNonMappings(t *testing.T) {
	t.Parallel()

	v := Seq(Scalar("a"), Scalar("b")).AsMap()
	require.Equal(t, KindMapping, v.Kind())

	flat := Flatten(v)
	assert.Equal(t, "a", flat["items[0]"])
	assert.Equal(t, "b", flat["items[1]"])

	m := Map(Field{Key: "k", Value: Scalar("v")})
	assert.Equal(t, m, m.AsMap())
}

func TestValue_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	v, err := FromJSON([]byte(`{"form":{"Stage":"Paperwork Received"},"tags":["a","b"]}`))
	require.NoError(t, err)

	out := v.Interface()
	m, ok := out.(map[string]any)
	require.True(t, ok)
	form, ok := m["form"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Paperwork Received", form["Stage"])
}
