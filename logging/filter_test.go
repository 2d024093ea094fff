package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeDedupRecordFieldsWinOverContext(t *testing.T) {
	record := []Field{F("a", "1"), F("a", "2")} // caller passed a=>1 then a=>2; 2 is newest
	context := []Field{F("a", "context"), F("b", "ctx-b")}
	out := mergeDedup(record, context)
	m := toMap(out)
	assert.Equal(t, "2", m["a"])
	assert.Equal(t, "ctx-b", m["b"])
}

func TestMergeDedupPreservesContextOrderWhenNoCollision(t *testing.T) {
	record := []Field{F("r", "1")}
	context := []Field{F("newest", "n"), F("older", "o")}
	out := mergeDedup(record, context)
	require := []string{"r", "newest", "older"}
	for i, key := range require {
		assert.Equal(t, key, out[i].Key)
	}
}

func TestFilterRedactDropsOnlyListedKeys(t *testing.T) {
	redact := newRedactSet([]string{"secret"})
	out := filterRedact([]Field{F("secret", "x"), F("open", "y")}, redact)
	assert.Len(t, out, 1)
	assert.Equal(t, "open", out[0].Key)
}

func TestFilterRedactNilSetIsNoOp(t *testing.T) {
	out := filterRedact([]Field{F("a", "1")}, nil)
	assert.Len(t, out, 1)
}
