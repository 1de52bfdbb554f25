package compare_test

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/reoring/contractkit/openapi"
	"github.com/reoring/contractkit/pattern"
)

func petstore(tb testing.TB) *openapi.Contract {
	tb.Helper()
	c, _, err := openapi.LoadFile("../../examples/petstore/openapi.yaml", openapi.Options{})
	if err != nil {
		tb.Fatalf("load contract: %v", err)
	}
	return c
}

func smallPetJSON() []byte { return []byte(`{"name":"Rex","petType":"Dog","tag":"good"}`) }

const (
	cmpHugeN = 10000
	cmpHugeK = 8
)

func generateHugeJSONArray(numObjects int, extraFields int) []byte {
	var buf bytes.Buffer
	buf.Grow(numObjects * (64 + extraFields*16))
	buf.WriteByte('[')
	for i := 0; i < numObjects; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`{"id":"obj_` + strconv.Itoa(i) + `","name":"n` + strconv.Itoa(i) + `","age":` + strconv.Itoa(i))
		buf.WriteString(`,"active":` + strconv.FormatBool(i%2 == 0))
		buf.WriteString(`,"meta":{"score":` + strconv.Itoa(i) + `}`)
		for k := 0; k < extraFields; k++ {
			buf.WriteString(`,"k` + strconv.Itoa(k) + `":"v` + strconv.Itoa(i) + "_" + strconv.Itoa(k) + `"`)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

// hugeElement describes one element of generateHugeJSONArray(_, extraFields).
func hugeElement(extraFields int) *pattern.ObjectPattern {
	p := &pattern.ObjectPattern{Entries: []pattern.Entry{
		{Key: "id", Pattern: &pattern.StringPattern{Regex: `^obj_[0-9]+$`}},
		{Key: "name", Pattern: &pattern.StringPattern{MinLength: pattern.IntPtr(1)}},
		{Key: "age", Pattern: &pattern.NumberPattern{Integer: true, Minimum: pattern.FloatPtr(0)}},
		{Key: "active", Pattern: &pattern.BooleanPattern{}},
		{Key: "meta", Pattern: &pattern.ObjectPattern{Entries: []pattern.Entry{
			{Key: "score", Pattern: &pattern.NumberPattern{}},
		}}},
	}}
	for k := 0; k < extraFields; k++ {
		p.Entries = append(p.Entries, pattern.Entry{Key: "k" + strconv.Itoa(k), Pattern: &pattern.StringPattern{}})
	}
	return p
}

// {"a":{"a":{...{"z":1}...}}}
func generateDeepNested(depth int) []byte {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := 0; i < depth; i++ {
		buf.WriteString(`"a":{`)
	}
	buf.WriteString(`"z":1`)
	for i := 0; i < depth; i++ {
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes()
}
