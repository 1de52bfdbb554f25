//go:build jstream

package compare_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/bcicen/jstream"

	"github.com/reoring/contractkit/pattern"
	"github.com/reoring/contractkit/value"
)

// streamElements decodes the top-level array elements of data one at a time
// and hands each to fn as a Value.
func streamElements(data []byte, fn func(value.Value) error) error {
	dec := jstream.NewDecoder(bytes.NewReader(data), 1)
	for mv := range dec.Stream() {
		v, err := value.FromAny(mv.Value)
		if err != nil {
			return err
		}
		if err := fn(v); err != nil {
			return err
		}
	}
	if err := dec.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func TestJStreamElementsAgreeWithParseJSON(t *testing.T) {
	data := generateHugeJSONArray(200, 3)
	whole, err := value.ParseJSON(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	arr := whole.(value.Array)
	elem := hugeElement(3)
	r := pattern.NewResolver(pattern.MustRegistry(nil))

	i := 0
	err = streamElements(data, func(v value.Value) error {
		if i >= len(arr) || !value.Equal(arr[i], v) {
			t.Fatalf("element %d differs: %s", i, v.Display())
		}
		if res := pattern.Match(elem, v, r); !res.IsSuccess() {
			t.Fatalf("element %d does not match:\n%s", i, res.Report())
		}
		i++
		return nil
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if i != len(arr) {
		t.Fatalf("streamed %d elements, parsed %d", i, len(arr))
	}
}

// Element-wise match of a streamed array, against one parse and one match of
// the whole document in Benchmark_ParseAndMatch_contractkit_HugeArray.
func Benchmark_ParseAndMatch_jstream_HugeArray(b *testing.B) {
	data := generateHugeJSONArray(cmpHugeN, cmpHugeK)
	elem := hugeElement(cmpHugeK)
	r := pattern.NewResolver(pattern.MustRegistry(nil))
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		err := streamElements(data, func(v value.Value) error {
			return pattern.Match(elem, v, r).Err()
		})
		if err != nil {
			b.Fatal(err)
		}
	}
}
