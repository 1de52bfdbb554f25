package value

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"
)

// ErrDuplicateKey is wrapped by ParseJSON when an object repeats a key.
var ErrDuplicateKey = errors.New("duplicate key")

// ParseJSON decodes a single JSON document. Numbers keep their textual form
// until converted, duplicate keys and trailing data are rejected.
func ParseJSON(data []byte) (Value, error) {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	p := &jsonParser{dec: dec}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
		return nil, errors.New("json: unexpected data after top-level value")
	}
	return v, nil
}

type jsonParser struct {
	dec *j.Decoder
}

func (p *jsonParser) value() (Value, error) {
	tok, err := p.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("json: unexpected end of input")
		}
		return nil, fmt.Errorf("json: %w", err)
	}
	return p.fromToken(tok)
}

func (p *jsonParser) fromToken(tok any) (Value, error) {
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			return p.object()
		case '[':
			return p.array()
		}
		return nil, fmt.Errorf("json: unexpected delimiter %q", rune(v))
	case string:
		return String(v), nil
	case bool:
		return Bool(v), nil
	case j.Number:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return nil, fmt.Errorf("json: number %q: %w", string(v), err)
		}
		return Number(f), nil
	case float64:
		return Number(v), nil
	case nil:
		return Null{}, nil
	}
	return nil, fmt.Errorf("json: unexpected token %v", tok)
}

func (p *jsonParser) object() (Value, error) {
	var pairs []Pair
	seen := map[string]struct{}{}
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
		if d, ok := tok.(j.Delim); ok && d == '}' {
			return ObjectOf(pairs...), nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("json: expected object key, got %v", tok)
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("json: %w %q", ErrDuplicateKey, key)
		}
		seen[key] = struct{}{}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair{Key: key, Value: v})
	}
}

func (p *jsonParser) array() (Value, error) {
	out := Array{}
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
		if d, ok := tok.(j.Delim); ok && d == ']' {
			return out, nil
		}
		v, err := p.fromToken(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

// MarshalJSON renders a JSON value preserving object insertion order. XML
// nodes are rendered as a JSON string holding their markup.
func MarshalJSON(v Value) []byte {
	b := &strings.Builder{}
	writeJSON(b, v)
	return []byte(b.String())
}

// MarshalIndentJSON renders like MarshalJSON with two-space indentation.
func MarshalIndentJSON(v Value) []byte {
	var out bytes.Buffer
	if err := j.Indent(&out, MarshalJSON(v), "", "  "); err != nil {
		return MarshalJSON(v)
	}
	return out.Bytes()
}

func writeJSON(b *strings.Builder, v Value) {
	switch x := v.(type) {
	case nil, Null:
		b.WriteString("null")
	case Bool, Number:
		b.WriteString(x.Display())
	case String:
		b.WriteString(quote(string(x)))
	case Array:
		b.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				b.WriteByte(',')
			}
			writeJSON(b, e)
		}
		b.WriteByte(']')
	case Object:
		b.WriteByte('{')
		i := 0
		for k, e := range x.All() {
			if i > 0 {
				b.WriteByte(',')
			}
			i++
			b.WriteString(quote(k))
			b.WriteByte(':')
			writeJSON(b, e)
		}
		b.WriteByte('}')
	case XMLNode:
		b.WriteString(quote(x.Display()))
	}
}

func quote(s string) string {
	out, err := j.Marshal(s)
	if err != nil {
		return strconv.Quote(s)
	}
	return string(out)
}
