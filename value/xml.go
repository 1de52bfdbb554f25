package value

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ParseXML decodes a single XML document into an XMLNode tree. Whitespace-only
// text is dropped; namespace prefixes are kept as part of element and
// attribute names.
func ParseXML(data []byte) (XMLNode, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var stack []*XMLNode
	var root *XMLNode
	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return XMLNode{}, fmt.Errorf("xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &XMLNode{Name: qualified(t.Name)}
			var attrs []Pair
			for _, a := range t.Attr {
				attrs = append(attrs, Pair{Key: qualified(a.Name), Value: String(a.Value)})
			}
			n.Attributes = ObjectOf(attrs...)
			if root != nil && len(stack) == 0 {
				return XMLNode{}, errors.New("xml: multiple root elements")
			}
			stack = append(stack, n)
			if root == nil {
				root = n
			}
		case xml.EndElement:
			if len(stack) == 0 {
				return XMLNode{}, fmt.Errorf("xml: unexpected end element %s", qualified(t.Name))
			}
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, *n)
			} else {
				root = n
			}
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" || len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			top.Children = append(top.Children, String(text))
		}
	}
	if root == nil {
		return XMLNode{}, errors.New("xml: no root element")
	}
	if len(stack) > 0 {
		return XMLNode{}, errors.New("xml: unexpected end of input")
	}
	return *root, nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func writeXML(b *strings.Builder, x XMLNode) {
	b.WriteByte('<')
	b.WriteString(x.Name)
	for k, v := range x.Attributes.All() {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteString(`="`)
		text := v.Display()
		if s, ok := v.(String); ok {
			text = string(s)
		}
		_ = xml.EscapeText(b, []byte(text))
		b.WriteByte('"')
	}
	if len(x.Children) == 0 {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	for _, c := range x.Children {
		switch cv := c.(type) {
		case XMLNode:
			writeXML(b, cv)
		case String:
			_ = xml.EscapeText(b, []byte(cv))
		default:
			_ = xml.EscapeText(b, []byte(cv.Display()))
		}
	}
	b.WriteString("</")
	b.WriteString(x.Name)
	b.WriteByte('>')
}
