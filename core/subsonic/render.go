package subsonic

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"supersonic/core/stream"
)

// Version is the protocol version reported in every response.
const Version = "1.9.0"

// Protocol error codes.
const (
	CodeGeneric          = 0
	CodeMissingParameter = 10
	CodeWrongCredentials = 40
	CodeNotAuthorized    = 50
	CodeNotFound         = 70
)

// Format 输出格式
type Format uint8

const (
	XML Format = iota
	JSON
	JSONP
)

// ParseFormat maps the f parameter; anything unknown is XML.
func ParseFormat(f string) Format {
	switch f {
	case "json":
		return JSON
	case "jsonp":
		return JSONP
	default:
		return XML
	}
}

func (f Format) ContentType() string {
	switch f {
	case JSON:
		return "application/json"
	case JSONP:
		return "application/javascript"
	default:
		return "text/xml"
	}
}

func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case JSONP:
		return "jsonp"
	default:
		return "xml"
	}
}

// Ok wraps payload (may be nil) in a successful subsonic-response.
func Ok(payload *Node) *Node {
	root := NewNode("subsonic-response", String("status", "ok"), String("version", Version))
	if payload != nil {
		root.Set(payload)
	}
	return root
}

// Failed builds an error subsonic-response.
func Failed(code int, message string) *Node {
	return NewNode("subsonic-response", String("status", "failed"), String("version", Version)).
		Set(NewNode("error", Int("code", int64(code)), String("message", message)))
}

// Render serializes a full response tree. callback is only used by JSONP.
func Render(root *Node, f Format, callback string) ([]byte, error) {
	switch f {
	case JSON, JSONP:
		body, err := json.Marshal(map[string]any{root.Name: jsonValue(root)})
		if err != nil {
			return nil, fmt.Errorf("marshal %s response: %w", root.Name, err)
		}
		if f == JSON {
			return body, nil
		}
		out := make([]byte, 0, len(callback)+len(body)+3)
		out = append(out, callback...)
		out = append(out, '(')
		out = append(out, body...)
		return append(out, ");"...), nil
	default:
		var buf bytes.Buffer
		buf.WriteString(xml.Header)
		writeXML(&buf, root)
		return buf.Bytes(), nil
	}
}

// Respond renders root into a 200 literal. Protocol failures are encoded in
// the body, never in the HTTP status.
func Respond(root *Node, f Format, callback string) (*stream.Literal, error) {
	body, err := Render(root, f, callback)
	if err != nil {
		return nil, err
	}
	return stream.NewLiteral(http.StatusOK, f.ContentType(), body), nil
}

func jsonValue(n *Node) map[string]any {
	obj := make(map[string]any, len(n.Attrs)+len(n.children))
	for _, a := range n.Attrs {
		if !a.IsNull() {
			obj[a.Key] = a.value()
		}
	}
	if n.single {
		for _, c := range n.children {
			obj[c.Name] = jsonValue(c)
		}
		return obj
	}
	for _, c := range n.children {
		list, _ := obj[c.Name].([]any)
		obj[c.Name] = append(list, jsonValue(c))
	}
	return obj
}

func writeXML(buf *bytes.Buffer, n *Node) {
	buf.WriteByte('<')
	buf.WriteString(n.Name)
	for _, a := range n.Attrs {
		if a.IsNull() {
			continue
		}
		buf.WriteByte(' ')
		buf.WriteString(a.Key)
		buf.WriteString(`="`)
		xml.EscapeText(buf, []byte(a.text()))
		buf.WriteByte('"')
	}
	if len(n.children) == 0 {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
	for _, c := range n.children {
		writeXML(buf, c)
	}
	buf.WriteString("</")
	buf.WriteString(n.Name)
	buf.WriteByte('>')
}
