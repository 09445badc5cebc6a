package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"go.yaml.in/yaml/v3"
)

// isJSON reports whether data holds a JSON object document.
func isJSON(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// decodeJSONNode reads a JSON document into a yaml node tree so the
// node-based decoders serve both manifest formats. Object key order is
// kept. A repeated key replaces the earlier value in place.
func decodeJSONNode(data []byte) (*yaml.Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	b := &nodeBuilder{dec: dec, data: data}

	node, err := b.value()
	if err != nil {
		return nil, b.wrap(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after the top-level object")
		}
		return nil, b.wrap(err)
	}
	return node, nil
}

type nodeBuilder struct {
	dec  *json.Decoder
	data []byte
}

func (b *nodeBuilder) value() (*yaml.Node, error) {
	line, column := b.position()
	tok, err := b.dec.Token()
	if err != nil {
		return nil, err
	}

	node := &yaml.Node{Kind: yaml.ScalarNode, Line: line, Column: column}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return b.object(node)
		case '[':
			return b.array(node)
		}
		return nil, fmt.Errorf("unexpected %q", rune(v))
	case string:
		node.Tag, node.Style, node.Value = "!!str", yaml.DoubleQuotedStyle, v
	case json.Number:
		node.Value = v.String()
	case bool:
		node.Tag, node.Value = "!!bool", strconv.FormatBool(v)
	case nil:
		node.Tag, node.Value = "!!null", "null"
	}
	return node, nil
}

func (b *nodeBuilder) object(node *yaml.Node) (*yaml.Node, error) {
	node.Kind, node.Tag = yaml.MappingNode, "!!map"
	index := make(map[string]int)
	for b.dec.More() {
		key, err := b.value()
		if err != nil {
			return nil, err
		}
		val, err := b.value()
		if err != nil {
			return nil, err
		}
		if i, ok := index[key.Value]; ok {
			node.Content[i+1] = val
			continue
		}
		index[key.Value] = len(node.Content)
		node.Content = append(node.Content, key, val)
	}
	if _, err := b.dec.Token(); err != nil {
		return nil, err
	}
	return node, nil
}

func (b *nodeBuilder) array(node *yaml.Node) (*yaml.Node, error) {
	node.Kind, node.Tag = yaml.SequenceNode, "!!seq"
	for b.dec.More() {
		item, err := b.value()
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content, item)
	}
	if _, err := b.dec.Token(); err != nil {
		return nil, err
	}
	return node, nil
}

// position returns the 1-based line and column of the next token.
func (b *nodeBuilder) position() (line, column int) {
	off := int(b.dec.InputOffset())
	for off < len(b.data) && bytes.IndexByte([]byte(" \t\r\n:,"), b.data[off]) >= 0 {
		off++
	}
	if off > len(b.data) {
		off = len(b.data)
	}
	line = 1 + bytes.Count(b.data[:off], []byte{'\n'})
	column = off - bytes.LastIndexByte(b.data[:off], '\n')
	return line, column
}

func (b *nodeBuilder) wrap(err error) error {
	line, _ := b.position()
	return fmt.Errorf("line %d: %w", line, err)
}
