package source

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Indices is a flat row-major list of packed global tile ids. In YAML it is
// either a sequence of integers or a CSV string.
type Indices []uint32

func (x *Indices) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var v []uint32
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*x = v
		return nil
	case yaml.ScalarNode:
		v, err := ParseCSV(strings.NewReader(node.Value))
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*x = v
		return nil
	}
	return fmt.Errorf("line %d: tile data must be a sequence or a csv string", node.Line)
}

// MarshalYAML writes the ids as a flow sequence.
func (x Indices) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle, Tag: "!!seq"}
	for _, v := range x {
		node.Content = append(node.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!int",
			Value: strconv.FormatUint(uint64(v), 10),
		})
	}
	return node, nil
}

// ParseCSV reads comma separated ids, one map row per line. Blank lines and
// lines starting with '#' are skipped; a trailing comma is allowed.
func ParseCSV(r io.Reader) (Indices, error) {
	var out Indices

	scanner := bufio.NewScanner(r)
	// rows of wide maps easily exceed the default 64KB token
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		for _, tok := range strings.Split(line, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			val, err := strconv.ParseUint(tok, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("csv row %d: parse %q: %w", lineNo, tok, err)
			}
			out = append(out, uint32(val))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return out, nil
}
