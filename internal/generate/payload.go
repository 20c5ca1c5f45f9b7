// Package generate is the boundary to an external content generator: it describes the
// current selection for a prompt and turns the generator's streamed item payloads into
// board items.
package generate

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"

	"ResearchBoard/internal/logger"
	"ResearchBoard/internal/state"
)

var ErrInvalidPayload = errors.New("invalid item payload")

// maxPayloadBytes bounds a single NDJSON line.
const maxPayloadBytes = 4 << 20

// itemSchema is the payload shape: an item without identity, z-order or selection.
const itemSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["kind"],
  "properties": {
    "kind": {"enum": ["note", "text", "line", "image"]},
    "x": {"type": "number"},
    "y": {"type": "number"},
    "note": {
      "type": "object",
      "properties": {
        "content": {"type": "string"},
        "color": {"type": "string"},
        "font_size": {"type": "number", "minimum": 0},
        "width": {"type": "number", "exclusiveMinimum": 0},
        "height": {"type": "number", "exclusiveMinimum": 0}
      },
      "required": ["width", "height"]
    },
    "text": {
      "type": "object",
      "properties": {
        "content": {"type": "string"},
        "font_size": {"type": "number", "minimum": 0},
        "align": {"enum": ["left", "center", "right", ""]},
        "color": {"type": "string"},
        "width": {"type": "number", "exclusiveMinimum": 0},
        "height": {"type": "number", "minimum": 0}
      },
      "required": ["width"]
    },
    "line": {
      "type": "object",
      "properties": {
        "points": {
          "type": "array",
          "minItems": 2,
          "items": {
            "type": "object",
            "properties": {"x": {"type": "number"}, "y": {"type": "number"}},
            "required": ["x", "y"]
          }
        },
        "color": {"type": "string"},
        "width": {"type": "number", "exclusiveMinimum": 0},
        "pen": {"enum": ["pen", "highlighter"]}
      },
      "required": ["points"]
    },
    "image": {
      "type": "object",
      "properties": {
        "src": {"type": "string"},
        "width": {"type": "number", "exclusiveMinimum": 0},
        "height": {"type": "number", "exclusiveMinimum": 0}
      },
      "required": ["src", "width", "height"]
    }
  }
}`

var payloadSchema = mustCompile(itemSchema)

func mustCompile(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("generate: bad item schema: %v", err))
	}
	return schema
}

// ParseItem validates one payload and converts it into an item ready to be appended.
func ParseItem(raw []byte) (state.Item, error) {
	if !gjson.ValidBytes(raw) {
		return state.Item{}, fmt.Errorf("%w: not valid JSON", ErrInvalidPayload)
	}

	result, err := payloadSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return state.Item{}, fmt.Errorf("%w: schema validation error: %v", ErrInvalidPayload, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		return state.Item{}, fmt.Errorf("%w: %s", ErrInvalidPayload, strings.Join(msgs, "; "))
	}

	kind := gjson.GetBytes(raw, "kind").String()
	if !gjson.GetBytes(raw, kind).IsObject() {
		return state.Item{}, fmt.Errorf("%w: %s payload missing", ErrInvalidPayload, kind)
	}

	var it state.Item
	if err := json.Unmarshal(raw, &it); err != nil {
		return state.Item{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	// identity, z-order and selection belong to the board
	it.ID, it.Z, it.Selected = 0, 0, false
	applyDefaults(&it)
	if it.Kind == state.KindLine {
		it.SyncLineOrigin()
	}
	if err := it.Valid(); err != nil {
		return state.Item{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return it, nil
}

func applyDefaults(it *state.Item) {
	switch {
	case it.Note != nil && it.Note.FontSize == 0:
		it.Note.FontSize = 16
	case it.Text != nil:
		if it.Text.FontSize == 0 {
			it.Text.FontSize = 16
		}
		if it.Text.Align == "" {
			it.Text.Align = state.AlignLeft
		}
	case it.Line != nil:
		if it.Line.Width == 0 {
			it.Line.Width = 3
		}
		if it.Line.Pen == "" {
			it.Line.Pen = state.PenPen
		}
	}
}

// Decoder reads a newline-delimited stream of item payloads.
type Decoder struct {
	scanner *bufio.Scanner
	line    int
}

func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxPayloadBytes)
	return &Decoder{scanner: sc}
}

// Next returns the next item. A bad payload yields an ErrInvalidPayload error and the
// stream can be read further; io.EOF marks the end.
func (d *Decoder) Next() (state.Item, error) {
	for d.scanner.Scan() {
		d.line++
		raw := strings.TrimSpace(d.scanner.Text())
		if raw == "" {
			continue
		}
		it, err := ParseItem([]byte(raw))
		if err != nil {
			return state.Item{}, fmt.Errorf("line %d: %w", d.line, err)
		}
		return it, nil
	}
	if err := d.scanner.Err(); err != nil {
		return state.Item{}, fmt.Errorf("failed to read payload stream: %w", err)
	}
	return state.Item{}, io.EOF
}

// DecodeAll collects every valid item of a stream. Invalid payloads are logged and
// counted; only read failures are returned as errors.
func DecodeAll(r io.Reader) (items []state.Item, skipped int, err error) {
	dec := NewDecoder(r)
	for {
		it, err := dec.Next()
		switch {
		case err == nil:
			items = append(items, it)
		case errors.Is(err, io.EOF):
			return items, skipped, nil
		case errors.Is(err, ErrInvalidPayload):
			skipped++
			logger.Warn("[GENERATE] skipping payload", map[string]interface{}{"reason": err.Error()})
		default:
			return items, skipped, err
		}
	}
}
