package dispatch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/go-json-experiment/json/jsontext"
)

// jsonValue is a parsed JSON value with JavaScript object semantics: a
// repeated member name keeps its first position and takes the last value,
// and array-index names ("0", "1", ...) come first in ascending order.
type jsonValue struct {
	kind    jsontext.Kind
	str     string
	num     float64
	names   []string
	members map[string]*jsonValue
	elems   []*jsonValue
}

// formatJSON parses b as one JSON value and writes it back canonically:
// numbers as shortest round-trip doubles, strings with minimal escaping and
// duplicate names collapsed. An empty indent gives compact output.
func formatJSON(b []byte, indent string) ([]byte, error) {
	v, err := parseJSON(b)
	if err != nil {
		return nil, err
	}

	opts := []jsontext.Options{jsontext.AllowInvalidUTF8(true)}
	if indent != "" {
		opts = append(opts, jsontext.WithIndent(indent))
	}
	var buf bytes.Buffer
	enc := jsontext.NewEncoder(&buf, opts...)
	if err := v.write(enc); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func parseJSON(b []byte) (*jsonValue, error) {
	dec := jsontext.NewDecoder(bytes.NewReader(b),
		jsontext.AllowDuplicateNames(true),
		jsontext.AllowInvalidUTF8(true))

	v, err := readJSON(dec)
	if errors.Is(err, io.EOF) {
		return nil, io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, err
	}
	switch _, err := dec.ReadToken(); {
	case errors.Is(err, io.EOF):
		return v, nil
	case err != nil:
		return nil, err
	default:
		return nil, errors.New("unexpected data after top-level value")
	}
}

func readJSON(dec *jsontext.Decoder) (*jsonValue, error) {
	tok, err := dec.ReadToken()
	if err != nil {
		return nil, err
	}

	switch k := tok.Kind(); k {
	case 'n', 't', 'f':
		return &jsonValue{kind: k}, nil
	case '"':
		return &jsonValue{kind: k, str: tok.String()}, nil
	case '0':
		// Out-of-range numbers become ±Inf and are written as null.
		n, err := strconv.ParseFloat(tok.String(), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, err
		}
		return &jsonValue{kind: k, num: n}, nil
	case '[':
		v := &jsonValue{kind: k}
		for dec.PeekKind() != ']' {
			elem, err := readJSON(dec)
			if err != nil {
				return nil, err
			}
			v.elems = append(v.elems, elem)
		}
		if _, err := dec.ReadToken(); err != nil {
			return nil, err
		}
		return v, nil
	case '{':
		v := &jsonValue{kind: k, members: make(map[string]*jsonValue)}
		for dec.PeekKind() != '}' {
			nameTok, err := dec.ReadToken()
			if err != nil {
				return nil, err
			}
			name := nameTok.String()
			member, err := readJSON(dec)
			if err != nil {
				return nil, err
			}
			if _, seen := v.members[name]; !seen {
				v.names = append(v.names, name)
			}
			v.members[name] = member
		}
		if _, err := dec.ReadToken(); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", k)
	}
}

func (v *jsonValue) write(enc *jsontext.Encoder) error {
	switch v.kind {
	case 'n':
		return enc.WriteToken(jsontext.Null)
	case 't':
		return enc.WriteToken(jsontext.True)
	case 'f':
		return enc.WriteToken(jsontext.False)
	case '"':
		return enc.WriteToken(jsontext.String(v.str))
	case '0':
		switch {
		case math.IsInf(v.num, 0):
			return enc.WriteToken(jsontext.Null)
		case v.num == 0:
			// -0 prints as 0.
			return enc.WriteToken(jsontext.Float(0))
		default:
			return enc.WriteToken(jsontext.Float(v.num))
		}
	case '[':
		if err := enc.WriteToken(jsontext.ArrayStart); err != nil {
			return err
		}
		for _, elem := range v.elems {
			if err := elem.write(enc); err != nil {
				return err
			}
		}
		return enc.WriteToken(jsontext.ArrayEnd)
	case '{':
		if err := enc.WriteToken(jsontext.ObjectStart); err != nil {
			return err
		}
		for _, name := range v.orderedNames() {
			if err := enc.WriteToken(jsontext.String(name)); err != nil {
				return err
			}
			if err := v.members[name].write(enc); err != nil {
				return err
			}
		}
		return enc.WriteToken(jsontext.ObjectEnd)
	default:
		return fmt.Errorf("unexpected kind %v", v.kind)
	}
}

func (v *jsonValue) orderedNames() []string {
	var indexes, rest []string
	for _, name := range v.names {
		if _, ok := arrayIndex(name); ok {
			indexes = append(indexes, name)
		} else {
			rest = append(rest, name)
		}
	}
	sort.Slice(indexes, func(i, j int) bool {
		a, _ := arrayIndex(indexes[i])
		b, _ := arrayIndex(indexes[j])
		return a < b
	})
	return append(indexes, rest...)
}

// arrayIndex reports whether name is a canonical array index below 2^32-1.
func arrayIndex(name string) (uint64, bool) {
	if name == "" || (len(name) > 1 && name[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(name, 10, 32)
	if err != nil || n == math.MaxUint32 {
		return 0, false
	}
	return n, true
}
