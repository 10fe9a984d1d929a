package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/msahsan119/finman/internal/taxonomy"
)

// member is one key/value pair of a JSON object in document order.
type member struct {
	Key   string
	Value json.RawMessage
}

// decodeObject reads a JSON object keeping the order of its members.
func decodeObject(data []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("expected a JSON object")
	}
	var out []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("value of %q: %w", key, err)
		}
		out = append(out, member{Key: key, Value: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

func firstByte(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

// decodeCategories accepts the nested ordered map
//
//	{"Food": {"Groceries": ["Market"]}, "Car": {}}
//
// and the legacy pair of a category list plus a subcategory map.
func decodeCategories(cats, subs json.RawMessage) ([]taxonomy.CategorySpec, error) {
	switch firstByte(cats) {
	case 0:
		if subs == nil {
			return nil, nil
		}
		return decodeLegacyCategories(nil, subs)
	case '{':
		members, err := decodeObject(cats)
		if err != nil {
			return nil, fmt.Errorf("decoding categories: %w", err)
		}
		specs := make([]taxonomy.CategorySpec, 0, len(members))
		for _, m := range members {
			subSpecs, err := decodeSubcategories(m.Value)
			if err != nil {
				return nil, fmt.Errorf("decoding categories of %q: %w", m.Key, err)
			}
			specs = append(specs, taxonomy.CategorySpec{Name: m.Key, Subcategories: subSpecs})
		}
		return specs, nil
	case '[':
		var names []string
		if err := json.Unmarshal(cats, &names); err != nil {
			return nil, fmt.Errorf("decoding categories: %w", err)
		}
		return decodeLegacyCategories(names, subs)
	default:
		return nil, errors.New("decoding categories: want an object or a list")
	}
}

func decodeLegacyCategories(names []string, subs json.RawMessage) ([]taxonomy.CategorySpec, error) {
	specs := make([]taxonomy.CategorySpec, 0, len(names))
	pos := make(map[string]int, len(names))
	for _, n := range names {
		if _, dup := pos[n]; dup {
			continue
		}
		pos[n] = len(specs)
		specs = append(specs, taxonomy.CategorySpec{Name: n})
	}
	if firstByte(subs) != '{' {
		return specs, nil
	}
	members, err := decodeObject(subs)
	if err != nil {
		return nil, fmt.Errorf("decoding subcategories: %w", err)
	}
	for _, m := range members {
		subSpecs, err := decodeSubcategories(m.Value)
		if err != nil {
			return nil, fmt.Errorf("decoding subcategories of %q: %w", m.Key, err)
		}
		i, ok := pos[m.Key]
		if !ok {
			i = len(specs)
			pos[m.Key] = i
			specs = append(specs, taxonomy.CategorySpec{Name: m.Key})
		}
		specs[i].Subcategories = subSpecs
	}
	return specs, nil
}

// decodeSubcategories accepts {"sub": ["leaf", ...]} or ["sub", ...].
func decodeSubcategories(raw json.RawMessage) ([]taxonomy.SubcategorySpec, error) {
	switch firstByte(raw) {
	case 0, 'n':
		return nil, nil
	case '[':
		var names []string
		if err := json.Unmarshal(raw, &names); err != nil {
			return nil, err
		}
		out := make([]taxonomy.SubcategorySpec, 0, len(names))
		for _, n := range names {
			out = append(out, taxonomy.SubcategorySpec{Name: n})
		}
		return out, nil
	case '{':
		members, err := decodeObject(raw)
		if err != nil {
			return nil, err
		}
		out := make([]taxonomy.SubcategorySpec, 0, len(members))
		for _, m := range members {
			var items []string
			if !isNull(m.Value) {
				if err := json.Unmarshal(m.Value, &items); err != nil {
					return nil, fmt.Errorf("items of %q: %w", m.Key, err)
				}
			}
			out = append(out, taxonomy.SubcategorySpec{Name: m.Key, Items: items})
		}
		return out, nil
	default:
		return nil, errors.New("want an object or a list")
	}
}

// encodeCategories writes specs as the nested ordered map.
func encodeCategories(specs []taxonomy.CategorySpec) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cat := range specs {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, cat.Name); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		for j, sub := range cat.Subcategories {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeKey(&buf, sub.Name); err != nil {
				return nil, err
			}
			items, err := json.Marshal(nonNil(sub.Items))
			if err != nil {
				return nil, err
			}
			buf.Write(items)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	return nil
}
