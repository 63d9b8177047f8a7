// Package labels resolves classifier output indices to category names.
package labels

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"
)

// DefaultTable is the target column the classifier was trained to predict.
const DefaultTable = "NObeyesdad"

// Mapping is an immutable index → category table.
type Mapping struct {
	keys  []string
	index map[string]int
}

// New builds a mapping where the position of each key is its class index.
func New(keys []string) (*Mapping, error) {
	if len(keys) == 0 {
		return nil, errors.New("label mapping is empty")
	}
	m := &Mapping{keys: append([]string(nil), keys...), index: make(map[string]int, len(keys))}
	for i, key := range m.keys {
		if key == "" {
			return nil, fmt.Errorf("label %d is empty", i)
		}
		if _, dup := m.index[key]; dup {
			return nil, fmt.Errorf("duplicate label %q", key)
		}
		m.index[key] = i
	}
	return m, nil
}

// FromIndex builds a mapping from the name → index form. Indices must cover
// 0..N-1 exactly once; the name order in the source document is irrelevant.
func FromIndex(table map[string]int) (*Mapping, error) {
	type entry struct {
		key   string
		index int
	}
	entries := make([]entry, 0, len(table))
	for key, idx := range table {
		entries = append(entries, entry{key, idx})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].index < entries[j].index })

	keys := make([]string, len(entries))
	for i, e := range entries {
		if e.index != i {
			return nil, fmt.Errorf("label %q has index %d, expected %d", e.key, e.index, i)
		}
		keys[i] = e.key
	}
	return New(keys)
}

// Load reads a JSON or YAML document and extracts the named table. The table
// is either an object of name → index or a list of names ordered by index.
func Load(path, table string) (*Mapping, error) {
	if table == "" {
		table = DefaultTable
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := yaml.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	raw, ok := doc[table]
	if !ok {
		return nil, fmt.Errorf("%s: table %q not found", path, table)
	}

	switch v := raw.(type) {
	case []interface{}:
		keys := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s: entry %d of %q is not a string", path, i, table)
			}
			keys[i] = s
		}
		return New(keys)
	case map[interface{}]interface{}:
		indexed := make(map[string]int, len(v))
		for key, value := range v {
			name, ok := key.(string)
			if !ok {
				return nil, fmt.Errorf("%s: key %v of %q is not a string", path, key, table)
			}
			idx, ok := value.(int)
			if !ok {
				return nil, fmt.Errorf("%s: index of %q is not an integer", path, name)
			}
			indexed[name] = idx
		}
		return FromIndex(indexed)
	default:
		return nil, fmt.Errorf("%s: table %q has unsupported shape %T", path, table, raw)
	}
}

func (m *Mapping) Len() int { return len(m.keys) }

// Key returns the raw category key for a class index.
func (m *Mapping) Key(i int) (string, bool) {
	if i < 0 || i >= len(m.keys) {
		return "", false
	}
	return m.keys[i], true
}

// Name returns the display form of a class index, underscores as spaces.
func (m *Mapping) Name(i int) (string, bool) {
	key, ok := m.Key(i)
	if !ok {
		return "", false
	}
	return strings.ReplaceAll(key, "_", " "), true
}

func (m *Mapping) Index(key string) (int, bool) {
	i, ok := m.index[key]
	return i, ok
}

// Names lists the display names in index order.
func (m *Mapping) Names() []string {
	names := make([]string, len(m.keys))
	for i := range m.keys {
		names[i], _ = m.Name(i)
	}
	return names
}
