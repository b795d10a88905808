package recsrc

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// YAMLSource holds the records of one YAML collection in memory.
type YAMLSource struct {
	path    string
	records []*Record
}

// OpenYAML reads path and selects the sequence stored under collection.
// Field order follows the first record's key order.
func OpenYAML(env *Environment, path, collection string) (*YAMLSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &OpenError{Path: path, Collection: collection, Err: err}
	}

	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &OpenError{Path: path, Collection: collection, Err: fmt.Errorf("parse yaml: %w", err)}
	}
	node, ok := doc[collection]
	if !ok {
		return nil, &OpenError{Path: path, Collection: collection, Err: fmt.Errorf("collection not found (have %v)", collectionNames(doc))}
	}
	if node.Kind != yaml.SequenceNode {
		return nil, &OpenError{Path: path, Collection: collection, Err: fmt.Errorf("collection is not a sequence")}
	}

	records := make([]*Record, 0, len(node.Content))
	for i, item := range node.Content {
		if item.Kind != yaml.MappingNode {
			return nil, &OpenError{Path: path, Collection: collection, Err: fmt.Errorf("record %d is not a mapping", i)}
		}
		var names []string
		var values []any
		for j := 0; j+1 < len(item.Content); j += 2 {
			var v any
			if err := item.Content[j+1].Decode(&v); err != nil {
				return nil, &OpenError{Path: path, Collection: collection, Err: fmt.Errorf("record %d field %q: %w", i, item.Content[j].Value, err)}
			}
			names = append(names, item.Content[j].Value)
			values = append(values, v)
		}
		records = append(records, NewRecord(names, values))
	}

	env.Logger().Debug("opened yaml source", "path", path, "collection", collection, "records", len(records))
	return &YAMLSource{path: path, records: records}, nil
}

// Count implements Source.
func (s *YAMLSource) Count() int64 {
	return int64(len(s.records))
}

// Load implements Source.
func (s *YAMLSource) Load(_ context.Context, index int64) (*Record, error) {
	if index < 0 || index >= int64(len(s.records)) {
		return nil, &ReadError{Path: s.path, Index: index, Err: ErrOutOfRange}
	}
	return s.records[index], nil
}

// Close implements Source.
func (s *YAMLSource) Close() error {
	s.records = nil
	return nil
}

func collectionNames(doc map[string]yaml.Node) []string {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
