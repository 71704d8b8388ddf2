package records

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrNotObject = errors.New("must be an object")
	ErrNotList   = errors.New("must be a list")
)

// Load reads a JSON or YAML file holding either a list of records or a single record.
func Load(path string) (*Records, error) {
	raw, err := readDocument(path)
	if err != nil {
		return nil, err
	}

	if record, ok := toRecord(raw); ok {
		return &Records{Items: []Record{record}}, nil
	}

	items, err := toRecords(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Records{Items: items}, nil
}

// Payload mirrors the request bodies accepted by the recommendation endpoints:
// one pivot object plus a list of counterparts.
type Payload struct {
	Pivot        Record
	Counterparts *Records
}

// LoadPayload reads a request-shaped document such as
// {"userProfile": {...}, "jobOffers": [...]} and validates its shape.
func LoadPayload(path, pivotKey, batchKey string) (*Payload, error) {
	raw, err := readDocument(path)
	if err != nil {
		return nil, err
	}

	return ParsePayload(raw, pivotKey, batchKey)
}

// ParsePayload validates an already decoded request document.
func ParsePayload(raw any, pivotKey, batchKey string) (*Payload, error) {
	doc, ok := toRecord(raw)
	if !ok {
		return nil, fmt.Errorf("payload %w", ErrNotObject)
	}

	pivotRaw, hasPivot := doc[pivotKey]
	batchRaw, hasBatch := doc[batchKey]
	if !hasPivot || !hasBatch {
		return nil, fmt.Errorf("payload must contain %s and %s", pivotKey, batchKey)
	}

	items, err := toRecords(batchRaw)
	if err != nil {
		return nil, fmt.Errorf("%s %w", batchKey, err)
	}

	pivot, ok := toRecord(pivotRaw)
	if !ok {
		return nil, fmt.Errorf("%s %w", pivotKey, ErrNotObject)
	}

	return &Payload{Pivot: pivot, Counterparts: &Records{Items: items}}, nil
}

func readDocument(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading records file: %w", err)
	}

	var raw any
	if isJSON(path, data) {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	return raw, nil
}

// isJSON picks the decoder: by extension first, then by the leading byte.
// yaml.v3 rejects valid JSON such as "\/" escapes and duplicate keys.
func isJSON(path string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return true
	case ".yaml", ".yml":
		return false
	}

	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

func toRecords(raw any) ([]Record, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, ErrNotList
	}

	items := make([]Record, 0, len(list))
	for idx, item := range list {
		record, ok := toRecord(item)
		if !ok {
			return nil, fmt.Errorf("item %d %w", idx, ErrNotObject)
		}
		items = append(items, record)
	}

	return items, nil
}

func toRecord(raw any) (Record, bool) {
	switch typed := raw.(type) {
	case Record:
		return typed, true
	case map[string]any:
		return Record(typed), true
	case map[any]any:
		record := make(Record, len(typed))
		for key, value := range typed {
			record[fmt.Sprintf("%v", key)] = value
		}
		return record, true
	default:
		return nil, false
	}
}
