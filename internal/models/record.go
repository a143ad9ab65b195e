package models

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrUnexpectedShape is returned when a document matches none of the known
// envelope shapes.
var ErrUnexpectedShape = errors.New("unexpected document shape")

// Shape names the envelope a product document arrived in.
type Shape string

const (
	ShapeArray        Shape = "array"
	ShapeRecord       Shape = "record"
	ShapeNestedRecord Shape = "record.record"
)

// Document is the body written back to the document store.
type Document struct {
	Record []Product `json:"record"`
}

type envelope struct {
	Record json.RawMessage `json:"record"`
}

// UnwrapRecords extracts the product records from a document body. It tries, in
// order, a bare array, {"record": [...]} and {"record": {"record": [...]}}.
func UnwrapRecords(body []byte) ([]map[string]any, Shape, error) {
	body = bytes.TrimSpace(body)

	if records, ok := decodeArray(body); ok {
		return records, ShapeArray, nil
	}

	var outer envelope
	if err := json.Unmarshal(body, &outer); err != nil {
		return nil, "", errors.Join(ErrUnexpectedShape, err)
	}
	if records, ok := decodeArray(outer.Record); ok {
		return records, ShapeRecord, nil
	}

	var inner envelope
	if err := json.Unmarshal(outer.Record, &inner); err == nil {
		if records, ok := decodeArray(bytes.TrimSpace(inner.Record)); ok {
			return records, ShapeNestedRecord, nil
		}
	}
	return nil, "", ErrUnexpectedShape
}

// MarshalDocument encodes products in the {"record": [...]} envelope.
func MarshalDocument(products []Product) ([]byte, error) {
	if products == nil {
		products = []Product{}
	}
	return json.Marshal(Document{Record: products})
}

func decodeArray(data []byte) ([]map[string]any, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, false
	}
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false
	}
	return records, true
}
