package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// list decodes a bare JSON array or an object wrapping it under one of the
// keys the backend uses for collections.
type list[T any] struct {
	Items []T
}

func (l *list[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		l.Items = nil
		return nil
	}
	if trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &l.Items)
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return err
	}
	for _, key := range []string{"items", "data", "products", "categories", "regions"} {
		if raw, ok := wrapped[key]; ok {
			return json.Unmarshal(raw, &l.Items)
		}
	}
	return fmt.Errorf("no collection in response")
}

// item decodes either a bare object or one wrapped under "data".
type item[T any] struct {
	Value T
}

func (i *item[T]) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.Data) > 0 && wrapped.Data[0] == '{' {
		return json.Unmarshal(wrapped.Data, &i.Value)
	}
	return json.Unmarshal(data, &i.Value)
}
