// Copyright © 2024 The Declavatar authors

package schema

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ParseJSON decodes and validates a schema in its JSON form:
//
//	{"name": "PhysBoneExt", "properties": [{"name": "weight", "required": false,
//	  "parameters": [{"name": "value", "value_type": {"type": "Float"}}],
//	  "keywords": []}]}
func ParseJSON(src []byte) (*Attachment, error) {
	var a Attachment
	if err := json.Unmarshal(src, &a); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// MarshalJSON encodes t as {"type": ..., "content": ...}.
func (t *Type) MarshalJSON() ([]byte, error) {
	if t == nil || !t.Kind.valid() {
		return nil, errors.New("cannot encode unknown value type")
	}
	tagged := struct {
		Type    string `json:"type"`
		Content any    `json:"content,omitempty"`
	}{Type: kindInfo[t.Kind].tag}
	switch t.Kind {
	case KindList:
		if len(t.Elems) > 0 {
			tagged.Content = t.Elems[0]
		}
	case KindTuple, KindOneOf, KindMap:
		elems := t.Elems
		if elems == nil {
			elems = []*Type{}
		}
		tagged.Content = elems
	case KindVector:
		tagged.Content = &t.Len
	}
	return json.Marshal(tagged)
}

func (t *Type) UnmarshalJSON(data []byte) error {
	var tagged struct {
		Type    string          `json:"type"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	kind, ok := kindByTag(tagged.Type)
	if !ok {
		return fmt.Errorf("unknown value type %q", tagged.Type)
	}
	*t = Type{Kind: kind}
	switch kind {
	case KindList:
		elem := &Type{}
		if err := json.Unmarshal(tagged.Content, elem); err != nil {
			return fmt.Errorf("list: %w", err)
		}
		t.Elems = []*Type{elem}
	case KindTuple, KindOneOf, KindMap:
		if err := json.Unmarshal(tagged.Content, &t.Elems); err != nil {
			return fmt.Errorf("%s: %w", kind.Keyword(), err)
		}
	case KindVector:
		if err := json.Unmarshal(tagged.Content, &t.Len); err != nil {
			return fmt.Errorf("vector: %w", err)
		}
	}
	return nil
}

func kindByTag(tag string) (Kind, bool) {
	for k := range kindInfo {
		if kindInfo[k].tag == tag {
			return Kind(k), true
		}
	}
	return 0, false
}

func jsonMarshal(v any) ([]byte, error) {
	return json.Marshal(v)
}
