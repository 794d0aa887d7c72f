// Copyright © 2024 The Declavatar authors

package avatar

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownVariant is returned when decoding a variant with an unknown
// type tag.
var ErrUnknownVariant = errors.New("unknown variant")

// Marshal returns the compact JSON encoding of a.
func Marshal(a *Avatar) ([]byte, error) {
	return json.Marshal(a)
}

// MarshalIndent is like Marshal but indents the output.
func MarshalIndent(a *Avatar, prefix, indent string) ([]byte, error) {
	return json.MarshalIndent(a, prefix, indent)
}

// Unmarshal decodes an avatar written by Marshal.
func Unmarshal(data []byte) (*Avatar, error) {
	a := New()
	if err := json.Unmarshal(data, a); err != nil {
		return nil, err
	}
	return a, nil
}

// marshalTagged encodes {tagKey: typ, contentKey: content}.  The content is
// left out when contentKey is empty.
func marshalTagged(tagKey, typ, contentKey string, content any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	writeKey(&buf, tagKey)
	tag, err := json.Marshal(typ)
	if err != nil {
		return nil, err
	}
	buf.Write(tag)
	if contentKey != "" {
		c, err := json.Marshal(content)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		writeKey(&buf, contentKey)
		buf.Write(c)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, key string) {
	k, _ := json.Marshal(key)
	buf.Write(k)
	buf.WriteByte(':')
}

// unmarshalTagged splits a tagged object into its tag and raw content.  The
// content is nil when absent.
func unmarshalTagged(data []byte, tagKey, contentKey string) (string, json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", nil, err
	}
	var typ string
	raw, ok := fields[tagKey]
	if !ok {
		return "", nil, fmt.Errorf("%w: missing %q field", ErrUnknownVariant, tagKey)
	}
	if err := json.Unmarshal(raw, &typ); err != nil {
		return "", nil, err
	}
	return typ, fields[contentKey], nil
}

var parameterTags = [...]string{
	ParameterInt:   "Int",
	ParameterFloat: "Float",
	ParameterBool:  "Bool",
}

func (v ParameterValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ParameterInt:
		return marshalTagged("type", parameterTags[v.Kind], "default", v.Int)
	case ParameterFloat:
		return marshalTagged("type", parameterTags[v.Kind], "default", v.Float)
	case ParameterBool:
		return marshalTagged("type", parameterTags[v.Kind], "default", v.Bool)
	}
	return nil, fmt.Errorf("%w: parameter kind %d", ErrUnknownVariant, int(v.Kind))
}

func (v *ParameterValue) UnmarshalJSON(data []byte) error {
	typ, content, err := unmarshalTagged(data, "type", "default")
	if err != nil {
		return err
	}
	*v = ParameterValue{}
	switch typ {
	case parameterTags[ParameterInt]:
		v.Kind = ParameterInt
		return json.Unmarshal(content, &v.Int)
	case parameterTags[ParameterFloat]:
		v.Kind = ParameterFloat
		return json.Unmarshal(content, &v.Float)
	case parameterTags[ParameterBool]:
		v.Kind = ParameterBool
		return json.Unmarshal(content, &v.Bool)
	}
	return fmt.Errorf("%w: parameter type %q", ErrUnknownVariant, typ)
}

var scopeTags = [...]string{
	ScopeInternal: "Internal",
	ScopeLocal:    "Local",
	ScopeSynced:   "Synced",
}

func (s Scope) MarshalJSON() ([]byte, error) {
	if s.Kind < 0 || int(s.Kind) >= len(scopeTags) {
		return nil, fmt.Errorf("%w: scope %d", ErrUnknownVariant, int(s.Kind))
	}
	if s.Kind == ScopeInternal {
		return marshalTagged("type", scopeTags[s.Kind], "", nil)
	}
	return marshalTagged("type", scopeTags[s.Kind], "save", s.Save)
}

func (s *Scope) UnmarshalJSON(data []byte) error {
	typ, content, err := unmarshalTagged(data, "type", "save")
	if err != nil {
		return err
	}
	*s = Scope{}
	for kind, tag := range scopeTags {
		if tag != typ {
			continue
		}
		s.Kind = ScopeKind(kind)
		if content == nil {
			return nil
		}
		return json.Unmarshal(content, &s.Save)
	}
	return fmt.Errorf("%w: scope %q", ErrUnknownVariant, typ)
}

func (t AssetType) MarshalText() ([]byte, error) {
	switch t {
	case AssetMaterial:
		return []byte("Material"), nil
	case AssetAnimation:
		return []byte("Animation"), nil
	}
	return nil, fmt.Errorf("%w: asset type %d", ErrUnknownVariant, int(t))
}

func (t *AssetType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Material":
		*t = AssetMaterial
	case "Animation":
		*t = AssetAnimation
	default:
		return fmt.Errorf("%w: asset type %q", ErrUnknownVariant, text)
	}
	return nil
}

// Plain aliases drop the MarshalJSON methods of the variant types so their
// fields can be encoded as content.
type (
	plainGate    Gate
	plainGuard   Guard
	plainButton  Button
	plainToggle  Toggle
	plainRadial  Radial
	plainTwoAxis TwoAxis
	plainFour    FourAxis
)

func (g *Gate) MarshalJSON() ([]byte, error) {
	return marshalTagged("type", "Gate", "content", (*plainGate)(g))
}

func (g *Guard) MarshalJSON() ([]byte, error) {
	return marshalTagged("type", "Guard", "content", (*plainGuard)(g))
}

func (m *SubMenu) MarshalJSON() ([]byte, error) {
	items := m.Items
	if items == nil {
		items = []MenuItem{}
	}
	content := struct {
		Name  string     `json:"name"`
		Items []MenuItem `json:"items"`
	}{m.Name, items}
	return marshalTagged("type", "SubMenu", "content", content)
}

func (m *Button) MarshalJSON() ([]byte, error) {
	return marshalTagged("type", "Button", "content", (*plainButton)(m))
}

func (m *Toggle) MarshalJSON() ([]byte, error) {
	return marshalTagged("type", "Toggle", "content", (*plainToggle)(m))
}

func (m *Radial) MarshalJSON() ([]byte, error) {
	return marshalTagged("type", "Radial", "content", (*plainRadial)(m))
}

func (m *TwoAxis) MarshalJSON() ([]byte, error) {
	return marshalTagged("type", "TwoAxis", "content", (*plainTwoAxis)(m))
}

func (m *FourAxis) MarshalJSON() ([]byte, error) {
	return marshalTagged("type", "FourAxis", "content", (*plainFour)(m))
}

func unmarshalExportItem(data []byte) (ExportItem, error) {
	typ, content, err := unmarshalTagged(data, "type", "content")
	if err != nil {
		return nil, err
	}
	switch typ {
	case "Gate":
		g := &Gate{}
		return g, json.Unmarshal(content, (*plainGate)(g))
	case "Guard":
		g := &Guard{}
		return g, json.Unmarshal(content, (*plainGuard)(g))
	}
	return nil, fmt.Errorf("%w: export item %q", ErrUnknownVariant, typ)
}

func unmarshalMenuItem(data []byte) (MenuItem, error) {
	typ, content, err := unmarshalTagged(data, "type", "content")
	if err != nil {
		return nil, err
	}
	switch typ {
	case "SubMenu":
		var raw struct {
			Name  string            `json:"name"`
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(content, &raw); err != nil {
			return nil, err
		}
		items, err := unmarshalMenuItems(raw.Items)
		if err != nil {
			return nil, err
		}
		return &SubMenu{Name: raw.Name, Items: items}, nil
	case "Button":
		m := &Button{}
		return m, json.Unmarshal(content, (*plainButton)(m))
	case "Toggle":
		m := &Toggle{}
		return m, json.Unmarshal(content, (*plainToggle)(m))
	case "Radial":
		m := &Radial{}
		return m, json.Unmarshal(content, (*plainRadial)(m))
	case "TwoAxis":
		m := &TwoAxis{}
		return m, json.Unmarshal(content, (*plainTwoAxis)(m))
	case "FourAxis":
		m := &FourAxis{}
		return m, json.Unmarshal(content, (*plainFour)(m))
	}
	return nil, fmt.Errorf("%w: menu item %q", ErrUnknownVariant, typ)
}

func unmarshalMenuItems(raws []json.RawMessage) ([]MenuItem, error) {
	items := make([]MenuItem, 0, len(raws))
	for _, raw := range raws {
		item, err := unmarshalMenuItem(raw)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// MarshalJSON emits empty collections as [] even when they are nil.
func (a *Avatar) MarshalJSON() ([]byte, error) {
	type plain Avatar
	p := plain(*a)
	if p.Parameters == nil {
		p.Parameters = []*Parameter{}
	}
	if p.Assets == nil {
		p.Assets = []*Asset{}
	}
	if p.Exports == nil {
		p.Exports = []ExportItem{}
	}
	if p.FXController == nil {
		p.FXController = []*Layer{}
	}
	if p.MenuItems == nil {
		p.MenuItems = []MenuItem{}
	}
	if p.Attachments == nil {
		p.Attachments = []*Attachment{}
	}
	return json.Marshal(&p)
}

func (a *Avatar) UnmarshalJSON(data []byte) error {
	var raw struct {
		Version      string            `json:"version"`
		Name         string            `json:"name"`
		Parameters   []*Parameter      `json:"parameters"`
		Assets       []*Asset          `json:"assets"`
		Exports      []json.RawMessage `json:"exports"`
		FXController []*Layer          `json:"fx_controller"`
		MenuItems    []json.RawMessage `json:"menu_items"`
		Attachments  []*Attachment     `json:"attachments"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = *New()
	a.Version = raw.Version
	a.Name = raw.Name
	if raw.Parameters != nil {
		a.Parameters = raw.Parameters
	}
	if raw.Assets != nil {
		a.Assets = raw.Assets
	}
	if raw.FXController != nil {
		a.FXController = raw.FXController
	}
	if raw.Attachments != nil {
		a.Attachments = raw.Attachments
	}
	for _, r := range raw.Exports {
		item, err := unmarshalExportItem(r)
		if err != nil {
			return err
		}
		a.Exports = append(a.Exports, item)
	}
	items, err := unmarshalMenuItems(raw.MenuItems)
	if err != nil {
		return err
	}
	a.MenuItems = items
	return nil
}

func (a *Attachment) MarshalJSON() ([]byte, error) {
	type plain Attachment
	p := plain(*a)
	if p.Properties == nil {
		p.Properties = []*Property{}
	}
	return json.Marshal(&p)
}

func (a *Attachment) UnmarshalJSON(data []byte) error {
	type plain Attachment
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Properties == nil {
		p.Properties = []*Property{}
	}
	*a = Attachment(p)
	return nil
}

func (p *Property) MarshalJSON() ([]byte, error) {
	params := p.Parameters
	if params == nil {
		params = []Value{}
	}
	keywords := p.Keywords
	if keywords == nil {
		keywords = map[string]Value{}
	}
	return json.Marshal(struct {
		Name       string           `json:"name"`
		Parameters []Value          `json:"parameters"`
		Keywords   map[string]Value `json:"keywords"`
	}{p.Name, params, keywords})
}

func (p *Property) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name       string                     `json:"name"`
		Parameters []json.RawMessage          `json:"parameters"`
		Keywords   map[string]json.RawMessage `json:"keywords"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Property{
		Name:       raw.Name,
		Parameters: make([]Value, 0, len(raw.Parameters)),
		Keywords:   make(map[string]Value, len(raw.Keywords)),
	}
	for _, r := range raw.Parameters {
		v, err := UnmarshalValue(r)
		if err != nil {
			return fmt.Errorf("property %s: %w", raw.Name, err)
		}
		p.Parameters = append(p.Parameters, v)
	}
	for name, r := range raw.Keywords {
		v, err := UnmarshalValue(r)
		if err != nil {
			return fmt.Errorf("property %s: keyword %s: %w", raw.Name, name, err)
		}
		p.Keywords[name] = v
	}
	return nil
}

func jsonMarshal(v any) ([]byte, error) {
	return json.Marshal(v)
}
