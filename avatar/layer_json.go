// Copyright © 2024 The Declavatar authors

package avatar

import (
	"encoding/json"
	"fmt"
)

func (l *Layer) MarshalJSON() ([]byte, error) {
	content, err := marshalLayerContent(l.Content)
	if err != nil {
		return nil, fmt.Errorf("layer %s: %w", l.Name, err)
	}
	return json.Marshal(struct {
		Name    string          `json:"name"`
		Content json.RawMessage `json:"content"`
	}{l.Name, content})
}

func (l *Layer) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name    string          `json:"name"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	content, err := unmarshalLayerContent(raw.Content)
	if err != nil {
		return fmt.Errorf("layer %s: %w", raw.Name, err)
	}
	*l = Layer{Name: raw.Name, Content: content}
	return nil
}

func marshalLayerContent(c LayerContent) ([]byte, error) {
	switch c := c.(type) {
	case *GroupLayer:
		options := c.Options
		if options == nil {
			options = []*GroupOption{}
		}
		def := c.Default
		if def == nil {
			def = &GroupOption{}
		}
		return marshalTagged("type", "Group", "content", struct {
			Parameter string         `json:"parameter"`
			Default   *GroupOption   `json:"default"`
			Options   []*GroupOption `json:"options"`
		}{c.Parameter, def, options})
	case *SwitchLayer:
		return marshalTagged("type", "Switch", "content", struct {
			Parameter string   `json:"parameter"`
			Disabled  []Target `json:"disabled"`
			Enabled   []Target `json:"enabled"`
		}{c.Parameter, targetsOrEmpty(c.Disabled), targetsOrEmpty(c.Enabled)})
	case *PuppetLayer:
		keyframes := c.Keyframes
		if keyframes == nil {
			keyframes = []*PuppetKeyframe{}
		}
		return marshalTagged("type", "Puppet", "content", struct {
			Parameter string            `json:"parameter"`
			Keyframes []*PuppetKeyframe `json:"keyframes"`
		}{c.Parameter, keyframes})
	case *RawLayer:
		states := c.States
		if states == nil {
			states = []*RawState{}
		}
		return marshalTagged("type", "Raw", "content", struct {
			Default int         `json:"default"`
			States  []*RawState `json:"states"`
		}{c.Default, states})
	}
	return nil, fmt.Errorf("%w: layer content %T", ErrUnknownVariant, c)
}

func unmarshalLayerContent(data []byte) (LayerContent, error) {
	typ, content, err := unmarshalTagged(data, "type", "content")
	if err != nil {
		return nil, err
	}
	switch typ {
	case "Group":
		var raw struct {
			Parameter string         `json:"parameter"`
			Default   *GroupOption   `json:"default"`
			Options   []*GroupOption `json:"options"`
		}
		if err := json.Unmarshal(content, &raw); err != nil {
			return nil, err
		}
		g := &GroupLayer{Parameter: raw.Parameter, Default: raw.Default, Options: raw.Options}
		if g.Default == nil {
			g.Default = &GroupOption{Targets: []Target{}}
		}
		if g.Options == nil {
			g.Options = []*GroupOption{}
		}
		return g, nil
	case "Switch":
		var raw struct {
			Parameter string            `json:"parameter"`
			Disabled  []json.RawMessage `json:"disabled"`
			Enabled   []json.RawMessage `json:"enabled"`
		}
		if err := json.Unmarshal(content, &raw); err != nil {
			return nil, err
		}
		disabled, err := unmarshalTargets(raw.Disabled)
		if err != nil {
			return nil, err
		}
		enabled, err := unmarshalTargets(raw.Enabled)
		if err != nil {
			return nil, err
		}
		return &SwitchLayer{Parameter: raw.Parameter, Disabled: disabled, Enabled: enabled}, nil
	case "Puppet":
		var raw struct {
			Parameter string            `json:"parameter"`
			Keyframes []*PuppetKeyframe `json:"keyframes"`
		}
		if err := json.Unmarshal(content, &raw); err != nil {
			return nil, err
		}
		if raw.Keyframes == nil {
			raw.Keyframes = []*PuppetKeyframe{}
		}
		return &PuppetLayer{Parameter: raw.Parameter, Keyframes: raw.Keyframes}, nil
	case "Raw":
		var raw struct {
			Default int         `json:"default"`
			States  []*RawState `json:"states"`
		}
		if err := json.Unmarshal(content, &raw); err != nil {
			return nil, err
		}
		if raw.States == nil {
			raw.States = []*RawState{}
		}
		return &RawLayer{Default: raw.Default, States: raw.States}, nil
	}
	return nil, fmt.Errorf("%w: layer %q", ErrUnknownVariant, typ)
}

func targetsOrEmpty(targets []Target) []Target {
	if targets == nil {
		return []Target{}
	}
	return targets
}

func (o *GroupOption) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name    string   `json:"name"`
		Value   uint8    `json:"value"`
		Targets []Target `json:"targets"`
	}{o.Name, o.Value, targetsOrEmpty(o.Targets)})
}

func (o *GroupOption) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name    string            `json:"name"`
		Value   uint8             `json:"value"`
		Targets []json.RawMessage `json:"targets"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	targets, err := unmarshalTargets(raw.Targets)
	if err != nil {
		return fmt.Errorf("option %s: %w", raw.Name, err)
	}
	*o = GroupOption{Name: raw.Name, Value: raw.Value, Targets: targets}
	return nil
}

func (k *PuppetKeyframe) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Position float64  `json:"position"`
		Targets  []Target `json:"targets"`
	}{k.Position, targetsOrEmpty(k.Targets)})
}

func (k *PuppetKeyframe) UnmarshalJSON(data []byte) error {
	var raw struct {
		Position float64           `json:"position"`
		Targets  []json.RawMessage `json:"targets"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	targets, err := unmarshalTargets(raw.Targets)
	if err != nil {
		return err
	}
	*k = PuppetKeyframe{Position: raw.Position, Targets: targets}
	return nil
}

func (s *RawState) MarshalJSON() ([]byte, error) {
	transitions := s.Transitions
	if transitions == nil {
		transitions = []*Transition{}
	}
	return json.Marshal(struct {
		Name        string        `json:"name"`
		Clip        string        `json:"clip"`
		Speed       float64       `json:"speed"`
		Transitions []*Transition `json:"transitions"`
	}{s.Name, s.Clip, s.Speed, transitions})
}

func (s *RawState) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name        string        `json:"name"`
		Clip        string        `json:"clip"`
		Speed       float64       `json:"speed"`
		Transitions []*Transition `json:"transitions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Transitions == nil {
		raw.Transitions = []*Transition{}
	}
	*s = RawState(raw)
	return nil
}

func (t *Transition) MarshalJSON() ([]byte, error) {
	conds := t.Conditions
	if conds == nil {
		conds = []Condition{}
	}
	return json.Marshal(struct {
		Target     int         `json:"target"`
		Duration   float64     `json:"duration"`
		Conditions []Condition `json:"conditions"`
	}{t.Target, t.Duration, conds})
}

func (t *Transition) UnmarshalJSON(data []byte) error {
	var raw struct {
		Target     int         `json:"target"`
		Duration   float64     `json:"duration"`
		Conditions []Condition `json:"conditions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Conditions == nil {
		raw.Conditions = []Condition{}
	}
	*t = Transition(raw)
	return nil
}

type (
	plainShape    ShapeTarget
	plainObject   ObjectTarget
	plainMaterial MaterialTarget
)

func (t *ShapeTarget) MarshalJSON() ([]byte, error) {
	return marshalTagged("type", "Shape", "content", (*plainShape)(t))
}

func (t *ObjectTarget) MarshalJSON() ([]byte, error) {
	return marshalTagged("type", "Object", "content", (*plainObject)(t))
}

func (t *MaterialTarget) MarshalJSON() ([]byte, error) {
	return marshalTagged("type", "Material", "content", (*plainMaterial)(t))
}

func (t *DriveTarget) MarshalJSON() ([]byte, error) {
	return marshalTagged("type", "ParameterDrive", "content", t.Drive)
}

func unmarshalTarget(data []byte) (Target, error) {
	typ, content, err := unmarshalTagged(data, "type", "content")
	if err != nil {
		return nil, err
	}
	switch typ {
	case "Shape":
		t := &ShapeTarget{}
		return t, json.Unmarshal(content, (*plainShape)(t))
	case "Object":
		t := &ObjectTarget{}
		return t, json.Unmarshal(content, (*plainObject)(t))
	case "Material":
		t := &MaterialTarget{}
		return t, json.Unmarshal(content, (*plainMaterial)(t))
	case "ParameterDrive":
		t := &DriveTarget{}
		return t, json.Unmarshal(content, &t.Drive)
	}
	return nil, fmt.Errorf("%w: target %q", ErrUnknownVariant, typ)
}

func unmarshalTargets(raws []json.RawMessage) ([]Target, error) {
	targets := make([]Target, 0, len(raws))
	for _, raw := range raws {
		t, err := unmarshalTarget(raw)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// MarshalJSON writes the drive with its arguments as a tuple, like
// {"type":"SetInt","content":["outfit",2]}.
func (d ParameterDrive) MarshalJSON() ([]byte, error) {
	var args []any
	switch d.Kind {
	case DriveSetInt, DriveAddInt:
		args = []any{d.Parameter, uint8(d.Value)}
	case DriveSetFloat, DriveAddFloat, DriveRandomBool:
		args = []any{d.Parameter, d.Value}
	case DriveSetBool:
		args = []any{d.Parameter, d.Bool}
	case DriveRandomInt:
		args = []any{d.Parameter, [2]uint8{uint8(d.Range[0]), uint8(d.Range[1])}}
	case DriveRandomFloat:
		args = []any{d.Parameter, d.Range}
	case DriveCopy:
		args = []any{d.Source, d.Parameter}
	case DriveRangedCopy:
		args = []any{d.Source, d.Parameter, d.Range, d.ToRange}
	default:
		return nil, fmt.Errorf("%w: drive %d", ErrUnknownVariant, int(d.Kind))
	}
	return marshalTagged("type", d.Kind.String(), "content", args)
}

func (d *ParameterDrive) UnmarshalJSON(data []byte) error {
	typ, content, err := unmarshalTagged(data, "type", "content")
	if err != nil {
		return err
	}
	kind := -1
	for k, name := range driveKindNames {
		if name == typ {
			kind = k
		}
	}
	if kind < 0 {
		return fmt.Errorf("%w: drive %q", ErrUnknownVariant, typ)
	}
	var args []json.RawMessage
	if err := json.Unmarshal(content, &args); err != nil {
		return err
	}
	want := 2
	if DriveKind(kind) == DriveRangedCopy {
		want = 4
	}
	if len(args) != want {
		return fmt.Errorf("drive %s: %d arguments, want %d", typ, len(args), want)
	}

	*d = ParameterDrive{Kind: DriveKind(kind)}
	var second any
	switch d.Kind {
	case DriveSetBool:
		second = &d.Bool
	case DriveRandomInt, DriveRandomFloat:
		second = &d.Range
	case DriveCopy, DriveRangedCopy:
		if err := json.Unmarshal(args[0], &d.Source); err != nil {
			return err
		}
		if err := json.Unmarshal(args[1], &d.Parameter); err != nil {
			return err
		}
		if d.Kind == DriveCopy {
			return nil
		}
		if err := json.Unmarshal(args[2], &d.Range); err != nil {
			return err
		}
		return json.Unmarshal(args[3], &d.ToRange)
	default:
		second = &d.Value
	}
	if err := json.Unmarshal(args[0], &d.Parameter); err != nil {
		return err
	}
	return json.Unmarshal(args[1], second)
}

// MarshalJSON writes {"type":"Be","content":"hat_on"} for bool tests and
// {"type":"EqInt","content":["outfit",2]} for the others.
func (c Condition) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CondBe, CondNot:
		return marshalTagged("type", c.Kind.String(), "content", c.Parameter)
	case CondEqInt, CondNeqInt, CondGtInt, CondLtInt:
		return marshalTagged("type", c.Kind.String(), "content", []any{c.Parameter, uint8(c.Value)})
	case CondGtFloat, CondLtFloat:
		return marshalTagged("type", c.Kind.String(), "content", []any{c.Parameter, c.Value})
	}
	return nil, fmt.Errorf("%w: condition %d", ErrUnknownVariant, int(c.Kind))
}

func (c *Condition) UnmarshalJSON(data []byte) error {
	typ, content, err := unmarshalTagged(data, "type", "content")
	if err != nil {
		return err
	}
	kind := -1
	for k, name := range conditionKindNames {
		if name == typ {
			kind = k
		}
	}
	if kind < 0 {
		return fmt.Errorf("%w: condition %q", ErrUnknownVariant, typ)
	}
	*c = Condition{Kind: ConditionKind(kind)}
	if c.Kind == CondBe || c.Kind == CondNot {
		return json.Unmarshal(content, &c.Parameter)
	}
	var args [2]json.RawMessage
	if err := json.Unmarshal(content, &args); err != nil {
		return err
	}
	if err := json.Unmarshal(args[0], &c.Parameter); err != nil {
		return err
	}
	return json.Unmarshal(args[1], &c.Value)
}
