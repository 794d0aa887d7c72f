// Copyright © 2024 The Declavatar authors

package schema

import (
	"fmt"

	"github.com/declavatar/declavatar/avatar"
)

// TypeMismatchError is returned by Coerce when a value has the wrong type.
type TypeMismatchError struct {
	Expected string
	Found    string
}

func (err *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch; %s expected, %s found", err.Expected, err.Found)
}

// LengthMismatchError is returned by Coerce when a tuple or vector has the
// wrong number of items.
type LengthMismatchError struct {
	Expected int
	Found    int
}

func (err *LengthMismatchError) Error() string {
	return fmt.Sprintf("length mismatch; %d expected, %d found", err.Expected, err.Found)
}

// Coerce checks v against t and returns the typed value.  Lists in v are
// untyped: they become a List or a Tuple depending on t.  An integer is
// accepted where a float is expected.  A one-of accepts a value matching any
// of its alternatives, trying them in order.
func Coerce(t *Type, v avatar.Value) (avatar.Value, error) {
	switch t.Kind {
	case KindAny:
		return coerceAny(v), nil
	case KindOneOf:
		for _, alt := range t.Elems {
			if typed, err := Coerce(alt, v); err == nil {
				return typed, nil
			}
		}
		return nil, mismatch(t, v)
	}

	switch v := v.(type) {
	case avatar.List:
		return coerceList(t, v)
	case avatar.Tuple:
		return coerceList(t, avatar.List(v))
	case avatar.Vector:
		if t.Kind != KindVector {
			return nil, mismatch(t, v)
		}
		if len(v) != t.Len {
			return nil, &LengthMismatchError{Expected: t.Len, Found: len(v)}
		}
		return v, nil
	case avatar.Integer:
		switch t.Kind {
		case KindInteger:
			return v, nil
		case KindFloat:
			return avatar.Float(v), nil
		}
		return nil, mismatch(t, v)
	}

	if kindOf(v) != t.Kind {
		return nil, mismatch(t, v)
	}
	return v, nil
}

func coerceAny(v avatar.Value) avatar.Value {
	if list, ok := v.(avatar.List); ok {
		items := make(avatar.List, len(list))
		for i, item := range list {
			items[i] = coerceAny(item)
		}
		return items
	}
	return v
}

func coerceList(t *Type, list avatar.List) (avatar.Value, error) {
	switch t.Kind {
	case KindList:
		items := make(avatar.List, len(list))
		for i, item := range list {
			typed, err := Coerce(t.Elems[0], item)
			if err != nil {
				return nil, err
			}
			items[i] = typed
		}
		return items, nil
	case KindTuple:
		if len(list) != len(t.Elems) {
			return nil, &LengthMismatchError{Expected: len(t.Elems), Found: len(list)}
		}
		items := make(avatar.Tuple, len(list))
		for i, item := range list {
			typed, err := Coerce(t.Elems[i], item)
			if err != nil {
				return nil, err
			}
			items[i] = typed
		}
		return items, nil
	}
	return nil, mismatch(t, list)
}

func mismatch(t *Type, v avatar.Value) error {
	return &TypeMismatchError{Expected: t.Name(), Found: v.TypeName()}
}

func kindOf(v avatar.Value) Kind {
	switch v.(type) {
	case avatar.Null:
		return KindNull
	case avatar.Boolean:
		return KindBoolean
	case avatar.Integer:
		return KindInteger
	case avatar.Float:
		return KindFloat
	case avatar.String:
		return KindString
	case avatar.GameObject:
		return KindGameObject
	case avatar.Material:
		return KindMaterial
	case avatar.AnimationClip:
		return KindAnimationClip
	case avatar.Vector:
		return KindVector
	case avatar.Tuple:
		return KindTuple
	}
	return KindList
}
