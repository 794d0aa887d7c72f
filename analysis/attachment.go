// Copyright © 2024 The Declavatar authors

package analysis

import (
	"errors"
	"strconv"
	"strings"

	"github.com/declavatar/declavatar/ast"
	"github.com/declavatar/declavatar/avatar"
	"github.com/declavatar/declavatar/diagnostic"
	"github.com/declavatar/declavatar/parser/token"
	"github.com/declavatar/declavatar/schema"
)

func (a *analyzer) attachments(block *ast.AttachmentsBlock, s *Scope) {
	var target string
	if block.Target != nil {
		v, ok := a.value(block.Target, s)
		if !ok {
			return
		}
		switch v := v.(type) {
		case avatar.String:
			target = string(v)
		case avatar.GameObject:
			target = string(v)
		default:
			a.errorf(s, block.Target.Pos(), "value.type_mismatch", "attachments target", "string", v.TypeName())
			return
		}
	}
	s = s.Child(ScopeAttachments, "attachments")
	for _, node := range a.active(block.Body) {
		decl, ok := node.(*ast.AttachmentDecl)
		if !ok {
			continue
		}
		if att := a.attachment(decl, target, s); att != nil {
			a.avatar.Attachments = append(a.avatar.Attachments, att)
		}
	}
}

// attachment checks an attachment body against its registered schema.  An
// attachment with an unknown schema or missing required properties is
// dropped.
func (a *analyzer) attachment(decl *ast.AttachmentDecl, target string, s *Scope) *avatar.Attachment {
	name, ok := a.str(decl.Name, s, "attachment name")
	if !ok {
		return nil
	}
	sch, found := a.cfg.Schemas.Get(name)
	if !found {
		a.errorf(s, decl.Name.Pos(), "attachment.unknown_schema", name)
		return nil
	}
	s = s.Child(ScopeAttachment, "attachment "+quote(name))

	att := &avatar.Attachment{Target: target, Name: name, Properties: []*avatar.Property{}}
	seen := make(map[string]bool)
	for _, node := range a.active(decl.Body) {
		pdecl, ok := node.(*ast.PropertyDecl)
		if !ok {
			continue
		}
		pname, ok := a.str(pdecl.Name, s, "property name")
		if !ok {
			continue
		}
		def, found := sch.Property(pname)
		if !found {
			a.errorf(s, pdecl.Name.Pos(), "attachment.unknown_property", pname)
			continue
		}
		if seen[pname] {
			a.errorf(s, pdecl.Source, "attachment.duplicate_property", pname)
			continue
		}
		seen[pname] = true
		if def.Deprecated {
			a.report(diagnostic.KindSemanticInfo, s, pdecl.Source, "attachment.deprecated_property", pname)
		}
		if prop := a.property(pdecl, def, s.Child(ScopeProperty, "property "+quote(pname))); prop != nil {
			att.Properties = append(att.Properties, prop)
		}
	}

	var missing []string
	for _, def := range sch.Properties {
		if def.Required && !seen[def.Name] {
			missing = append(missing, def.Name)
		}
	}
	if len(missing) > 0 {
		a.errorf(s, decl.Source, "attachment.missing_property", strings.Join(missing, ", "))
		return nil
	}
	return att
}

func (a *analyzer) property(decl *ast.PropertyDecl, def *schema.Property, s *Scope) *avatar.Property {
	prop := &avatar.Property{
		Name:       def.Name,
		Parameters: []avatar.Value{},
		Keywords:   map[string]avatar.Value{},
	}
	ok := true

	if len(decl.Args) != len(def.Parameters) {
		a.errorf(s, decl.Source, "attachment.length_mismatch",
			strconv.Itoa(len(def.Parameters)), strconv.Itoa(len(decl.Args)))
		ok = false
	}
	for i := 0; i < len(decl.Args) && i < len(def.Parameters); i++ {
		v, valid := a.coerce(def.Parameters[i].Type, decl.Args[i], s)
		if !valid {
			ok = false
			continue
		}
		prop.Parameters = append(prop.Parameters, v)
	}

	given := make(map[*schema.Keyword]bool)
	for _, kw := range decl.Keywords {
		kdef, found := def.Keyword(kw.Name)
		if !found {
			a.errorf(s, kw.Source, "attachment.unknown_keyword", kw.Name)
			ok = false
			continue
		}
		given[kdef] = true
		if kdef.Deprecated {
			a.report(diagnostic.KindSemanticInfo, s, kw.Source, "attachment.deprecated_keyword", kdef.Name)
		}
		v, valid := a.coerce(kdef.Type, kw.Value, s)
		if !valid {
			ok = false
			continue
		}
		prop.Keywords[kdef.Name] = v
	}
	for _, kdef := range def.Keywords {
		if kdef.Required && !given[kdef] {
			a.errorf(s, decl.Source, "attachment.missing_keyword", kdef.Name)
			ok = false
		}
	}

	if !ok {
		return nil
	}
	return prop
}

// coerce evaluates x and checks it against t.
func (a *analyzer) coerce(t *schema.Type, x ast.Expr, s *Scope) (avatar.Value, bool) {
	v, ok := a.value(x, s)
	if !ok {
		return nil, false
	}
	out, err := schema.Coerce(t, v)
	if err != nil {
		a.coerceError(err, x.Pos(), s)
		return nil, false
	}
	return out, true
}

func (a *analyzer) coerceError(err error, loc *token.Location, s *Scope) {
	var typeErr *schema.TypeMismatchError
	var lenErr *schema.LengthMismatchError
	switch {
	case errors.As(err, &lenErr):
		a.errorf(s, loc, "attachment.length_mismatch", strconv.Itoa(lenErr.Expected), strconv.Itoa(lenErr.Found))
	case errors.As(err, &typeErr):
		a.errorf(s, loc, "attachment.type_mismatch", typeErr.Expected, typeErr.Found)
	default:
		a.errorf(s, loc, "attachment.type_mismatch", "value", err.Error())
	}
}
