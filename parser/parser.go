// Copyright © 2024 The Declavatar authors

// Package parser turns source documents into declaration trees.
//
// Sources are first read into generic forms by one of the frontends
// (rdparser for S-expressions, scriptparser for the script syntax).  The
// forms are then lowered into typed declarations.  Include directives are
// resolved while lowering, so the returned ast.Document already contains
// the declarations of every included file.
package parser

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/declavatar/declavatar/ast"
	"github.com/declavatar/declavatar/parser/token"
)

// ReadFunc reads the file at path.  An error satisfying
// errors.Is(err, fs.ErrNotExist) makes the parser try the next library
// path.
type ReadFunc func(path string) ([]byte, error)

// Option configures a Parser.
type Option func(*Parser)

// WithLibraryPaths sets the directories searched, in order, for included
// files.
func WithLibraryPaths(paths ...string) Option {
	return func(p *Parser) {
		p.libraryPaths = append([]string(nil), paths...)
	}
}

// WithReadFunc replaces the function used to read included files.  The
// default is os.ReadFile.
func WithReadFunc(fn ReadFunc) Option {
	return func(p *Parser) {
		if fn != nil {
			p.read = fn
		}
	}
}

// Parser parses documents of a single format.
type Parser struct {
	format       Format
	libraryPaths []string
	read         ReadFunc
}

// New returns a Parser for documents written in format.
func New(format Format, opts ...Option) *Parser {
	p := &Parser{
		format: format,
		read:   os.ReadFile,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses src as a whole document named file.  Syntax errors are
// returned in the slice and do not stop parsing; declarations containing
// them are left out of the document.  The error result is non-nil only when
// src is not valid UTF-8 or the format is unknown.
func (p *Parser) Parse(file string, src []byte) (*ast.Document, []*token.Error, error) {
	forms, errs, err := ParseForms(file, src, p.format)
	if err != nil {
		return nil, nil, err
	}
	b := &builder{
		parser: p,
		errs:   errs,
		stack:  []string{filepath.Clean(file)},
	}
	doc := &ast.Document{
		File:  file,
		Nodes: b.lowerBody(ctxDocument, forms),
	}
	return doc, b.errs, nil
}

// Parse is a convenience function that parses src with a Parser configured
// by opts.
func Parse(file string, src []byte, format Format, opts ...Option) (*ast.Document, []*token.Error, error) {
	return New(format, opts...).Parse(file, src)
}

// resolve finds and reads an included file.  Absolute paths are read as is.
// Relative paths are tried against each library path in order.
func (p *Parser) resolve(path string) (string, []byte, error) {
	if filepath.IsAbs(path) {
		src, err := p.read(path)
		return filepath.Clean(path), src, err
	}
	for _, dir := range p.libraryPaths {
		full := filepath.Clean(filepath.Join(dir, path))
		src, err := p.read(full)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return full, src, err
	}
	return "", nil, fs.ErrNotExist
}
