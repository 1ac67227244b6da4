// Package asm assembles a token stream into a Program: a table of functions,
// each with its body and resolved jump labels.
package asm

import (
	"github.com/jcorbin/gorvmi/internal/token"
)

// Exec is a function body: its tokens, and the token index of each label.
type Exec struct {
	Code   []token.Token `cbor:"1,keyasint"`
	Labels map[int]int   `cbor:"2,keyasint"`
}

// Label returns the token index of label id.
func (ex *Exec) Label(id int) (int, bool) {
	pc, ok := ex.Labels[id]
	return pc, ok
}

// Function is one defun: its declared signature and its body. The declared
// types are metadata, never checked.
type Function struct {
	Name   string       `cbor:"1,keyasint"`
	Params []token.Type `cbor:"2,keyasint"`
	Ret    token.Type   `cbor:"3,keyasint"`
	Body   Exec         `cbor:"4,keyasint"`
}

// Header returns the defun token that declared fn.
func (fn *Function) Header() token.Token {
	return token.Token{Op: token.OpDefun, Name: fn.Name, Params: fn.Params, Ret: fn.Ret}
}

// Program is an assembled function table, in declaration order. Names need not
// be unique; see Lookup.
type Program struct {
	Funcs []Function `cbor:"1,keyasint"`
}

// Lookup returns the first function declared with the given name.
func (prog *Program) Lookup(name string) *Function {
	for i := range prog.Funcs {
		if prog.Funcs[i].Name == name {
			return &prog.Funcs[i]
		}
	}
	return nil
}
