// Package token defines the instruction tokens of the bytecode assembly
// language and a tokenizer that reads them from source text.
package token

import (
	"fmt"
	"strconv"
	"strings"
)

// Op selects the variant of a Token.
type Op uint8

// Ops in keyword order; OpInvalid is never produced by the tokenizer.
const (
	OpInvalid Op = iota

	// section markers
	OpRaw
	OpClass
	OpFunction

	// function definition
	OpDefun
	OpEndef

	// stack and heap
	OpPushi
	OpPushf
	OpPop
	OpDup
	OpLoad
	OpStore
	OpStores

	// arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem

	// comparison
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	// control
	OpCall
	OpLabel
	OpGoto
	OpBranch

	numOps
)

var opNames = [numOps]string{
	OpInvalid:  "<invalid>",
	OpRaw:      ".raw",
	OpClass:    ".class",
	OpFunction: ".function",
	OpDefun:    "defun",
	OpEndef:    "endef",
	OpPushi:    "pushi",
	OpPushf:    "pushf",
	OpPop:      "pop",
	OpDup:      "dup",
	OpLoad:     "load",
	OpStore:    "store",
	OpStores:   "stores",
	OpAdd:      "add",
	OpSub:      "sub",
	OpMul:      "mul",
	OpDiv:      "div",
	OpRem:      "rem",
	OpEq:       "eq",
	OpNe:       "ne",
	OpLt:       "lt",
	OpLe:       "le",
	OpGt:       "gt",
	OpGe:       "ge",
	OpCall:     "call",
	OpLabel:    "label",
	OpGoto:     "goto",
	OpBranch:   "branch",
}

var keywords map[string]Op

func init() {
	keywords = make(map[string]Op, numOps)
	for op := OpInvalid + 1; op < numOps; op++ {
		keywords[opNames[op]] = op
	}
}

// Keyword returns the Op spelled by word, or false if word is not a keyword.
func Keyword(word string) (Op, bool) {
	op, ok := keywords[word]
	return op, ok
}

func (op Op) String() string {
	if op < numOps {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

// Structural reports whether op is a section marker or a function header,
// which may not appear inside a function body.
func (op Op) Structural() bool {
	switch op {
	case OpRaw, OpClass, OpFunction, OpDefun:
		return true
	}
	return false
}

// Executable reports whether op may appear inside a function body.
func (op Op) Executable() bool {
	return op >= OpPushi && op < numOps
}

// TypeKind classifies a declared parameter or return type.
type TypeKind uint8

// Declared type kinds; these are metadata and never checked at run time.
const (
	Void TypeKind = iota
	Int
	Float
	String
	Class
)

// Type is a declared value type: a builtin kind, or an opaque class tag.
type Type struct {
	Kind  TypeKind `cbor:"1,keyasint"`
	Class string   `cbor:"2,keyasint,omitempty"`
}

// ParseType maps a type word to a Type; unknown words are class tags.
func ParseType(word string) Type {
	switch word {
	case "int":
		return Type{Kind: Int}
	case "float":
		return Type{Kind: Float}
	case "string":
		return Type{Kind: String}
	case "NULL":
		return Type{Kind: Void}
	}
	return Type{Kind: Class, Class: word}
}

func (t Type) String() string {
	switch t.Kind {
	case Void:
		return "NULL"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	}
	return t.Class
}

// Token is one instruction; only the fields used by its Op are set:
//
//	pushi          Int
//	pushf          Float
//	load store     Index (heap slot)
//	stores         Index (heap slot), Size (declared), Name (literal)
//	label goto     Index (label id)
//	branch         Index (label id)
//	call           Name
//	defun          Name, Params, Ret
type Token struct {
	Op     Op      `cbor:"1,keyasint"`
	Int    int32   `cbor:"2,keyasint,omitempty"`
	Float  float32 `cbor:"3,keyasint,omitempty"`
	Index  int     `cbor:"4,keyasint,omitempty"`
	Size   int     `cbor:"5,keyasint,omitempty"`
	Name   string  `cbor:"6,keyasint,omitempty"`
	Params []Type  `cbor:"7,keyasint,omitempty"`
	Ret    Type    `cbor:"8,keyasint"`
}

// String returns the token in its source spelling.
func (tok Token) String() string {
	switch tok.Op {
	case OpPushi:
		return fmt.Sprintf("pushi %d", tok.Int)
	case OpPushf:
		return "pushf " + strconv.FormatFloat(float64(tok.Float), 'g', -1, 32)
	case OpLoad, OpStore, OpLabel, OpGoto, OpBranch:
		return fmt.Sprintf("%v %d", tok.Op, tok.Index)
	case OpStores:
		return fmt.Sprintf(`stores %d %d "%s"`, tok.Index, tok.Size, tok.Name)
	case OpCall:
		return "call " + tok.Name
	case OpDefun:
		var sb strings.Builder
		fmt.Fprintf(&sb, "defun %v %d", tok.Name, len(tok.Params))
		for _, param := range tok.Params {
			sb.WriteByte(' ')
			sb.WriteString(param.String())
		}
		sb.WriteByte(' ')
		sb.WriteString(tok.Ret.String())
		return sb.String()
	}
	return tok.Op.String()
}

// Instruction is a Token along with the 0-based source row of its keyword.
type Instruction struct {
	Token
	Row int
}

func (in Instruction) String() string {
	return fmt.Sprintf("%v (row %v)", in.Token, in.Row)
}
