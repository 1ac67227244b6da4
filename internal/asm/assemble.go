package asm

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jcorbin/gorvmi/internal/token"
)

// Source is a token stream with one token of lookahead, as provided by
// token.Tokenizer. Both methods return io.EOF at end of input.
type Source interface {
	Peek() (token.Instruction, error)
	Next() (token.Instruction, error)
}

// GrammarError reports a token that does not fit the program grammar.
type GrammarError struct {
	Name     string // source name, if known
	Expected string
	Found    token.Instruction
	EOF      bool
}

func (ge *GrammarError) Error() string {
	var sb strings.Builder
	if ge.Name != "" {
		sb.WriteString(ge.Name)
		if !ge.EOF {
			sb.WriteByte(' ')
		}
	}
	if ge.EOF {
		if sb.Len() > 0 {
			sb.WriteString(": ")
		}
		fmt.Fprintf(&sb, "expected %v, found EOF", ge.Expected)
	} else {
		fmt.Fprintf(&sb, "row %v: expected %v, found %v", ge.Found.Row, ge.Expected, ge.Found.Token)
	}
	return sb.String()
}

type assembler struct {
	src  Source
	name string
}

// Assemble consumes src, which must hold one whole program:
//
//	Program := .raw Class Fn
//	Class   := .class
//	Fn      := .function DeFun*
//	DeFun   := defun Token* endef
//
// The first tokenizer or grammar error is returned.
func Assemble(src Source) (*Program, error) {
	asm := assembler{src: src}
	if named, ok := src.(interface{ Name() string }); ok {
		asm.name = named.Name()
	}
	return asm.program()
}

// ParseString assembles a program from source text.
func ParseString(name, text string) (*Program, error) {
	return Assemble(token.NewTokenizer(name, strings.NewReader(text)))
}

// ParseFile assembles a program from the named source file.
func ParseFile(name string) (*Program, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Assemble(token.NewTokenizer(name, f))
}

func (asm *assembler) program() (*Program, error) {
	if _, err := asm.expect(token.OpRaw); err != nil {
		return nil, err
	}
	if _, err := asm.expect(token.OpClass); err != nil {
		return nil, err
	}
	if _, err := asm.expect(token.OpFunction); err != nil {
		return nil, err
	}

	var prog Program
	for {
		in, err := asm.src.Peek()
		if err == io.EOF {
			return &prog, nil
		} else if err != nil {
			return nil, err
		} else if in.Op != token.OpDefun {
			return nil, asm.grammarError(token.OpDefun, in, false)
		}

		fn, err := asm.defun()
		if err != nil {
			return nil, err
		}
		prog.Funcs = append(prog.Funcs, fn)
	}
}

func (asm *assembler) defun() (fn Function, err error) {
	head, err := asm.expect(token.OpDefun)
	if err != nil {
		return fn, err
	}
	fn.Name = head.Name
	fn.Params = head.Params
	fn.Ret = head.Ret
	fn.Body.Labels = make(map[int]int)

	for {
		in, err := asm.src.Peek()
		if err == io.EOF {
			return fn, asm.grammarError(token.OpEndef, in, true)
		} else if err != nil {
			return fn, err
		}
		if in.Op == token.OpEndef {
			break
		}
		if in.Op.Structural() {
			return fn, asm.grammarError(token.OpEndef, in, false)
		}
		if in.Op == token.OpLabel {
			// a repeated label id silently replaces the earlier one
			fn.Body.Labels[in.Index] = len(fn.Body.Code)
		}
		fn.Body.Code = append(fn.Body.Code, in.Token)
		asm.src.Next()
	}

	_, err = asm.expect(token.OpEndef)
	return fn, err
}

func (asm *assembler) expect(op token.Op) (token.Instruction, error) {
	in, err := asm.src.Next()
	if err == io.EOF {
		return in, asm.grammarError(op, in, true)
	} else if err != nil {
		return in, err
	}
	if in.Op != op {
		return in, asm.grammarError(op, in, false)
	}
	return in, nil
}

func (asm *assembler) grammarError(expected token.Op, found token.Instruction, eof bool) error {
	return &GrammarError{
		Name:     asm.name,
		Expected: expected.String(),
		Found:    found,
		EOF:      eof,
	}
}
