package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jcorbin/gorvmi/internal/asm"
	"github.com/jcorbin/gorvmi/internal/atom"
	"github.com/jcorbin/gorvmi/internal/flushio"
	"github.com/jcorbin/gorvmi/internal/mem"
	"github.com/jcorbin/gorvmi/internal/runeio"
	"github.com/jcorbin/gorvmi/internal/token"
)

// VM runs an assembled program.
type VM struct {
	logging

	prog *asm.Program
	mem  *mem.Memory
	in   runeio.Reader
	out  flushio.WriteFlusher

	maxDepth  int
	heapLimit int
	depth     int
}

var errStackUnderflow = errors.New("stack underflow")

// RunError is the error returned by Run for any failed instruction.
type RunError struct {
	Func  string
	PC    int
	Token token.Token
	Err   error
}

func (re *RunError) Error() string {
	return fmt.Sprintf("%v@%v (%v): %v", re.Func, re.PC, re.Token, re.Err)
}

func (re *RunError) Unwrap() error { return re.Err }

// CallDepthError reports a call nested deeper than WithMaxDepth allows.
type CallDepthError int

func (lim CallDepthError) Error() string {
	return fmt.Sprintf("call depth limit %d exceeded", int(lim))
}

type labelError int

func (id labelError) Error() string { return fmt.Sprintf("label %d not found", int(id)) }

type callError string

func (name callError) Error() string { return fmt.Sprintf("function %q not found", string(name)) }

type branchError struct{ atom.Atom }

func (be branchError) Error() string { return fmt.Sprintf("cannot branch on %v", be.Atom) }

var binaryOps = map[token.Op]atom.BinaryOp{
	token.OpAdd: atom.Add,
	token.OpSub: atom.Sub,
	token.OpMul: atom.Mul,
	token.OpDiv: atom.Div,
	token.OpRem: atom.Rem,
	token.OpEq:  atom.Eq,
	token.OpNe:  atom.Ne,
	token.OpLt:  atom.Lt,
	token.OpLe:  atom.Le,
	token.OpGt:  atom.Gt,
	token.OpGe:  atom.Ge,
}

func (vm *VM) run(ctx context.Context) {
	vm.mem = mem.New()
	vm.depth = 0
	entry := vm.prog.Lookup("main")
	if entry == nil {
		vm.logf("#", "no main function")
		return
	}
	vm.mem = vm.call(ctx, entry, vm.mem)
}

// frame is the state of one function activation.
type frame struct {
	vm  *VM
	ctx context.Context
	fn  *asm.Function
	pc  int
	mem *mem.Memory
}

func (vm *VM) call(ctx context.Context, fn *asm.Function, m *mem.Memory) *mem.Memory {
	vm.depth++
	defer func() { vm.depth-- }()
	vm.logf(">", "call %v depth:%v", fn.Name, vm.depth)

	f := frame{vm: vm, ctx: ctx, fn: fn, mem: m}
	for code := fn.Body.Code; f.pc < len(code); {
		if err := ctx.Err(); err != nil {
			f.fail(err)
		}
		f.pc = f.step(code[f.pc])
	}

	vm.logf("<", "ret %v -- s:%v", fn.Name, f.mem.Stack)
	return f.mem
}

func (f *frame) fail(err error) {
	f.vm.halt(&RunError{
		Func:  f.fn.Name,
		PC:    f.pc,
		Token: f.fn.Body.Code[f.pc],
		Err:   err,
	})
}

func (f *frame) need(n int) {
	if f.mem.Depth() < n {
		f.fail(errStackUnderflow)
	}
}

func (f *frame) pop() atom.Atom {
	f.need(1)
	return f.mem.Pop()
}

func (f *frame) jump(id int) int {
	pc, ok := f.fn.Body.Label(id)
	if !ok {
		f.fail(labelError(id))
	}
	return pc
}

// step executes tok, returning the next pc.
func (f *frame) step(tok token.Token) int {
	m := f.mem
	f.vm.logf("exec", "%v@%v %v -- s:%v", f.fn.Name, f.pc, tok, m.Stack)

	switch tok.Op {
	case token.OpPushi:
		m.Push(atom.MakeInt(tok.Int))

	case token.OpPushf:
		m.Push(atom.MakeFloat(tok.Float))

	case token.OpPop:
		f.pop()

	case token.OpDup:
		f.need(1)
		m.Push(m.Top())

	case token.OpStore:
		f.need(1)
		if err := m.CheckStore(tok.Index, f.vm.heapLimit, "store"); err != nil {
			f.fail(err)
		}
		m.Store(tok.Index, m.Pop())

	case token.OpStores:
		if err := m.CheckStore(tok.Index, f.vm.heapLimit, "stores"); err != nil {
			f.fail(err)
		}
		m.Store(tok.Index, atom.MakeString(tok.Name))

	case token.OpLoad:
		if err := m.CheckLoad(tok.Index); err != nil {
			f.fail(err)
		}
		m.Push(m.Load(tok.Index))

	case token.OpAdd, token.OpSub, token.OpMul, token.OpDiv, token.OpRem,
		token.OpEq, token.OpNe, token.OpLt, token.OpLe, token.OpGt, token.OpGe:
		f.need(2)
		l := m.Pop()
		r := m.Pop()
		res, err := binaryOps[tok.Op](l, r)
		if err != nil {
			f.fail(err)
		}
		m.Push(res)

	case token.OpLabel:

	case token.OpGoto:
		return f.jump(tok.Index)

	case token.OpBranch:
		pc := f.jump(tok.Index)
		cond := f.pop()
		if cond.Kind != atom.Int {
			f.fail(branchError{cond})
		}
		if cond.Int != 0 {
			return pc
		}

	case token.OpCall:
		if !f.builtin(tok.Name) {
			callee := f.vm.prog.Lookup(tok.Name)
			if callee == nil {
				f.fail(callError(tok.Name))
			}
			if limit := f.vm.maxDepth; limit > 0 && f.vm.depth >= limit {
				f.fail(CallDepthError(limit))
			}
			f.mem = f.vm.call(f.ctx, callee, m)
		}

	default:
		f.fail(fmt.Errorf("invalid instruction %v", tok.Op))
	}

	return f.pc + 1
}
