package main

import (
	"context"
	"io"

	"github.com/jcorbin/gorvmi/internal/asm"
	"github.com/jcorbin/gorvmi/internal/mem"
	"github.com/jcorbin/gorvmi/internal/panicerr"
)

// New creates a VM to run prog. Without options it reads from empty input and
// discards output.
func New(prog *asm.Program, opts ...VMOption) *VM {
	vm := VM{prog: prog}
	defaultOptions.apply(&vm)
	VMOptions(opts...).apply(&vm)
	return &vm
}

// Run runs the program's main function on fresh memory, returning the first
// runtime failure. A program with no main does nothing.
func (vm *VM) Run(ctx context.Context) error {
	err := panicerr.Recover("VM", func() error {
		vm.run(ctx)
		return nil
	})
	if ferr := vm.out.Flush(); err == nil {
		err = ferr
	}
	return err
}

// Memory returns the memory left by the last Run, or nil before the first.
func (vm *VM) Memory() *mem.Memory { return vm.mem }

func WithInput(r io.Reader) VMOption   { return withInput(r) }
func WithOutput(w io.Writer) VMOption  { return withOutput(w) }
func WithTee(w io.Writer) VMOption     { return withTee(w) }
func WithMaxDepth(n int) VMOption      { return withMaxDepth(n) }
func WithHeapLimit(limit int) VMOption { return withHeapLimit(limit) }

func WithLogf(logfn func(mess string, args ...interface{})) VMOption { return withLogfn(logfn) }
