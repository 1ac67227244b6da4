package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcorbin/gorvmi/internal/asm"
	"github.com/jcorbin/gorvmi/internal/atom"
	"github.com/jcorbin/gorvmi/internal/mem"
	"github.com/jcorbin/gorvmi/internal/panicerr"
	"github.com/jcorbin/gorvmi/internal/token"
)

// printFrame returns a frame for a one instruction function, whose heap holds
// the given values, printing into out.
func printFrame(out *strings.Builder, heap ...atom.Atom) *frame {
	fn := &asm.Function{
		Name: "test",
		Body: asm.Exec{Code: []token.Token{{Op: token.OpCall, Name: "print"}}},
	}
	vm := New(&asm.Program{Funcs: []asm.Function{*fn}}, WithOutput(out))
	return &frame{
		vm:  vm,
		ctx: context.Background(),
		fn:  fn,
		mem: &mem.Memory{Heap: heap},
	}
}

func Test_print_follows_refs(t *testing.T) {
	var out strings.Builder
	f := printFrame(&out, str("x"), atom.MakeRef(0), atom.MakeRef(1))
	require.NoError(t, panicerr.Recover(t.Name(), func() error {
		f.print(atom.MakeRef(2))
		return f.vm.out.Flush()
	}))
	assert.Equal(t, "x", out.String())
}

func Test_print_ref_failures(t *testing.T) {
	for _, tc := range []struct {
		name string
		heap []atom.Atom
		ref  atom.Atom
		test func(t *testing.T, err error)
	}{
		{
			name: "past heap end",
			heap: []atom.Atom{i32(1)},
			ref:  atom.MakeRef(3),
			test: func(t *testing.T, err error) {
				var be mem.BoundsError
				assert.True(t, errors.As(err, &be), "expected bounds error, got %v", err)
			},
		},
		{
			name: "cycle",
			heap: []atom.Atom{atom.MakeRef(1), atom.MakeRef(0)},
			ref:  atom.MakeRef(0),
			test: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, errRefCycle), "expected cycle error, got %v", err)
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var out strings.Builder
			f := printFrame(&out, tc.heap...)
			err := panicerr.Recover(t.Name(), func() error {
				f.print(tc.ref)
				return nil
			})
			require.Error(t, err)
			var re *RunError
			require.True(t, errors.As(err, &re), "expected run error, got %v", err)
			assert.Equal(t, "test", re.Func)
			tc.test(t, err)
			assert.Empty(t, out.String())
		})
	}
}

func Test_trace_logging(t *testing.T) {
	prog, err := asm.ParseString(t.Name(), lines(
		".raw .class .function",
		"defun main 0 NULL",
		"pushi 3 pushi 4 sub",
		"endef",
	))
	require.NoError(t, err)

	var trace []string
	vm := New(prog, WithLogf(func(mess string, args ...interface{}) {
		trace = append(trace, strings.TrimLeft(fmt.Sprintf(mess, args...), ">< "))
	}))
	require.NoError(t, vm.Run(context.Background()))

	assert.Contains(t, trace, "call main depth:1")
	assert.Contains(t, trace, "exec main@0 pushi 3 -- s:[]")
	assert.Contains(t, trace, "exec main@2 sub -- s:[Int(3) Int(4)]")
	assert.Contains(t, trace, "ret main -- s:[Int(1)]")
}

func Test_WithTee(t *testing.T) {
	prog, err := asm.ParseString(t.Name(), lines(
		".raw .class .function",
		"defun main 0 NULL",
		"pushi 42 call println",
		"endef",
	))
	require.NoError(t, err)

	var out, tee strings.Builder
	vm := New(prog, WithOutput(&out), WithTee(&tee))
	require.NoError(t, vm.Run(context.Background()))
	assert.Equal(t, "42\n", out.String())
	assert.Equal(t, "42\n", tee.String())
}

func Test_Memory_before_run(t *testing.T) {
	vm := New(&asm.Program{})
	assert.Nil(t, vm.Memory())
	require.NoError(t, vm.Run(context.Background()))
	require.NotNil(t, vm.Memory())
	assert.Equal(t, 0, vm.Memory().Depth())
}

func Test_Run_fresh_memory(t *testing.T) {
	prog, err := asm.ParseString(t.Name(), lines(
		".raw .class .function",
		"defun main 0 NULL",
		"pushi 1 store 2",
		"endef",
	))
	require.NoError(t, err)

	vm := New(prog)
	require.NoError(t, vm.Run(context.Background()))
	first := vm.Memory()
	require.NoError(t, vm.Run(context.Background()))
	assert.NotSame(t, first, vm.Memory())
	assert.Equal(t, first, vm.Memory())
}

func lines(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}
