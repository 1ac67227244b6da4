package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcorbin/gorvmi/internal/asm"
	"github.com/jcorbin/gorvmi/internal/atom"
	"github.com/jcorbin/gorvmi/internal/image"
	"github.com/jcorbin/gorvmi/internal/logio"
)

type vmTestCases []vmTestCase

func (vmts vmTestCases) run(t *testing.T) {
	{
		var exclusive []vmTestCase
		for _, vmt := range vmts {
			if vmt.exclusive {
				exclusive = append(exclusive, vmt)
			}
		}
		if len(exclusive) > 0 {
			vmts = exclusive
		}
	}
	for _, vmt := range vmts {
		if !t.Run(vmt.name, vmt.run) {
			return
		}
	}
}

func vmTest(name string) (vmt vmTestCase) {
	vmt.name = name
	return vmt
}

type failure struct {
	fn  string
	pc  int
	tok string
}

type vmTestCase struct {
	name    string
	source  string
	funcs   []string
	opts    []interface{}
	expect  []func(t *testing.T, vm *VM)
	timeout time.Duration
	image   bool

	wantErr     error
	wantErrAs   interface{}
	wantErrText string
	wantFail    *failure

	exclusive bool
}

func (vmt vmTestCase) apply(wraps ...func(vmTestCase) vmTestCase) vmTestCase {
	for _, wrap := range wraps {
		vmt = wrap(vmt)
	}
	return vmt
}

func (vmt vmTestCase) exclusiveTest() vmTestCase {
	vmt.exclusive = true
	return vmt
}

func (vmt vmTestCase) withSource(lines ...string) vmTestCase {
	vmt.source = strings.Join(lines, "\n") + "\n"
	return vmt
}

func (vmt vmTestCase) withFunc(header string, lines ...string) vmTestCase {
	vmt.funcs = append(vmt.funcs,
		header+"\n"+strings.Join(lines, "\n")+"\nendef\n")
	return vmt
}

func (vmt vmTestCase) withMain(lines ...string) vmTestCase {
	return vmt.withFunc("defun main 0 NULL", lines...)
}

func (vmt vmTestCase) withOptions(opts ...VMOption) vmTestCase {
	for _, opt := range opts {
		vmt.opts = append(vmt.opts, opt)
	}
	return vmt
}

func (vmt vmTestCase) withInput(input string) vmTestCase {
	vmt.opts = append(vmt.opts, func(vmt *vmTestCase, t *testing.T) VMOption {
		return WithInput(strings.NewReader(input))
	})
	return vmt
}

func (vmt vmTestCase) withMaxDepth(n int) vmTestCase {
	vmt.opts = append(vmt.opts, WithMaxDepth(n))
	return vmt
}

func (vmt vmTestCase) withHeapLimit(limit int) vmTestCase {
	vmt.opts = append(vmt.opts, WithHeapLimit(limit))
	return vmt
}

func (vmt vmTestCase) withTimeout(timeout time.Duration) vmTestCase {
	vmt.timeout = timeout
	return vmt
}

// withImage runs the program after a round trip through its binary image.
func (vmt vmTestCase) withImage() vmTestCase {
	vmt.image = true
	return vmt
}

func (vmt vmTestCase) withTestOutput() vmTestCase {
	vmt.opts = append(vmt.opts, func(vmt *vmTestCase, t *testing.T) VMOption {
		return WithTee(&logio.Writer{Logf: t.Logf, Prefix: "out: "})
	})
	return vmt
}

func (vmt vmTestCase) expectError(err error) vmTestCase {
	vmt.wantErr = err
	return vmt
}

func (vmt vmTestCase) expectErrorAs(target interface{}) vmTestCase {
	vmt.wantErrAs = target
	return vmt
}

func (vmt vmTestCase) expectErrorText(text string) vmTestCase {
	vmt.wantErrText = text
	return vmt
}

func (vmt vmTestCase) expectFailAt(fn string, pc int, tok string) vmTestCase {
	vmt.wantFail = &failure{fn, pc, tok}
	return vmt
}

func (vmt vmTestCase) expectStack(values ...atom.Atom) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, values, nonNil(vm.Memory().Stack), "expected stack values")
	})
	return vmt
}

func (vmt vmTestCase) expectHeap(values ...atom.Atom) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, values, nonNil(vm.Memory().Heap), "expected heap values")
	})
	return vmt
}

func (vmt vmTestCase) expectOutput(output string) vmTestCase {
	var out strings.Builder
	vmt.opts = append(vmt.opts, func(vmt *vmTestCase, t *testing.T) VMOption {
		out.Reset()
		return WithOutput(&out)
	})
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, output, out.String(), "expected output")
	})
	return vmt
}

func nonNil(values []atom.Atom) []atom.Atom {
	if len(values) == 0 {
		return nil
	}
	return values
}

func (vmt vmTestCase) run(t *testing.T) {
	defer func(then time.Time) {
		label := "PASS"
		if t.Failed() {
			label = "FAIL"
		}
		t.Logf("%v\t%v\t%v", label, t.Name(), time.Since(then))
	}(time.Now())

	prog := vmt.buildProgram(t)
	vmt.runVMTest(context.Background(), t, vmt.buildVM(t, prog))

	if t.Failed() {
		t.Logf("re-running with trace logging")
		vm := vmt.buildVM(t, prog)
		WithLogf(t.Logf).apply(vm)
		if err := vmt.runVM(context.Background(), vm); err != nil {
			t.Logf("trace run error: %v", err)
		}
	}
}

func (vmt vmTestCase) runVM(ctx context.Context, vm *VM) error {
	const defaultTimeout = time.Second
	timeout := vmt.timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return vm.Run(ctx)
}

func (vmt vmTestCase) runVMTest(ctx context.Context, t *testing.T, vm *VM) {
	defer func() {
		if t.Failed() {
			vmt.dumpToTest(t, vm)
		}
	}()

	err := vmt.runVM(ctx, vm)
	wantAny := vmt.wantErr != nil || vmt.wantErrAs != nil || vmt.wantErrText != "" || vmt.wantFail != nil
	if !wantAny {
		assert.NoError(t, err, "unexpected VM run error")
	} else if !assert.Error(t, err, "expected VM run error") {
		return
	}
	if vmt.wantErr != nil {
		assert.True(t, errors.Is(err, vmt.wantErr), "expected error: %v\ngot: %+v", vmt.wantErr, err)
	}
	if vmt.wantErrAs != nil {
		assert.True(t, errors.As(err, vmt.wantErrAs), "expected error of type %T\ngot: %+v", vmt.wantErrAs, err)
	}
	if vmt.wantErrText != "" {
		assert.Contains(t, err.Error(), vmt.wantErrText, "expected error text")
	}
	if want := vmt.wantFail; want != nil {
		var re *RunError
		if assert.True(t, errors.As(err, &re), "expected a RunError, got: %+v", err) {
			assert.Equal(t, want.fn, re.Func, "expected failed function")
			assert.Equal(t, want.pc, re.PC, "expected failed pc")
			assert.Equal(t, want.tok, re.Token.String(), "expected failed instruction")
		}
	}

	if !t.Failed() {
		for _, expect := range vmt.expect {
			expect(t, vm)
		}
	}
}

func (vmt vmTestCase) programSource() string {
	if vmt.source != "" {
		return vmt.source
	}
	var sb strings.Builder
	sb.WriteString(".raw\n.class\n.function\n")
	for _, fn := range vmt.funcs {
		sb.WriteString(fn)
	}
	return sb.String()
}

func (vmt vmTestCase) buildProgram(t *testing.T) *asm.Program {
	prog, err := asm.ParseString(t.Name(), vmt.programSource())
	require.NoError(t, err, "unexpected assembly error")
	if vmt.image {
		var buf bytes.Buffer
		require.NoError(t, image.Write(&buf, prog), "unexpected image write error")
		prog, err = image.Read(&buf)
		require.NoError(t, err, "unexpected image read error")
	}
	return prog
}

func (vmt vmTestCase) buildVM(t *testing.T, prog *asm.Program) *VM {
	var opt VMOption
	for _, o := range vmt.opts {
		switch impl := o.(type) {
		case func(vmt *vmTestCase, t *testing.T) VMOption:
			opt = VMOptions(opt, impl(&vmt, t))
		case VMOption:
			opt = VMOptions(opt, impl)
		default:
			t.Logf("unsupported vmTestCase opt type %T", o)
			t.FailNow()
		}
	}
	return New(prog, opt)
}

func (vmt vmTestCase) dumpToTest(t *testing.T, vm *VM) {
	lw := logio.Writer{Logf: t.Logf}
	defer lw.Close()
	if err := (vmDumper{mem: vm.Memory(), prog: vm.prog, out: &lw}).dump(); err != nil {
		t.Logf("dump error: %v", err)
	}
}
