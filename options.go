package main

import (
	"io"
	"strings"

	"github.com/jcorbin/gorvmi/internal/flushio"
	"github.com/jcorbin/gorvmi/internal/runeio"
)

// VMOption configures a VM; see New.
type VMOption interface{ apply(vm *VM) }

// VMOptions combines options into one, applied in order; nil options are
// skipped.
func VMOptions(opts ...VMOption) VMOption {
	var res options
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil:
		case options:
			res = append(res, impl...)
		default:
			res = append(res, impl)
		}
	}
	if len(res) == 1 {
		return res[0]
	}
	return res
}

type options []VMOption

func (opts options) apply(vm *VM) {
	for _, opt := range opts {
		opt.apply(vm)
	}
}

var defaultOptions = VMOptions(
	withInput(strings.NewReader("")),
	withOutput(io.Discard),
)

type withLogfn func(mess string, args ...interface{})

func (logfn withLogfn) apply(vm *VM) {
	vm.logfn = logfn
}

type inputOption struct{ io.Reader }
type outputOption struct{ io.Writer }
type teeOption struct{ io.Writer }
type maxDepthOption int
type heapLimitOption int

func withInput(r io.Reader) inputOption       { return inputOption{r} }
func withOutput(w io.Writer) outputOption     { return outputOption{w} }
func withTee(w io.Writer) teeOption           { return teeOption{w} }
func withMaxDepth(n int) maxDepthOption       { return maxDepthOption(n) }
func withHeapLimit(limit int) heapLimitOption { return heapLimitOption(limit) }

func (i inputOption) apply(vm *VM) {
	vm.in = runeio.NewReader(i.Reader)
}

func (o outputOption) apply(vm *VM) {
	if vm.out != nil {
		vm.out.Flush()
	}
	vm.out = flushio.NewWriteFlusher(o.Writer)
}

func (o teeOption) apply(vm *VM) {
	vm.out = flushio.WriteFlushers(vm.out, flushio.NewWriteFlusher(o.Writer))
}

func (n maxDepthOption) apply(vm *VM) {
	vm.maxDepth = int(n)
}

func (lim heapLimitOption) apply(vm *VM) {
	vm.heapLimit = int(lim)
}
