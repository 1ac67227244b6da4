package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/jcorbin/gorvmi/internal/atom"
	"github.com/jcorbin/gorvmi/internal/runeio"
)

var errRefCycle = errors.New("reference cycle")

// builtin runs the named runtime primitive, returning false if there is none.
func (f *frame) builtin(name string) bool {
	switch name {
	case "print":
		f.print(f.pop())
	case "println":
		f.print(f.pop())
		f.write("\n")
	case "readint":
		f.mem.Push(f.readint())
	default:
		return false
	}
	if err := f.vm.out.Flush(); err != nil {
		f.fail(err)
	}
	return true
}

func (f *frame) print(a atom.Atom) {
	m := f.mem
	for n := 0; a.Kind == atom.Ref; n++ {
		if n > m.Len() {
			f.fail(errRefCycle)
		}
		if err := m.CheckLoad(a.Addr); err != nil {
			f.fail(err)
		}
		a = m.Load(a.Addr)
	}
	f.write(a.Text())
}

func (f *frame) write(s string) {
	if _, err := io.WriteString(f.vm.out, s); err != nil {
		f.fail(err)
	}
}

func (f *frame) readint() atom.Atom {
	if err := f.vm.out.Flush(); err != nil {
		f.fail(err)
	}
	word, err := runeio.ReadWord(f.vm.in)
	if err == io.EOF {
		f.fail(fmt.Errorf("readint: %w", io.ErrUnexpectedEOF))
	} else if err != nil {
		f.fail(fmt.Errorf("readint: %w", err))
	}
	i, err := strconv.ParseInt(word, 10, 32)
	if err != nil {
		f.fail(fmt.Errorf("readint: invalid integer %q", word))
	}
	return atom.MakeInt(int32(i))
}
