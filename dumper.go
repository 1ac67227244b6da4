package main

import (
	"io"
	"sort"

	"gopkg.in/yaml.v2"

	"github.com/jcorbin/gorvmi/internal/asm"
	"github.com/jcorbin/gorvmi/internal/atom"
	"github.com/jcorbin/gorvmi/internal/mem"
)

type vmDumper struct {
	mem  *mem.Memory
	prog *asm.Program
	out  io.Writer
}

type memDump struct {
	Stack []string `yaml:"stack"`
	Heap  []string `yaml:"heap"`
}

type funcDump struct {
	Name   string        `yaml:"name"`
	Header string        `yaml:"header"`
	Labels yaml.MapSlice `yaml:"labels,omitempty"`
	Code   []string      `yaml:"code"`
}

type vmDump struct {
	Memory *memDump   `yaml:"memory,omitempty"`
	Funcs  []funcDump `yaml:"functions,omitempty"`
}

func (dump vmDumper) dump() error {
	var doc vmDump
	if dump.mem != nil {
		doc.Memory = &memDump{
			Stack: atomStrings(dump.mem.Stack),
			Heap:  atomStrings(dump.mem.Heap),
		}
	}
	if dump.prog != nil {
		for i := range dump.prog.Funcs {
			doc.Funcs = append(doc.Funcs, dumpFunc(&dump.prog.Funcs[i]))
		}
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = dump.out.Write(data)
	return err
}

func dumpFunc(fn *asm.Function) funcDump {
	fd := funcDump{
		Name:   fn.Name,
		Header: fn.Header().String(),
		Code:   make([]string, len(fn.Body.Code)),
	}
	for pc, tok := range fn.Body.Code {
		fd.Code[pc] = tok.String()
	}
	ids := make([]int, 0, len(fn.Body.Labels))
	for id := range fn.Body.Labels {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		fd.Labels = append(fd.Labels, yaml.MapItem{Key: id, Value: fn.Body.Labels[id]})
	}
	return fd
}

func atomStrings(as []atom.Atom) []string {
	ss := make([]string, len(as))
	for i, a := range as {
		ss[i] = a.String()
	}
	return ss
}
