// Package mem provides the VM's two storage regions: a LIFO operand stack
// and a flat, index-addressed heap that grows on demand.
package mem

import (
	"fmt"

	"github.com/jcorbin/gorvmi/internal/atom"
)

// MaxHeap bounds the heap length when no smaller limit is configured.
const MaxHeap = 1 << 24

// Memory is a dumb flat store: it performs no emptiness or bounds checks,
// callers must do so before Pop, Top or Load.
type Memory struct {
	Stack []atom.Atom `yaml:"stack"`
	Heap  []atom.Atom `yaml:"heap"`
}

// New returns an empty Memory.
func New() *Memory { return &Memory{} }

// Depth returns the number of values on the operand stack.
func (m *Memory) Depth() int { return len(m.Stack) }

// Len returns the heap length.
func (m *Memory) Len() int { return len(m.Heap) }

// Push pushes a onto the operand stack.
func (m *Memory) Push(a atom.Atom) { m.Stack = append(m.Stack, a) }

// Pop removes and returns the top of the operand stack.
func (m *Memory) Pop() (a atom.Atom) {
	i := len(m.Stack) - 1
	a, m.Stack = m.Stack[i], m.Stack[:i]
	return a
}

// Top returns the top of the operand stack without removing it.
func (m *Memory) Top() atom.Atom { return m.Stack[len(m.Stack)-1] }

// Load returns heap slot addr.
func (m *Memory) Load(addr int) atom.Atom { return m.Heap[addr] }

// Store writes heap slot addr, first growing the heap with null atoms as
// needed.
func (m *Memory) Store(addr int, a atom.Atom) {
	m.grow(addr + 1)
	m.Heap[addr] = a
}

func (m *Memory) grow(size int) {
	if need := size - len(m.Heap); need > 0 {
		m.Heap = append(m.Heap, make([]atom.Atom, need)...)
	}
}

// LimitError indicates that a heap operation exceeded a configured limit.
type LimitError struct {
	Addr  int
	Limit int
	Op    string
}

func (lim LimitError) Error() string {
	return fmt.Sprintf("heap limit %v exceeded by %v @%v", lim.Limit, lim.Op, lim.Addr)
}

// BoundsError indicates a read past the end of the heap.
type BoundsError struct {
	Addr int
	Len  int
}

func (be BoundsError) Error() string {
	return fmt.Sprintf("heap read @%v out of bounds (heap length %v)", be.Addr, be.Len)
}

// CheckLoad returns a BoundsError if addr is not a readable heap slot.
func (m *Memory) CheckLoad(addr int) error {
	if addr < 0 || addr >= len(m.Heap) {
		return BoundsError{addr, len(m.Heap)}
	}
	return nil
}

// CheckStore returns a LimitError if storing at addr would grow the heap past
// limit; a zero limit, or one above MaxHeap, means MaxHeap.
func (m *Memory) CheckStore(addr, limit int, op string) error {
	if limit <= 0 || limit > MaxHeap {
		limit = MaxHeap
	}
	if addr < 0 || addr >= limit {
		return LimitError{addr, limit, op}
	}
	return nil
}
