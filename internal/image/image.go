// Package image reads and writes assembled programs as binary images, so that
// a program can be run without re-tokenizing its source.
//
// An image is the 4 magic bytes "RVMI", a big-endian uint32 format version,
// then the canonical CBOR encoding of an asm.Program.
package image

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/jcorbin/gorvmi/internal/asm"
	"github.com/jcorbin/gorvmi/internal/token"
)

// Version is the image format version written by Write.
const Version uint32 = 1

// Ext is the conventional file extension for program images.
const Ext = ".rvmc"

var magic = []byte("RVMI")

var (
	// ErrMagic is returned when data does not start with the image magic.
	ErrMagic = errors.New("image: missing magic bytes")

	// ErrVersion is returned for images of an unsupported format version.
	ErrVersion = errors.New("image: unsupported version")

	// ErrInvalid is returned for images that decode to a program that could
	// not have been assembled from source.
	ErrInvalid = errors.New("image: invalid program")
)

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("image: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// Marshal encodes prog as an image.
func Marshal(prog *asm.Program) ([]byte, error) {
	body, err := encMode.Marshal(prog)
	if err != nil {
		return nil, fmt.Errorf("image: marshal program: %w", err)
	}
	buf := make([]byte, 0, len(magic)+4+len(body))
	buf = append(buf, magic...)
	buf = binary.BigEndian.AppendUint32(buf, Version)
	return append(buf, body...), nil
}

// Unmarshal decodes an image.
func Unmarshal(data []byte) (*asm.Program, error) {
	if !bytes.HasPrefix(data, magic) {
		return nil, ErrMagic
	}
	data = data[len(magic):]
	if len(data) < 4 {
		return nil, ErrVersion
	}
	if v := binary.BigEndian.Uint32(data); v != Version {
		return nil, fmt.Errorf("%w %v", ErrVersion, v)
	}
	var prog asm.Program
	if err := cbor.Unmarshal(data[4:], &prog); err != nil {
		return nil, fmt.Errorf("image: unmarshal program: %w", err)
	}
	for i := range prog.Funcs {
		fn := &prog.Funcs[i]
		if fn.Body.Labels == nil {
			fn.Body.Labels = make(map[int]int)
		}
		if err := validate(fn); err != nil {
			return nil, fmt.Errorf("%w: function #%v %q: %v", ErrInvalid, i, fn.Name, err)
		}
	}
	return &prog, nil
}

func validate(fn *asm.Function) error {
	for pc, tok := range fn.Body.Code {
		switch {
		case !tok.Op.Executable():
			return fmt.Errorf("@%v: non-executable op %v", pc, tok.Op)
		case tok.Index < 0:
			return fmt.Errorf("@%v: negative index in %v", pc, tok)
		case tok.Size < 0:
			return fmt.Errorf("@%v: negative size in %v", pc, tok)
		case tok.Op == token.OpCall && tok.Name == "":
			return fmt.Errorf("@%v: call without a name", pc)
		}
	}
	for id, pc := range fn.Body.Labels {
		if pc < 0 || pc >= len(fn.Body.Code) {
			return fmt.Errorf("label %v target @%v out of range", id, pc)
		}
		if tok := fn.Body.Code[pc]; tok.Op != token.OpLabel || tok.Index != id {
			return fmt.Errorf("label %v target @%v is %v", id, pc, tok)
		}
	}
	return nil
}

// Write writes prog to w as an image.
func Write(w io.Writer, prog *asm.Program) error {
	data, err := Marshal(prog)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Read reads an image from r.
func Read(r io.Reader) (*asm.Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}
