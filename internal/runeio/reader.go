package runeio

import (
	"bufio"
	"io"
	"strings"
	"unicode"
)

// Reader is an io.Reader that also supports reading runes.
type Reader interface {
	io.Reader
	io.RuneReader
}

// NewReader returns a Reader from r; if r already implements, it is simply returned.
// Otherwise bufio.Reader is used to provide rune reading around the given reader.
// If the r implements Name() string, so will the returned Reader.
func NewReader(r io.Reader) Reader {
	if impl, ok := r.(Reader); ok {
		return impl
	}
	rr := runeReader{r, bufio.NewReader(r)}
	if impl, ok := r.(interface{ Name() string }); ok {
		return namedRuneReader{rr, impl.Name()}
	}
	return rr
}

type runeReader struct {
	io.Reader
	io.RuneReader
}

type namedRuneReader struct {
	Reader
	name string
}

func (nr namedRuneReader) Name() string { return nr.name }

// ReadWord skips leading white space, then reads runes up to the next white
// space or the end of input. Returns io.EOF only if no word was read.
func ReadWord(rr io.RuneReader) (string, error) {
	var sb strings.Builder
	for {
		r, _, err := rr.ReadRune()
		if err != nil {
			return "", err
		}
		if !unicode.IsSpace(r) {
			sb.WriteRune(r)
			break
		}
	}
	for {
		r, _, err := rr.ReadRune()
		if err == io.EOF {
			break
		} else if err != nil {
			return "", err
		} else if unicode.IsSpace(r) {
			break
		}
		sb.WriteRune(r)
	}
	return sb.String(), nil
}
