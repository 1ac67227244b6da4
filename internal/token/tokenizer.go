package token

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jcorbin/gorvmi/internal/runeio"
)

var (
	errUnknownKeyword = errors.New("unknown keyword")
	errMissingArg     = errors.New("missing argument")
	errUnterminated   = errors.New("right quotation missing")
)

// SyntaxError reports a word that could not be tokenized.
type SyntaxError struct {
	Name string // source name
	Row  int    // 0-based
	Word string
	Err  error
}

func (se *SyntaxError) Error() string {
	return fmt.Sprintf("%v row %v: %v %q", se.Name, se.Row, se.Err, se.Word)
}

func (se *SyntaxError) Unwrap() error { return se.Err }

// Tokenizer reads Instructions from source text with one token of
// lookahead. The first error, including io.EOF at end of input, is sticky.
type Tokenizer struct {
	name string
	in   runeio.Reader
	row  int
	at   int // row of the last word read

	cur Instruction
	err error
}

// NewTokenizer reads source text from r; name is used in diagnostics.
func NewTokenizer(name string, r io.Reader) *Tokenizer {
	tz := &Tokenizer{
		name: name,
		in:   runeio.NewReader(r),
	}
	tz.advance()
	return tz
}

// Name returns the source name given to NewTokenizer.
func (tz *Tokenizer) Name() string { return tz.name }

// Peek returns the next instruction without consuming it.
func (tz *Tokenizer) Peek() (Instruction, error) { return tz.cur, tz.err }

// Next consumes and returns the next instruction; the returned error is io.EOF
// once input is exhausted.
func (tz *Tokenizer) Next() (Instruction, error) {
	in, err := tz.cur, tz.err
	if err == nil {
		tz.advance()
	}
	return in, err
}

func (tz *Tokenizer) advance() {
	tz.cur = Instruction{}
	word, err := tz.word()
	if err != nil {
		tz.err = err
		return
	}
	tz.cur.Row = tz.at
	tz.cur.Token, tz.err = tz.parse(word)
}

func (tz *Tokenizer) parse(keyword string) (tok Token, err error) {
	op, ok := Keyword(keyword)
	if !ok {
		return tok, tz.syntaxError(keyword, errUnknownKeyword)
	}
	tok.Op = op

	switch op {
	case OpDefun:
		if tok.Name, err = tz.arg(keyword); err != nil {
			return tok, err
		}
		var arity int
		if arity, err = tz.indexArg(keyword); err != nil {
			return tok, err
		}
		if arity > 0 {
			tok.Params = make([]Type, arity)
		}
		for i := range tok.Params {
			word, err := tz.arg(keyword)
			if err != nil {
				return tok, err
			}
			tok.Params[i] = ParseType(word)
		}
		word, err := tz.arg(keyword)
		if err != nil {
			return tok, err
		}
		tok.Ret = ParseType(word)

	case OpPushi:
		word, err := tz.arg(keyword)
		if err != nil {
			return tok, err
		}
		n, err := strconv.ParseInt(word, 10, 32)
		if err != nil {
			return tok, tz.syntaxError(word, numError(err))
		}
		tok.Int = int32(n)

	case OpPushf:
		word, err := tz.arg(keyword)
		if err != nil {
			return tok, err
		}
		f, err := strconv.ParseFloat(word, 32)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return tok, tz.syntaxError(word, numError(err))
		}
		tok.Float = float32(f)

	case OpLoad, OpStore, OpLabel, OpGoto, OpBranch:
		tok.Index, err = tz.indexArg(keyword)

	case OpStores:
		if tok.Index, err = tz.indexArg(keyword); err != nil {
			return tok, err
		}
		if tok.Size, err = tz.indexArg(keyword); err != nil {
			return tok, err
		}
		tok.Name, err = tz.arg(keyword)

	case OpCall:
		tok.Name, err = tz.arg(keyword)
	}

	return tok, err
}

func (tz *Tokenizer) arg(keyword string) (string, error) {
	word, err := tz.word()
	if err == io.EOF {
		return "", tz.syntaxError(keyword, errMissingArg)
	}
	return word, err
}

func (tz *Tokenizer) indexArg(keyword string) (int, error) {
	word, err := tz.arg(keyword)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(word, 10, strconv.IntSize-1)
	if err != nil {
		return 0, tz.syntaxError(word, numError(err))
	}
	return int(n), nil
}

func (tz *Tokenizer) syntaxError(word string, err error) error {
	return &SyntaxError{Name: tz.name, Row: tz.at, Word: word, Err: err}
}

// numError drops strconv's redundant function and input prefix.
func numError(err error) error {
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		return fmt.Errorf("invalid number: %w", ne.Err)
	}
	return err
}

func isSep(r rune) bool { return r == ' ' || r == '\n' || r == '\r' }

// word skips separators and comments, then reads one bare or quoted word.
func (tz *Tokenizer) word() (string, error) {
	r, err := tz.skip()
	if err != nil {
		return "", err
	}
	tz.at = tz.row

	var sb strings.Builder
	if r == '"' {
		for {
			r, _, err := tz.in.ReadRune()
			if err == io.EOF {
				return "", tz.syntaxError(`"`+sb.String(), errUnterminated)
			} else if err != nil {
				return "", err
			}
			if r == '"' {
				return sb.String(), nil
			}
			if r == '\n' {
				tz.row++
			}
			sb.WriteRune(r)
		}
	}

	sb.WriteRune(r)
	for {
		r, _, err := tz.in.ReadRune()
		if err == io.EOF {
			break
		} else if err != nil {
			return "", err
		}
		if isSep(r) {
			if r == '\n' {
				tz.row++
			}
			break
		}
		sb.WriteRune(r)
	}
	return sb.String(), nil
}

// skip consumes separators and ; comments, returning the first rune of the
// next word.
func (tz *Tokenizer) skip() (rune, error) {
	comment := false
	for {
		r, _, err := tz.in.ReadRune()
		if err != nil {
			return 0, err
		}
		switch {
		case r == '\n':
			tz.row++
			comment = false
		case comment, isSep(r):
		case r == ';':
			comment = true
		default:
			return r, nil
		}
	}
}
