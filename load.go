package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/jcorbin/gorvmi/internal/asm"
	"github.com/jcorbin/gorvmi/internal/image"
)

// loadProgram reads a program image if name has the image extension,
// otherwise assembles it as source text.
func loadProgram(name string) (*asm.Program, error) {
	if filepath.Ext(name) != image.Ext {
		return asm.ParseFile(name)
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	prog, err := image.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", name, err)
	}
	return prog, nil
}

// loadPrograms loads every named program concurrently; the result is in
// argument order.
func loadPrograms(ctx context.Context, names ...string) ([]*asm.Program, error) {
	progs := make([]*asm.Program, len(names))
	eg, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			prog, err := loadProgram(name)
			if err != nil {
				return err
			}
			progs[i] = prog
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return progs, nil
}

func writeImage(name string, prog *asm.Program) (rerr error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); rerr == nil {
			rerr = cerr
		}
	}()
	return image.Write(f, prog)
}
