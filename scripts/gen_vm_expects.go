package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"text/template"
	"time"

	"golang.org/x/sync/errgroup"
)

// builderMethod matches vmTestCase builder methods that take arguments.
var builderMethod = regexp.MustCompile(`func \(vmt vmTestCase\) (expect|with)(.+?)\((.+?)\) vmTestCase`)

type wrapper struct {
	Base, What string
	Params     string
	Args       string
}

var wrapperFile = template.Must(template.New("wrappers").Parse(`package main

// @generated from {{ .Source }}

{{ if .Generate }}//go:generate go run scripts/gen_vm_expects.go -- {{ .Generate }}

{{ end }}{{ range .Wrappers }}func {{ .Base }}VM{{ .What }}({{ .Params }}) func(vmTestCase) vmTestCase {
	return func(vmt vmTestCase) vmTestCase {
		return vmt.{{ .Base }}{{ .What }}({{ .Args }})
	}
}

{{ end }}`))

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) != 2 {
		log.Fatalf("usage: gen_vm_expects.go -- vm_test.go vm_expects_test.go")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, args[0], args[1]); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, inName, outName string) error {
	in, err := os.Open(inName)
	if err != nil {
		return err
	}
	defer in.Close()

	wrappers, err := scanWrappers(in)
	if err != nil {
		return fmt.Errorf("failed to scan %v: %w", inName, err)
	}

	var src bytes.Buffer
	if err := wrapperFile.Execute(&src, map[string]interface{}{
		"Source":   inName,
		"Generate": inName + " " + outName,
		"Wrappers": wrappers,
	}); err != nil {
		return err
	}

	out, err := os.Create(outName)
	if err != nil {
		return err
	}
	if err := goimports(ctx, &src, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func scanWrappers(r io.Reader) (wrappers []wrapper, _ error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		match := builderMethod.FindStringSubmatch(sc.Text())
		if match == nil {
			continue
		}
		w := wrapper{Base: match[1], What: match[2], Params: match[3]}
		var args []string
		for _, part := range strings.Split(w.Params, ",") {
			fields := strings.Fields(part)
			arg := fields[0]
			if strings.HasPrefix(fields[1], "...") {
				arg += "..."
			}
			args = append(args, arg)
		}
		w.Args = strings.Join(args, ", ")
		wrappers = append(wrappers, w)
	}
	return wrappers, sc.Err()
}

// goimports formats src into out, adding any imports that it needs.
func goimports(ctx context.Context, src io.Reader, out io.Writer) error {
	cmd := exec.CommandContext(ctx, "goimports")
	pipe, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	cmd.Stdout = out
	cmd.Stderr = os.Stderr

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer pipe.Close()
		_, err := io.Copy(pipe, src)
		return err
	})
	eg.Go(func() error {
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("goimports failed: %w", err)
		}
		return ctx.Err()
	})
	return eg.Wait()
}
