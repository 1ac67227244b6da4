package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/jcorbin/gorvmi/internal/config"
	"github.com/jcorbin/gorvmi/internal/logio"
	"github.com/jcorbin/gorvmi/internal/panicerr"
	"github.com/jcorbin/gorvmi/internal/runeio"
)

func main() {
	cmd := command{
		in:  os.Stdin,
		out: os.Stdout,
		log: logio.NewLogger(os.Stderr),
		err: os.Stderr,
	}
	cmd.main(context.Background(), os.Args[1:])
	os.Exit(cmd.log.ExitCode())
}

type command struct {
	in  io.Reader
	out io.Writer
	err io.Writer
	log *logio.Logger

	logf func(mess string, args ...interface{})

	cfg        config.Config
	configPath string
	imagePath  string
	check      bool
	dump       bool
}

func (cmd *command) main(ctx context.Context, args []string) {
	files, err := cmd.parseFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		return
	} else if err != nil {
		cmd.report(err)
		return
	}
	cmd.report(cmd.run(ctx, files...))
}

// report logs any error, followed by the stack of a recovered panic.
func (cmd *command) report(err error) {
	if cmd.log.ErrorIf(err) && panicerr.IsPanic(err) {
		cmd.log.Printf("DEBUG", "%s", panicerr.PanicStack(err))
	}
}

func (cmd *command) parseFlags(args []string) ([]string, error) {
	var (
		trace     bool
		traceLog  string
		timeout   time.Duration
		maxDepth  int
		heapLimit int
	)

	flags := flag.NewFlagSet("gorvmi", flag.ContinueOnError)
	flags.SetOutput(cmd.err)
	flags.Usage = func() {
		fmt.Fprintln(flags.Output(), "usage: gorvmi [flags] file...")
		flags.PrintDefaults()
	}
	flags.StringVar(&cmd.configPath, "config", "", "read settings from a TOML file")
	flags.BoolVar(&trace, "trace", false, "enable trace logging")
	flags.StringVar(&traceLog, "trace-log", "", "write trace logging to a file instead of stderr")
	flags.DurationVar(&timeout, "timeout", 0, "specify a time limit")
	flags.IntVar(&maxDepth, "max-depth", 0, "limit nested function calls")
	flags.IntVar(&heapLimit, "heap-limit", 0, "limit heap length")
	flags.StringVar(&cmd.imagePath, "o", "", "write a program image instead of running")
	flags.BoolVar(&cmd.check, "check", false, "only assemble")
	flags.BoolVar(&cmd.dump, "dump", false, "dump final memory to stderr")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if cmd.configPath != "" {
		cfg, err := config.Load(cmd.configPath)
		if err != nil {
			return nil, err
		}
		cmd.cfg = cfg
	}
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "trace":
			cmd.cfg.Trace = trace
		case "trace-log":
			cmd.cfg.TraceLog = traceLog
		case "timeout":
			cmd.cfg.Timeout.Duration = timeout
		case "max-depth":
			cmd.cfg.MaxDepth = maxDepth
		case "heap-limit":
			cmd.cfg.HeapLimit = heapLimit
		}
	})

	if flags.NArg() == 0 {
		flags.Usage()
		return nil, flag.ErrHelp
	}
	if cmd.imagePath != "" && flags.NArg() != 1 {
		return nil, fmt.Errorf("-o needs exactly one input file, got %v", flags.NArg())
	}
	return flags.Args(), nil
}

func (cmd *command) run(ctx context.Context, files ...string) error {
	progs, err := loadPrograms(ctx, files...)
	if err != nil {
		return err
	}
	if cmd.imagePath != "" {
		return writeImage(cmd.imagePath, progs[0])
	}
	if cmd.check {
		return nil
	}

	opts := []VMOption{
		WithInput(runeio.NewReader(cmd.in)),
		WithOutput(cmd.out),
		WithMaxDepth(cmd.cfg.MaxDepth),
		WithHeapLimit(cmd.cfg.HeapLimit),
	}
	if cmd.cfg.Trace {
		opts = append(opts, WithLogf(cmd.traceLogf()))
	}
	opt := VMOptions(opts...)

	for i, prog := range progs {
		vm := New(prog, opt)
		err := cmd.runVM(ctx, vm)
		if cmd.dump {
			if derr := (vmDumper{mem: vm.Memory(), out: cmd.err}).dump(); err == nil {
				err = derr
			}
		}
		if err != nil {
			return fmt.Errorf("%v: %w", files[i], err)
		}
	}
	return nil
}

func (cmd *command) runVM(ctx context.Context, vm *VM) error {
	if timeout := cmd.cfg.Timeout.Duration; timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return vm.Run(ctx)
}

func (cmd *command) traceLogf() func(mess string, args ...interface{}) {
	if cmd.logf != nil {
		return cmd.logf
	}
	if path := cmd.cfg.TraceLog; path != "" {
		commonlog.Configure(2, &path)
	} else {
		commonlog.Configure(2, nil)
	}
	return commonlog.GetLogger("gorvmi.vm").Debugf
}
