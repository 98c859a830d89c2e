// Command tinywasm decodes, instantiates, and invokes a single exported
// function of a WebAssembly 1.0 module from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tinywasm/tinywasm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		args    []string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "tinywasm <module.wasm> <export>",
		Short: "Run an exported function from a WebAssembly 1.0 module",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, positional []string) error {
			logger := logrus.New()
			if verbose {
				logger.SetLevel(logrus.DebugLevel)
			} else {
				logger.SetLevel(logrus.WarnLevel)
			}

			return run(cmd.Context(), logger, positional[0], positional[1], args)
		},
	}

	cmd.Flags().StringArrayVar(&args, "arg", nil, "an i32 argument to pass to the export (repeatable)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

func run(ctx context.Context, logger *logrus.Logger, path, export string, rawArgs []string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	module, err := tinywasm.DecodeModule(data)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	instance, err := tinywasm.Instantiate(ctx, module, tinywasm.NopResolver{}, tinywasm.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("instantiating %s: %w", path, err)
	}

	fn, ok := instance.ExportedFunction(export)
	if !ok {
		return fmt.Errorf("%s has no exported function %q", path, export)
	}

	values := make([]tinywasm.Value, len(rawArgs))
	for i, raw := range rawArgs {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return fmt.Errorf("--arg %q: %w", raw, err)
		}
		values[i] = tinywasm.I32(int32(n))
	}

	results, err := fn.Call(ctx, values...)
	if err != nil {
		return fmt.Errorf("calling %s: %w", export, err)
	}

	for _, r := range results {
		switch r.Type {
		case tinywasm.ValueTypeI32:
			fmt.Println(r.I32())
		case tinywasm.ValueTypeI64:
			fmt.Println(r.I64())
		case tinywasm.ValueTypeF32:
			fmt.Println(r.F32())
		case tinywasm.ValueTypeF64:
			fmt.Println(r.F64())
		}
	}
	return nil
}
