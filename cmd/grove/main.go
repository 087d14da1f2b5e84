// Command grove compiles LightGBM text model files into standalone Go
// prediction code and inspects model metadata.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	grove "github.com/groveml/grove"
	"github.com/groveml/grove/codegen"
	"github.com/groveml/grove/pkg/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "grove",
		Short:         "Compile LightGBM models to native Go prediction code",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetupLogger(logLevel)
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	rootCmd.AddCommand(newCompileCmd())
	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newInspectCmd())
	return rootCmd
}

func newCompileCmd() *cobra.Command {
	var (
		out      string
		pkgName  string
		funcName string
	)

	cmd := &cobra.Command{
		Use:   "compile <model.txt>",
		Short: "Generate a Go source file from a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := grove.Load(args[0])
			if err != nil {
				return err
			}
			opts := codegen.Options{Package: pkgName, FuncName: funcName}
			if out == "-" {
				return codegen.Generate(cmd.OutOrStdout(), model.Forest(), opts)
			}
			if err := codegen.GenerateFile(out, model.Forest(), opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d trees, %d features)\n",
				out, model.NumTrees(), model.NumFeature())
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "prediction.go", `output file, "-" for stdout`)
	cmd.Flags().StringVar(&pkgName, "pkg", "prediction", "package name of the generated file")
	cmd.Flags().StringVar(&funcName, "func", "Predict", "name of the generated entry point")
	return cmd
}

func newInfoCmd() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "info <model.txt>",
		Short: "Print model metadata from the header block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if full {
				model, err := grove.Load(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "features:  %d\n", model.NumFeature())
				fmt.Fprintf(w, "trees:     %d\n", model.NumTrees())
				fmt.Fprintf(w, "objective: %v\n", model.Objective())
				return nil
			}
			info, err := grove.ReadInfo(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "features:  %d\n", info.NumFeature)
			fmt.Fprintf(w, "version:   %s\n", info.Version)
			fmt.Fprintf(w, "objective: %v\n", info.Objective)
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "parse the whole file and report tree counts")
	return cmd
}

func newInspectCmd() *cobra.Command {
	var plotPath string

	cmd := &cobra.Command{
		Use:   "inspect <model.txt>",
		Short: "Summarize tree structure, optionally plotting the leaf-value distribution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := grove.Load(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "trees: %d, features: %d\n", model.NumTrees(), model.NumFeature())
			for _, tree := range model.Forest().Trees {
				fmt.Fprintf(w, "tree %d: %d nodes, %d leaves, %d categorical\n",
					tree.TreeIndex, tree.NumNodes, tree.NumLeaves, tree.NumCat)
			}
			if plotPath == "" {
				return nil
			}
			if err := saveLeafHistogram(model, plotPath); err != nil {
				return err
			}
			fmt.Fprintf(w, "wrote %s\n", plotPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&plotPath, "plot", "", "write a leaf-value histogram to this image file")
	return cmd
}
