package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dshills/anaclient/internal/protocol"
)

func newErrorsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "errors FILE...",
		Short: "Analyzes the given files and prints their errors",
		Long: `Sets the directories of the given files as analysis roots, then prints the
errors, warnings and hints the engine reports for each file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := absPaths(args)
			if err != nil {
				return err
			}

			client := c.newClient()
			if err := client.Start(cmd.Context()); err != nil {
				return err
			}
			defer c.shutdown(client)

			ctx := cmd.Context()
			err = awaitDone(ctx, func(cb func(*protocol.RequestError)) string {
				return client.AnalysisSetAnalysisRoots(rootsOf(files), nil, nil, cb)
			})
			if err != nil {
				return fmt.Errorf("setting analysis roots: %w", err)
			}

			total := 0
			for _, file := range files {
				errs, err := await(ctx, func(cb func([]protocol.AnalysisError, *protocol.RequestError)) string {
					return client.AnalysisGetErrors(file, cb)
				})
				if err != nil {
					return fmt.Errorf("getting errors for %s: %w", file, err)
				}
				printErrors(c.out, errs)
				total += len(errs)
			}

			fmt.Fprintf(c.out, "%d issue(s) in %d file(s)\n", total, len(files))
			return nil
		},
	}
}

func absPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}

// rootsOf returns the distinct directories of files, sorted.
func rootsOf(files []string) []string {
	seen := make(map[string]bool)
	var roots []string
	for _, f := range files {
		dir := filepath.Dir(f)
		if !seen[dir] {
			seen[dir] = true
			roots = append(roots, dir)
		}
	}
	sort.Strings(roots)
	return roots
}

// printErrors writes errs as file:line:column lines, in file order.
func printErrors(w io.Writer, errs []protocol.AnalysisError) {
	sorted := append([]protocol.AnalysisError(nil), errs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Location, sorted[j].Location
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Offset < b.Offset
	})

	for _, e := range sorted {
		loc := e.Location
		fmt.Fprintf(w, "%s:%d:%d: %s: %s", loc.File, loc.StartLine, loc.StartColumn, severityName(e.Severity), e.Message)
		if e.Code != "" {
			fmt.Fprintf(w, " [%s]", e.Code)
		}
		fmt.Fprintln(w)
	}
}

func severityName(s string) string {
	switch s {
	case "ERROR":
		return "error"
	case "WARNING":
		return "warning"
	case "INFO":
		return "info"
	default:
		return s
	}
}
