// Copyright 2015 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// The grandcypher command runs a single Cypher query against a YAML host
// graph fixture and prints the columnar result: a small command tree
// wired to the engine, built on cobra (see SPEC_FULL.md "Configuration").
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	grandcypher "github.com/aplbrain/grand-cypher"
	"github.com/aplbrain/grand-cypher/internal/fixture"
	"github.com/aplbrain/grand-cypher/internal/mcpserver"
	"github.com/aplbrain/grand-cypher/internal/parser"
	"github.com/aplbrain/grand-cypher/internal/version"
	"github.com/aplbrain/grand-cypher/table"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "grandcypher",
		Short: "Evaluate a Cypher query against an in-memory host graph",
	}
	root.AddCommand(runCmd(), explainCmd(), versionCmd(), mcpCmd())
	return root
}

func runCmd() *cobra.Command {
	var graphPath string
	cmd := &cobra.Command{
		Use:   "run <query>",
		Short: "Run a Cypher query against a --graph fixture and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, err := fixture.Load(graphPath)
			if err != nil {
				return err
			}
			cols, err := grandcypher.New(host).Run(args[0])
			if err != nil {
				return err
			}
			printColumnar(cols)
			return nil
		},
	}
	cmd.Flags().StringVar(&graphPath, "graph", "", "path to a YAML host-graph fixture (required)")
	cmd.MarkFlagRequired("graph")
	return cmd
}

func explainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <query>",
		Short: "Parse a Cypher query and print its AST, without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parser.Parse(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%d MATCH clause(s), WHERE=%v, %d RETURN item(s)\n",
				len(q.Matches), q.Where != nil, len(q.Return.Items))
			for i, mc := range q.Matches {
				fmt.Fprintf(os.Stdout, "  match %d: %d node(s), %d edge(s)\n", i, len(mc.Nodes), len(mc.Edges))
			}
			return nil
		},
	}
}

func mcpCmd() *cobra.Command {
	var graphPath string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the run-cypher MCP tool over stdio against a --graph fixture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			host, err := fixture.Load(graphPath)
			if err != nil {
				return err
			}
			return mcpserver.ServeStdio(host)
		},
	}
	cmd.Flags().StringVar(&graphPath, "graph", "", "path to a YAML host-graph fixture (required)")
	cmd.MarkFlagRequired("graph")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the grandcypher version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(os.Stdout, "grandcypher v%d.%d.%d-%s\n", version.Major, version.Minor, version.Patch, version.Release)
		},
	}
}

func printColumnar(cols *table.Columnar) {
	for _, c := range cols.Columns {
		vals := cols.Values[c]
		rendered := make([]string, len(vals))
		for i, v := range vals {
			rendered[i] = v.String()
		}
		fmt.Fprintf(os.Stdout, "%s\t%v\n", c, rendered)
	}
}
