package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/simplimarked/signup-api/internal/domain"
	"github.com/simplimarked/signup-api/internal/parser"
	platformclock "github.com/simplimarked/signup-api/internal/platform/clock"
	"github.com/simplimarked/signup-api/internal/views"
)

type globalOptions struct {
	actor  string
	output string
	stdin  io.Reader
	stdout io.Writer
}

func newRootCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	opts := &globalOptions{stdin: stdin, stdout: stdout}

	root := &cobra.Command{
		Use:   "signupctl",
		Short: "Parse signup sheets pasted from chat",
		Long: `signupctl reads a signup sheet (a title line followed by numbered names)
from a file or stdin and prints the structured roster.

Names marked (M) are members; (M)* are converting to membership.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.output {
			case "json", "yaml":
				return nil
			}
			return fmt.Errorf("unknown --output %q (want json or yaml)", opts.output)
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)

	root.PersistentFlags().StringVar(&opts.actor, "as", os.Getenv("DEFAULT_ACTOR"), "acting user recorded as lastUpdatedBy")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "json", "output format: json or yaml")

	root.AddCommand(newParseCmd(opts), newViewCmd(opts), newStatsCmd(opts))
	return root
}

func newParseCmd(opts *globalOptions) *cobra.Command {
	var explain bool
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a signup sheet into a roster",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(opts.stdin, args)
			if err != nil {
				return err
			}
			if explain {
				return explainLines(opts, text)
			}
			r, err := parseRoster(opts, text)
			if err != nil {
				return err
			}
			return render(opts, r)
		},
	}
	cmd.Flags().BoolVar(&explain, "explain", false, "show how every line was classified instead of the roster")
	return cmd
}

func newViewCmd(opts *globalOptions) *cobra.Command {
	var sortFlag, dirFlag string
	cmd := &cobra.Command{
		Use:   "view [file]",
		Short: "Print the sorted roster with payment labels and stats",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			option, err := views.ParseSortOption(sortFlag)
			if err != nil {
				return err
			}
			dir, err := views.ParseDirection(dirFlag)
			if err != nil {
				return err
			}
			text, err := readInput(opts.stdin, args)
			if err != nil {
				return err
			}
			r, err := parseRoster(opts, text)
			if err != nil {
				return err
			}
			return render(opts, views.Build(r, option, dir))
		},
	}
	cmd.Flags().StringVar(&sortFlag, "sort", "original", "original, payment, alphabetical or membershipType")
	cmd.Flags().StringVar(&dirFlag, "dir", "asc", "asc or desc")
	return cmd
}

func newStatsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [file]",
		Short: "Print payment and membership totals",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(opts.stdin, args)
			if err != nil {
				return err
			}
			r, err := parseRoster(opts, text)
			if err != nil {
				return err
			}
			return render(opts, views.Aggregate(r.People))
		},
	}
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func parseRoster(opts *globalOptions, text string) (domain.Roster, error) {
	p := parser.New(platformclock.NewSystemClock())
	r, err := p.Parse(text, domain.Actor(strings.TrimSpace(opts.actor)))
	if err != nil {
		return domain.Roster{}, fmt.Errorf("parse: %w", err)
	}
	return r, nil
}

type explainedLine struct {
	Line       int    `json:"line" yaml:"line"`
	Text       string `json:"text" yaml:"text"`
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	Membership string `json:"membership,omitempty" yaml:"membership,omitempty"`
	Skipped    string `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

type explanation struct {
	Title string          `json:"title" yaml:"title"`
	Lines []explainedLine `json:"lines" yaml:"lines"`
}

func explainLines(opts *globalOptions, text string) error {
	title, results, err := parser.Explain(text)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	out := explanation{Title: title, Lines: make([]explainedLine, 0, len(results))}
	for _, r := range results {
		l := explainedLine{Line: r.Line, Text: r.Text, Skipped: string(r.Reason)}
		if r.Reason == parser.SkipNone {
			l.Name = r.Entry.Name
			l.Membership = string(r.Entry.Membership)
		}
		out.Lines = append(out.Lines, l)
	}
	return render(opts, out)
}

func render(opts *globalOptions, v any) error {
	if opts.output == "yaml" {
		enc := yaml.NewEncoder(opts.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(opts.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
