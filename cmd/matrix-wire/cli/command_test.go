// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_Dispatch(t *testing.T) {
	var called string
	var received []string

	root := &Command{
		Name:       "matrix-wire",
		HelpOutput: &bytes.Buffer{},
		Subcommands: []*Command{
			{
				Name: "routes",
				Run: func(ctx context.Context, args []string) error {
					called = "routes"
					return nil
				},
			},
			{
				Name: "decode",
				Subcommands: []*Command{
					{
						Name: "response",
						Run: func(ctx context.Context, args []string) error {
							called = "decode response"
							received = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"decode", "response", "client.whoami"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if called != "decode response" {
		t.Errorf("dispatched to %q", called)
	}
	if len(received) != 1 || received[0] != "client.whoami" {
		t.Errorf("args = %v", received)
	}
}

func TestCommand_Execute_Flags(t *testing.T) {
	var params struct {
		Format string `flag:"format,f" default:"json"`
	}
	var received []string
	command := &Command{
		Name:  "encode",
		Flags: func() *pflag.FlagSet { return FlagsFromParams("encode", &params) },
		Run: func(ctx context.Context, args []string) error {
			received = args
			return nil
		},
	}

	if err := command.Execute(context.Background(), []string{"-f", "cbor", "client.whoami"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if params.Format != "cbor" {
		t.Errorf("Format = %q", params.Format)
	}
	if len(received) != 1 || received[0] != "client.whoami" {
		t.Errorf("args = %v", received)
	}
}

func TestCommand_Execute_Suggestions(t *testing.T) {
	var params struct {
		Version string `flag:"version"`
	}
	root := &Command{
		Name:       "matrix-wire",
		HelpOutput: &bytes.Buffer{},
		Subcommands: []*Command{
			{
				Name:  "encode",
				Flags: func() *pflag.FlagSet { return FlagsFromParams("encode", &params) },
				Run:   func(ctx context.Context, args []string) error { return nil },
			},
			{Name: "negotiate", Run: func(ctx context.Context, args []string) error { return nil }},
		},
	}

	cases := []struct {
		name string
		args []string
		want string
	}{
		{"subcommand typo", []string{"encdoe"}, `did you mean "encode"?`},
		{"flag typo", []string{"encode", "--versoin", "v1.1"}, "did you mean --version?"},
		{"no close subcommand", []string{"zzzzzzzzz"}, `unknown command "zzzzzzzzz"`},
	}
	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			err := root.Execute(context.Background(), testCase.args)
			if err == nil {
				t.Fatal("Execute succeeded")
			}
			if !strings.Contains(err.Error(), testCase.want) {
				t.Errorf("error %q does not contain %q", err, testCase.want)
			}
			if !strings.Contains(err.Error(), "--help") {
				t.Errorf("error %q does not point at --help", err)
			}
		})
	}
}

func TestCommand_Execute_Help(t *testing.T) {
	var help bytes.Buffer
	root := &Command{
		Name:       "matrix-wire",
		HelpOutput: &help,
		Subcommands: []*Command{
			{Name: "routes", Summary: "List endpoints"},
		},
	}

	if err := root.Execute(context.Background(), []string{"--help"}); err != nil {
		t.Fatalf("Execute(--help): %v", err)
	}
	if !strings.Contains(help.String(), "routes") {
		t.Errorf("help does not list subcommands:\n%s", help.String())
	}

	help.Reset()
	if err := root.Execute(context.Background(), nil); err == nil || err.Error() != "subcommand required" {
		t.Errorf("Execute(no args) = %v", err)
	}
	if help.Len() == 0 {
		t.Error("no help printed for a missing subcommand")
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	var params struct {
		OutputJSON bool `flag:"json" desc:"output as JSON"`
	}
	parent := &Command{Name: "matrix-wire"}
	command := &Command{
		Name:        "routes",
		Description: "List every endpoint descriptor.",
		Flags:       func() *pflag.FlagSet { return FlagsFromParams("routes", &params) },
		Examples: []Example{
			{Description: "Client endpoints only", Command: "matrix-wire routes --api client"},
		},
		parent: parent,
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()
	for _, want := range []string{
		"List every endpoint descriptor.",
		"Usage:\n  matrix-wire routes [flags]",
		"--json",
		"# Client endpoints only",
		"matrix-wire routes --api client",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help missing %q:\n%s", want, output)
		}
	}
}
