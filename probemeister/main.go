// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	gostlink "github.com/bbnote/probemeister"
	"github.com/bbnote/probemeister/internal/cli"
	"github.com/bbnote/probemeister/shell"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	cfg := cli.Default()
	configPath := ""

	cmd := &cobra.Command{
		Use:   "probemeister",
		Short: "Interactive shell for ST-Link debug probes",
		Long: `An interactive command shell for ST-Link debug probes: list the attached
probes, connect to one, dump target memory, show the debug port
identification registers and reset the target.

Examples:
  probemeister                                  # start the shell
  probemeister --protocol jtag --speed 1125     # attach using JTAG
  probemeister --config probemeister.yaml       # read settings from a file`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.Resolve(cmd.Flags(), configPath, &cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
	cli.BindFlags(cmd.Flags(), &cfg, true)

	return cmd
}

func run(cfg cli.Config) error {
	logger, err := cli.NewLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}

	gostlink.SetLogger(logger)
	shell.SetLogger(logger)

	protocol, err := cfg.ProbeProtocol()
	if err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 "(Not connected) >> ",
		InterruptPrompt:        "^C",
		EOFPrompt:              "exit",
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	usb := gostlink.NewContext(gostlink.Config{
		InitialSpeed:      cfg.Speed,
		ConnectUnderReset: cfg.ConnectUnderReset,
	})
	defer usb.Close()

	session := shell.NewSession(usb, protocol, rl.Stdout())

	shell.Run(rl, session, shell.NewHistory(cfg.History, cfg.HistoryLimit), rl.Stdout())

	return nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
