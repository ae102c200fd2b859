// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	gostlink "github.com/bbnote/probemeister"
	"github.com/bbnote/probemeister/internal/cli"
	"github.com/bbnote/probemeister/probe"
	"github.com/bbnote/probemeister/shell"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var errNotConnected = errors.New("could not connect to probe")

func newRootCommand() *cobra.Command {
	cfg := cli.Default()
	configPath := ""
	index := uint8(0)
	listOnly := false

	cmd := &cobra.Command{
		Use:   "probeinfo",
		Short: "Print the attached ST-Link probes and the target identification",
		Long: `Lists the attached ST-Link probes, connects to one of them and prints the
probe version and the debug port identification registers of the target.

Examples:
  probeinfo --list                    # only list the probes
  probeinfo --probe 1 --protocol jtag # identify the target behind probe 1`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.Resolve(cmd.Flags(), configPath, &cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg, index, listOnly)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
	cmd.Flags().Uint8VarP(&index, "probe", "p", index, "index of the probe to identify")
	cmd.Flags().BoolVarP(&listOnly, "list", "l", listOnly, "only list the attached probes")
	cli.BindFlags(cmd.Flags(), &cfg, false)

	return cmd
}

func run(cfg cli.Config, index uint8, listOnly bool) error {
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

	usb := gostlink.NewContext(gostlink.Config{
		InitialSpeed:      cfg.Speed,
		ConnectUnderReset: cfg.ConnectUnderReset,
	})
	defer usb.Close()

	return identify(os.Stdout, usb, protocol, index, listOnly, logger)
}

func identify(out io.Writer, enumerator probe.Enumerator, protocol probe.Protocol, index uint8, listOnly bool, logger *logrus.Logger) error {
	session := shell.NewSession(enumerator, protocol, out)

	session.Execute(shell.List{})

	if listOnly {
		return nil
	}

	fmt.Fprintln(out)

	session.Execute(shell.Connect{ID: index})

	if session.State() != shell.StateConnected {
		return errNotConnected
	}

	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("could not close probe: ", err)
		}
	}()

	session.Execute(shell.Info{})

	return nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
