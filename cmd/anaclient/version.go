package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/anaclient/internal/protocol"
)

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Starts the engine and prints the version it reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := c.newClient()
			if err := client.Start(cmd.Context()); err != nil {
				return err
			}
			defer c.shutdown(client)

			v, err := await(cmd.Context(), func(cb func(string, *protocol.RequestError)) string {
				return client.ServerGetVersion(cb)
			})
			if err != nil {
				return fmt.Errorf("getting engine version: %w", err)
			}

			fmt.Fprintln(c.out, v)
			return nil
		},
	}
}
