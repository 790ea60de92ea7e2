// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bartekus/swiftreq/internal/naming"
)

func NewNormalizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize DOMAIN...",
		Short: "Print the canonical form of server domains",
		Long:  "Normalize keeps the first label and the last two labels of each domain, dropping environment markers such as inner or test.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, d := range args {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), naming.NormalizeDomain(d)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
