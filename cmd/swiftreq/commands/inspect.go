// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"io"

	"github.com/bndr/gotabulate"
	"github.com/spf13/cobra"

	"github.com/bartekus/swiftreq/internal/generator"
)

func NewInspectCommand(opts *globalOptions) *cobra.Command {
	var endpoint endpointFlags

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the extracted endpoint and derived names without writing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := endpoint.read(cmd)
			if err != nil {
				return err
			}
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}

			plan, err := generator.New(s.root, s.cfg, s.log).Plan(generator.Request{Spec: spec, Overrides: endpoint.ov})
			if err != nil {
				return err
			}
			return writePlan(cmd.OutOrStdout(), plan)
		},
	}

	endpoint.register(cmd)
	return cmd
}

func writePlan(w io.Writer, plan *generator.Plan) error {
	d := plan.Descriptor
	endpoint := gotabulate.Create([][]string{
		{"method", string(d.Method)},
		{"path", d.Path},
		{"summary", d.Summary},
		{"domain", d.Domain},
		{"host", plan.Domain},
		{"class", plan.Names.ClassName},
		{"path key", plan.Names.RegistryKey},
		{"model", plan.Names.ModelName},
	})
	endpoint.SetHeaders([]string{"Field", "Value"})
	endpoint.SetAlign("left")
	if _, err := io.WriteString(w, endpoint.Render("grid")); err != nil {
		return err
	}

	if len(plan.Properties) == 0 {
		_, err := io.WriteString(w, "no parameters\n")
		if err != nil {
			return err
		}
	} else {
		rows := make([][]string, 0, len(plan.Properties))
		for i, p := range plan.Properties {
			declared := plan.Parameters[i].DeclaredType
			if item := plan.Parameters[i].ItemType; item != "" {
				declared += "<" + item + ">"
			}
			rows = append(rows, []string{p.Name, declared, p.Type + "?"})
		}
		params := gotabulate.Create(rows)
		params.SetHeaders([]string{"Parameter", "Declared", "Swift"})
		params.SetAlign("left")
		if _, err := io.WriteString(w, params.Render("grid")); err != nil {
			return err
		}
	}

	for _, warning := range plan.Warnings {
		if _, err := fmt.Fprintf(w, "warning: %s\n", warning); err != nil {
			return err
		}
	}
	return nil
}
