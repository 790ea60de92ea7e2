// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bartekus/swiftreq/cmd/swiftreq/internal/clierr"
	"github.com/bartekus/swiftreq/internal/extract"
	"github.com/bartekus/swiftreq/internal/generator"
	"github.com/bartekus/swiftreq/internal/generr"
)

// endpointFlags are shared by generate and inspect.
type endpointFlags struct {
	spec string
	ov   extract.Overrides
}

func (f *endpointFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.spec, "spec", "", "interface definition: OpenAPI 3, Swagger 2 or flat YAML/JSON (\"-\" reads stdin)")
	cmd.Flags().StringVar(&f.ov.Method, "method", "", "HTTP method, overrides the definition")
	cmd.Flags().StringVar(&f.ov.Path, "path", "", "request path, overrides the definition")
	cmd.Flags().StringVar(&f.ov.Summary, "summary", "", "one-line description used as the registry comment")
	cmd.Flags().StringVar(&f.ov.Server, "server", "", "server URL or hostname")
	cmd.Flags().StringVar(&f.ov.Params, "params", "", "parameters as name:type,name:type")
}

func (f *endpointFlags) read(cmd *cobra.Command) ([]byte, error) {
	return readInput(cmd, f.spec, "spec")
}

func NewGenerateCommand(opts *globalOptions) *cobra.Command {
	var (
		endpoint     endpointFlags
		response     string
		responseFile string
		outputMode   string
		out          string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a request class and register its host and path",
		Long: "Generate renders <Name>Request.swift, appends missing Host and Path entries to the registry " +
			"and, in full mode, adds the new files to the Xcode project. Nothing is written unless every step succeeds.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := generator.ParseMode(outputMode)
			if err != nil {
				return err
			}
			if response != "" && responseFile != "" {
				return &generr.InvalidInputError{Field: "response", Reason: "--response and --response-file are mutually exclusive"}
			}

			spec, err := endpoint.read(cmd)
			if err != nil {
				return err
			}
			if responseFile != "" {
				data, err := readInput(cmd, responseFile, "response-file")
				if err != nil {
					return err
				}
				response = string(data)
			}

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}

			res, err := generator.New(s.root, s.cfg, s.log).Generate(cmd.Context(), generator.Request{
				Spec:      spec,
				Overrides: endpoint.ov,
				Response:  response,
				Mode:      mode,
				Out:       out,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if mode == generator.ModePrint {
				_, _ = io.WriteString(w, res.Output)
				return nil
			}
			if len(res.Written) == 0 {
				_, _ = fmt.Fprintf(w, "%s is up to date\n", res.Names.ClassName)
				return nil
			}
			for _, path := range res.Written {
				_, _ = fmt.Fprintf(w, "wrote %s\n", relTo(s.root, path))
			}
			return nil
		},
	}

	endpoint.register(cmd)
	cmd.Flags().StringVar(&response, "response", "", "example JSON response or field list name:type,... for the response model")
	cmd.Flags().StringVar(&responseFile, "response-file", "", "file holding the example response")
	cmd.Flags().StringVar(&outputMode, "output-mode", string(generator.ModeFiles), "print, files or full")
	cmd.Flags().StringVar(&out, "out", "", "request file path (default: <request_dir>/<Class>.swift)")

	return cmd
}

// readInput reads path, or stdin when path is "-". An empty path yields nil.
func readInput(cmd *cobra.Command, path, flag string) ([]byte, error) {
	switch path {
	case "":
		return nil, nil
	case "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, clierr.Wrap(clierr.ExitInput, "reading stdin", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, clierr.Wrap(clierr.ExitInput, "reading --"+flag, err)
	}
	return data, nil
}

func relTo(root, path string) string {
	if r, err := filepath.Rel(root, path); err == nil {
		return r
	}
	return path
}
