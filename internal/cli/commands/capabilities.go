package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapsparql/internal/cli/output"
	"github.com/leapstack-labs/leapsparql/pkg/capability"
)

// NewCapabilitiesCommand creates the capabilities command group.
func NewCapabilitiesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "capabilities",
		Aliases: []string{"caps"},
		Short:   "Manage cached endpoint capability snapshots",
		Long: `Manage the capability snapshots cached in the state database.

A snapshot describes what an endpoint supports (SPARQL languages,
service description features, extension functions, named graphs).
lint and query use the cached snapshot for an endpoint unless a
capabilities file is given in leapsparql.yaml or with --capabilities.`,
	}

	cmd.AddCommand(newCapabilitiesImportCommand())
	cmd.AddCommand(newCapabilitiesShowCommand())
	cmd.AddCommand(newCapabilitiesExportCommand())
	cmd.AddCommand(newCapabilitiesListCommand())
	cmd.AddCommand(newCapabilitiesDeleteCommand())
	return cmd
}

// endpointArg returns the endpoint URL named by args, or the resolved one.
func endpointArg(cmdCtx *CommandContext, args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	ep, err := cmdCtx.Endpoint()
	if err != nil {
		return "", err
	}
	return ep.URL, nil
}

func newCapabilitiesImportCommand() *cobra.Command {
	var endpointURL string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Cache a capability snapshot from a YAML or JSON file",
		Example: `  leapsparql capabilities import dbpedia.yaml
  leapsparql capabilities import fuseki.json --endpoint-url http://localhost:3030/ds/sparql`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)

			model, err := capability.LoadFile(args[0])
			if err != nil {
				return err
			}
			switch {
			case endpointURL != "":
				model.Endpoint = endpointURL
			case model.Endpoint == "":
				if model.Endpoint, err = endpointArg(cmdCtx, nil); err != nil {
					return fmt.Errorf("snapshot names no endpoint: %w", err)
				}
			}
			if model.FetchedAt.IsZero() {
				model.FetchedAt = time.Now().UTC()
			}

			store, err := cmdCtx.OpenStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveCapabilities(cmd.Context(), model); err != nil {
				return err
			}
			cmdCtx.Renderer.Success(fmt.Sprintf("Cached capabilities for %s", model.Endpoint))
			if !model.IsAvailable() {
				cmdCtx.Renderer.Warning("snapshot is marked unavailable; capability checks will be skipped")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&endpointURL, "endpoint-url", "", "Endpoint the snapshot belongs to (overrides the file)")
	return cmd
}

func newCapabilitiesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [ENDPOINT_URL]",
		Short: "Show the snapshot used for an endpoint",
		Long: `Show the capability snapshot lint and query would use for an endpoint,
and where it came from.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)
			r := cmdCtx.Renderer

			store, err := cmdCtx.OpenStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var model *capability.Model
			var source string
			if len(args) > 0 {
				model, source, err = cmdCtx.LoadModel(cmd.Context(), args[0], "", "", store)
			} else {
				ep, epErr := cmdCtx.Endpoint()
				if epErr != nil {
					return epErr
				}
				model, source, err = cmdCtx.modelFor(cmd, ep, store)
			}
			if err != nil {
				return err
			}

			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(model)
			}
			renderModel(r, model, source)
			return nil
		},
	}
}

func renderModel(r *output.Renderer, m *capability.Model, source string) {
	if source == "" {
		source = "none"
	}
	items := []output.KeyValue{
		{Key: "Endpoint", Value: m.Endpoint},
		{Key: "Source", Value: source},
		{Key: "Available", Value: strconv.FormatBool(m.IsAvailable())},
	}
	if !m.FetchedAt.IsZero() {
		items = append(items, output.KeyValue{Key: "Fetched", Value: m.FetchedAt.Local().Format(time.RFC3339)})
	}
	add := func(key string, values []string) {
		if len(values) > 0 {
			items = append(items, output.KeyValue{Key: key, Value: strings.Join(values, "\n")})
		}
	}
	add("Languages", m.Languages)
	add("Features", m.Features)
	add("Result formats", m.ResultFormats)
	add("Input formats", m.InputFormats)
	add("Extension functions", m.ExtensionFunctions)
	add("Extension aggregates", m.ExtensionAggregates)
	add("Named graphs", m.NamedGraphs())

	r.RenderDetails("Capabilities", items)
}

func newCapabilitiesExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export [ENDPOINT_URL]",
		Short: "Print a cached snapshot as YAML",
		Example: `  leapsparql capabilities export https://dbpedia.org/sparql > dbpedia.yaml`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)
			endpoint, err := endpointArg(cmdCtx, args)
			if err != nil {
				return err
			}

			store, err := cmdCtx.OpenStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			model, err := store.GetCapabilities(cmd.Context(), endpoint)
			if err != nil {
				return err
			}
			if model == nil {
				return fmt.Errorf("no cached capabilities for %s", endpoint)
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(model); err != nil {
				return fmt.Errorf("failed to encode snapshot: %w", err)
			}
			return enc.Close()
		},
	}
}

func newCapabilitiesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			r := cmdCtx.Renderer

			store, err := cmdCtx.OpenStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			summaries, err := store.ListCapabilities(cmd.Context())
			if err != nil {
				return err
			}
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(summaries)
			}
			if len(summaries) == 0 {
				r.Muted("No capability snapshots cached")
				return nil
			}

			rows := make([][]string, len(summaries))
			for i, s := range summaries {
				fetched := "-"
				if !s.FetchedAt.IsZero() {
					fetched = s.FetchedAt.Local().Format(time.DateTime)
				}
				rows[i] = []string{s.Endpoint, strconv.FormatBool(s.Available), fetched, s.UpdatedAt.Local().Format(time.DateTime)}
			}
			r.RenderList([]string{"Endpoint", "Available", "Fetched", "Updated"}, rows)
			return nil
		},
	}
}

func newCapabilitiesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [ENDPOINT_URL]",
		Short: "Remove a cached snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)
			endpoint, err := endpointArg(cmdCtx, args)
			if err != nil {
				return err
			}

			store, err := cmdCtx.OpenStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteCapabilities(cmd.Context(), endpoint); err != nil {
				return err
			}
			cmdCtx.Renderer.Success(fmt.Sprintf("Removed capabilities for %s", endpoint))
			return nil
		},
	}
}
