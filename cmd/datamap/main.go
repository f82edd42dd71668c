package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/coolbeans/datamap/pkg/cache"
	"github.com/coolbeans/datamap/pkg/config"
	"github.com/coolbeans/datamap/pkg/explorer"
	"github.com/coolbeans/datamap/pkg/graph"
	"github.com/coolbeans/datamap/pkg/label"
	"github.com/coolbeans/datamap/pkg/metrics"
	"github.com/coolbeans/datamap/pkg/query"
	"github.com/coolbeans/datamap/pkg/server"
	"github.com/coolbeans/datamap/pkg/sparql"
	"github.com/coolbeans/datamap/pkg/store"
)

var version = "0.1.0"

// globalOptions are the persistent flags shared by all commands.
type globalOptions struct {
	configPath string
	endpoint   string
	language   string
	debug      bool
	noCache    bool
}

func main() {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "datamap",
		Short: "Explore RDF data models in a SPARQL triple store",
		Long: `Datamap extracts focused neighborhoods from a SPARQL triple store and
projects them into graph models of the ontology (schema view) or of the
data (instance view).

Graphs can be exported as JSON, Cytoscape elements, YAML or Graphviz DOT,
searched, dumped as Turtle, or served over HTTP.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to datamap.toml (default: search upwards, then user config dir)")
	flags.StringVar(&opts.endpoint, "endpoint", "", "SPARQL endpoint URL, overrides the selected endpoint")
	flags.StringVar(&opts.language, "language", "", "label language: sl or en")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flags.BoolVar(&opts.noCache, "no-cache", false, "disable the response cache")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(graphCmd(opts))
	rootCmd.AddCommand(queryCmd(opts))
	rootCmd.AddCommand(graphsCmd(opts))
	rootCmd.AddCommand(searchCmd(opts))
	rootCmd.AddCommand(dumpCmd(opts))
	rootCmd.AddCommand(serveCmd(opts))

	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app wires the configured components together for one command run.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	cache    cache.Cache
	client   *sparql.Client
	explorer *explorer.Explorer
}

func newApp(opts *globalOptions) (*app, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.endpoint != "" {
		cfg.OverrideEndpoint(opts.endpoint)
	}
	if opts.language != "" {
		cfg.Language = opts.language
	}
	if opts.debug {
		cfg.Debug = true
	}
	if opts.noCache {
		cfg.Cache.Kind = string(cache.KindNone)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg.Debug)
	m := metrics.New()

	responseCache, err := cache.Open(cfg.CacheConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	clientConfig, err := cfg.ClientConfig()
	if err != nil {
		responseCache.Close()
		return nil, err
	}
	client := sparql.NewClient(clientConfig,
		sparql.WithCache(responseCache),
		sparql.WithMetrics(m),
		sparql.WithLogger(logger))

	exp := explorer.New(client,
		explorer.WithLogger(logger),
		explorer.WithMetrics(m),
		explorer.WithSchemaEnrichment(true))

	logger.Debug("Configured datamap",
		slog.String("config", cfg.Path()),
		slog.String("endpoint", client.Endpoint()),
		slog.String("cache", cfg.Cache.Kind))

	return &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		cache:    responseCache,
		client:   client,
		explorer: exp,
	}, nil
}

func (a *app) Close() error {
	return a.cache.Close()
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		return config.Default(), nil
	}
	return cfg, err
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a default datamap.toml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}

			cfg, err := config.Initialize(dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			color.New(color.FgGreen).Fprintf(out, "Created %s\n", cfg.Path())
			endpoint, _ := cfg.SelectedEndpoint()
			fmt.Fprintf(out, "Selected endpoint: %s (%s)\n", cfg.Endpoints.Selected, endpoint)
			fmt.Fprintf(out, "\nNext steps:\n")
			fmt.Fprintf(out, "  datamap graphs                  list named graphs\n")
			fmt.Fprintf(out, "  datamap graph --schema          project the ontology\n")
			fmt.Fprintf(out, "  datamap graph --focus <IRI>     project the neighborhood of a resource\n")
			return nil
		},
	}
}

// viewFlags are the flags that select what to load.
type viewFlags struct {
	focus  string
	graph  string
	schema bool
	noHide bool
}

func addViewFlags(cmd *cobra.Command, flags *viewFlags) {
	cmd.Flags().StringVar(&flags.focus, "focus", "", "IRI or blank id (_:label) to center on")
	cmd.Flags().StringVar(&flags.graph, "graph", "", "named graph to query (default: instance_graph from config)")
	cmd.Flags().BoolVar(&flags.schema, "schema", false, "load the schema view (default: display_schema from config)")
	cmd.Flags().BoolVar(&flags.noHide, "no-hide", false, "keep concepts marked hidden in the config")
}

// request builds the explorer request, filling unset flags from cfg.
func (flags *viewFlags) request(cmd *cobra.Command, cfg *config.Config) explorer.Request {
	req := explorer.Request{
		Focus:      flags.focus,
		NamedGraph: cfg.InstanceGraph,
		Schema:     cfg.DisplaySchema,
	}
	if cmd.Flags().Changed("graph") {
		req.NamedGraph = flags.graph
	}
	if cmd.Flags().Changed("schema") {
		req.Schema = flags.schema
	}
	if req.Schema {
		req.NamedGraph = ""
	}
	return req
}

// load runs req. A blank instance focus is resolved against the unfocused
// instance graph, which is loaded first.
func (a *app) load(ctx context.Context, req explorer.Request) (*explorer.Result, error) {
	if store.IsBlankID(req.Focus) && !req.Schema {
		if _, err := a.explorer.Load(ctx, explorer.Request{NamedGraph: req.NamedGraph}); err != nil {
			return nil, fmt.Errorf("failed to load graph for blank node resolution: %w", err)
		}
	}
	return a.explorer.LoadResult(ctx, req)
}

func (a *app) visible(model *graph.Model, noHide bool) *graph.Model {
	if noHide {
		return model
	}
	return graph.HideConcepts(model, a.cfg.HiddenURIs())
}

func graphCmd(opts *globalOptions) *cobra.Command {
	var (
		view   viewFlags
		format string
		output string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Load and export a graph projection",
		Long: `Load the neighborhood of a focus resource (or the whole store) and export
the projected graph model.

Formats: json, cytoscape, yaml, dot, stats

Examples:
  datamap graph --schema --format dot > schema.dot
  datamap graph --graph http://example.org/graph/a --focus http://example.org/data/acme
  datamap graph --focus _:b0 --graph http://example.org/graph/a
  datamap graph --schema --focus http://www.w3.org/ns/dcat#Dataset --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			req := view.request(cmd, a.cfg)
			ctx := cmd.Context()

			if dryRun {
				if store.IsBlankID(req.Focus) {
					return fmt.Errorf("--dry-run cannot resolve blank focus %s", req.Focus)
				}
				queryText, err := a.explorer.Plan(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), queryText)
				return nil
			}

			result, err := a.load(ctx, req)
			if err != nil {
				return err
			}
			if result.Ancestor != nil {
				a.logger.Info("Resolved blank focus",
					slog.String("blank", req.Focus),
					slog.String("ancestor", result.Ancestor.URI),
					slog.Int("level", result.Ancestor.Level))
			}

			model := a.visible(result.Model, view.noHide)

			out := cmd.OutOrStdout()
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer file.Close()
				out = file
			}

			if format == "stats" {
				printStats(out, model, a.cfg)
				return nil
			}

			rendered, err := renderModel(model, format, a.cfg.LabelLanguage())
			if err != nil {
				return err
			}
			if _, err := out.Write(rendered); err != nil {
				return err
			}
			if output != "" {
				color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "Wrote %d nodes and %d edges to %s\n",
					len(model.Nodes), len(model.Edges), output)
			}
			return nil
		},
	}

	addViewFlags(cmd, &view)
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, cytoscape, yaml, dot, stats")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the CONSTRUCT query without executing it")

	return cmd
}

func renderModel(model *graph.Model, format string, language label.Language) ([]byte, error) {
	switch format {
	case "json":
		data, err := model.ToJSON()
		return append(data, '\n'), err
	case "cytoscape":
		data, err := model.ToCytoscapeJSON()
		return append(data, '\n'), err
	case "yaml":
		return model.ToYAML()
	case "dot":
		return []byte(model.ToDOT(language)), nil
	default:
		return nil, fmt.Errorf("unknown format %q: use json, cytoscape, yaml, dot or stats", format)
	}
}

func printStats(out io.Writer, model *graph.Model, cfg *config.Config) {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	stats := model.Stats()
	bold.Fprintln(out, "Graph statistics")
	fmt.Fprintf(out, "  Nodes:       %d\n", stats.TotalNodes)
	fmt.Fprintf(out, "  Edges:       %d\n", stats.TotalEdges)
	fmt.Fprintf(out, "  Blank nodes: %d\n", stats.BlankNodes)
	for kind, count := range stats.NodesByKind {
		fmt.Fprintf(out, "  %-12s %d\n", kind+":", count)
	}

	classes := stats.SortedClasses()
	if len(classes) == 0 {
		return
	}

	highlighted := make(map[string]bool, len(cfg.HighlightConcepts))
	for _, uri := range cfg.HighlightConcepts {
		highlighted[uri] = true
	}

	fmt.Fprintln(out)
	bold.Fprintln(out, "Instances by class")
	for _, class := range classes {
		line := fmt.Sprintf("  %6d  %s", stats.Classes[class], class)
		if highlighted[class] {
			yellow.Fprintln(out, line)
		} else {
			cyan.Fprintln(out, line)
		}
	}
}

func queryCmd(opts *globalOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "query [sparql-query]",
		Short: "Run a SPARQL query against the endpoint",
		Long: `Run a SELECT or CONSTRUCT query against the configured endpoint.

SELECT results are printed as a table. CONSTRUCT results are printed as the
Turtle returned by the endpoint.

Examples:
  datamap query "SELECT ?c WHERE { ?c a <http://www.w3.org/2002/07/owl#Class> } LIMIT 10"
  datamap query --file neighborhood.rq`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var queryText string
			switch {
			case file != "":
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read query file: %w", err)
				}
				queryText = string(data)
			case len(args) > 0:
				queryText = args[0]
			default:
				return fmt.Errorf("query text or --file is required")
			}

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			switch query.DetectType(queryText) {
			case query.SelectQueryType:
				results, err := a.client.Select(cmd.Context(), queryText)
				if err != nil {
					return err
				}
				printResults(out, results)
			case query.ConstructQueryType:
				body, err := a.client.ConstructTurtle(cmd.Context(), queryText)
				if err != nil {
					return err
				}
				out.Write(body)
			default:
				return fmt.Errorf("only SELECT and CONSTRUCT queries are supported")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "read the query from a file")
	return cmd
}

func printResults(out io.Writer, results *sparql.Results) {
	writer := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(writer, strings.Join(results.Head.Vars, "\t"))
	for _, row := range results.Results.Bindings {
		values := make([]string, len(results.Head.Vars))
		for i, variable := range results.Head.Vars {
			values[i] = row[variable].Value
		}
		fmt.Fprintln(writer, strings.Join(values, "\t"))
	}
	writer.Flush()
	fmt.Fprintf(out, "\n%d row(s)\n", len(results.Results.Bindings))
}

func graphsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "graphs",
		Short: "List the named graphs of the endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			graphs, err := a.client.NamedGraphs(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(graphs) == 0 {
				color.New(color.FgYellow).Fprintln(out, "No named graphs")
				return nil
			}
			cyan := color.New(color.FgCyan)
			for _, name := range graphs {
				marker := " "
				if name == a.cfg.InstanceGraph {
					marker = "*"
				}
				fmt.Fprintf(out, "%s ", marker)
				cyan.Fprintln(out, name)
			}
			return nil
		},
	}
}

func searchCmd(opts *globalOptions) *cobra.Command {
	var view viewFlags

	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Load a graph and search its nodes and edges",
		Long: `Load a graph and search it with a case-insensitive regular expression over
ids, labels, definitions and property values. Keywords shorter than two
characters match nothing.

Example:
  datamap search --schema "data.?set"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.load(cmd.Context(), view.request(cmd, a.cfg))
			if err != nil {
				return err
			}
			model := a.visible(result.Model, view.noHide)

			matches := graph.Search(model, args[0])
			out := cmd.OutOrStdout()
			if len(matches) == 0 {
				color.New(color.FgYellow).Fprintln(out, "No matches")
				return nil
			}

			printMatches(out, model, matches, a.cfg)
			return nil
		},
	}

	addViewFlags(cmd, &view)
	return cmd
}

func printMatches(out io.Writer, model *graph.Model, matches []string, cfg *config.Config) {
	green := color.New(color.FgGreen)
	faint := color.New(color.Faint)
	language := cfg.LabelLanguage()

	labels := make(map[string]label.Multilingual, len(model.Edges))
	for _, edge := range model.Edges {
		labels[edge.ID] = edge.Label
	}

	for _, id := range matches {
		node, isNode := model.Node(id)
		text := labels[id].Pick(language)
		if isNode {
			text = node.Label.Pick(language)
		}
		if text == "" {
			text = label.IDFromURI(id)
		}

		green.Fprint(out, text)
		faint.Fprintf(out, "  %s\n", id)

		if !isNode {
			continue
		}
		for _, priority := range cfg.PriorityProperties {
			for _, property := range node.DataProperties {
				if property.ID == priority && property.Value != "" {
					fmt.Fprintf(out, "    %s: %s\n", label.IDFromURI(property.ID), property.Value)
				}
			}
		}
	}
	fmt.Fprintf(out, "\n%d match(es)\n", len(matches))
}

func dumpCmd(opts *globalOptions) *cobra.Command {
	var (
		view   viewFlags
		raw    bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Dump the triples of a neighborhood",
		Long: `Run the CONSTRUCT query of a view and write the fetched triples as Turtle,
N-Triples, JSON-LD or RDF/XML.

With --raw the endpoint's Turtle response is written unchanged; otherwise
the decoded triples are re-serialized with common prefixes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			req := view.request(cmd, a.cfg)
			out := cmd.OutOrStdout()

			if raw {
				if store.IsBlankID(req.Focus) {
					return fmt.Errorf("--raw cannot resolve blank focus %s", req.Focus)
				}
				queryText, err := a.explorer.Plan(cmd.Context(), req)
				if err != nil {
					return err
				}
				body, err := a.client.ConstructTurtle(cmd.Context(), queryText)
				if err != nil {
					return err
				}
				_, err = out.Write(body)
				return err
			}

			result, err := a.load(cmd.Context(), req)
			if err != nil {
				return err
			}
			rendered, err := renderTriples(result.Triples, format)
			if err != nil {
				return err
			}
			_, err = out.Write(rendered)
			return err
		},
	}

	addViewFlags(cmd, &view)
	cmd.Flags().BoolVar(&raw, "raw", false, "write the endpoint response without re-serializing")
	cmd.Flags().StringVarP(&format, "format", "f", "turtle", "output format: turtle, ntriples, jsonld, rdfxml")
	return cmd
}

func renderTriples(triples *store.TripleSet, format string) ([]byte, error) {
	switch format {
	case "turtle", "ttl":
		return []byte(store.NewTurtleSerializer().Serialize(triples)), nil
	case "ntriples", "nt":
		return []byte(triples.NTriples()), nil
	case "jsonld":
		data, err := store.NewJSONLDSerializer().Serialize(triples)
		return append(data, '\n'), err
	case "rdfxml", "xml":
		return []byte(store.NewRDFXMLSerializer().Serialize(triples)), nil
	default:
		return nil, fmt.Errorf("unknown format %q: use turtle, ntriples, jsonld or rdfxml", format)
	}
}

func serveCmd(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve graphs over HTTP",
		Long: `Serve the explorer over HTTP.

Routes:
  GET /api/graph?focus=&graph=&schema=true|false
  GET /api/graphs
  GET /api/search?q=
  GET /metrics
  GET /healthz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if removed, err := cache.Prune(cmd.Context(), a.cache); err != nil {
				a.logger.Warn("Cache prune failed", slog.String("error", err.Error()))
			} else if removed > 0 {
				a.logger.Info("Pruned expired cache entries", slog.Int64("removed", removed))
			}

			handler := server.Handler(a.explorer, a.client, a.metrics, server.Config{
				Hidden:        a.cfg.HiddenURIs(),
				DisplaySchema: a.cfg.DisplaySchema,
				InstanceGraph: a.cfg.InstanceGraph,
			}, a.logger)

			httpServer := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errs := make(chan error, 1)
			go func() {
				a.logger.Info("Listening", slog.String("addr", addr), slog.String("endpoint", a.client.Endpoint()))
				errs <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errs:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			a.logger.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
