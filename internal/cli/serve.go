package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pangraph/internal/server"
	"github.com/matzehuels/pangraph/pkg/observability"
	"github.com/matzehuels/pangraph/pkg/observability/promhooks"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr  string
		flags openFlags
	)

	cmd := &cobra.Command{
		Use:   "serve <file.gfa>",
		Short: "Serve a graph and its layout over HTTP",
		Long: `Serve a graph and its layout over HTTP.

The graph is opened and laid out once at startup. Windows, node details and
sequences are then served per request; Prometheus metrics are on /metrics.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Server.Addr
			}
			return c.runServe(cmd.Context(), args[0], flags, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: config, else "+server.DefaultAddr+")")
	flags.register(cmd, true)

	return cmd
}

func (c *CLI) runServe(ctx context.Context, source string, flags openFlags, addr string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := promhooks.New(reg)
	observability.SetPipelineHooks(metrics)
	observability.SetCacheHooks(metrics)
	observability.SetHTTPHooks(metrics)

	res, err := c.openLayout(ctx, source, flags)
	if err != nil {
		return err
	}
	defer res.Handle.Close()

	srv := server.New(res.Handle, res.Layout, server.Options{Logger: c.Logger, Gatherer: reg})
	return srv.ListenAndServe(ctx, addr, func(bound string) {
		printSuccess("Serving %s", source)
		printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.CacheInfo.SnapshotHit)
		printKeyValue("Address", StyleLink.Render("http://"+bound))
		printDetail("Press Ctrl+C to stop")
	})
}
