package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/gridsql/internal/api"
	"github.com/leapstack-labs/gridsql/internal/engine"
	"github.com/leapstack-labs/gridsql/internal/metrics"
)

// BuildInfo carries version metadata into commands that report it.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewServeCommand creates the serve command.
func NewServeCommand(info BuildInfo) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the grid HTTP API",
		Long: `Serve the grid API for the configured target.

Routes:
  GET  /api/tables
  GET  /api/tables/{table}/columns
  POST /api/tables/{table}/query
  POST /api/tables/{table}/edits
  GET  /api/tables/{table}/checks/{check}
  GET  /healthz
  GET  /metrics

Server settings come from the server section of gridsql.yaml,
GRIDSQL_SERVER__* environment variables or the flags below.`,
		Example: `  gridsql serve --addr :9090
  gridsql serve --cors-origin http://localhost:5173 --max-limit 500`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			metrics.SetBuildInfo(info.Version, info.Commit, info.Date)
			return newServer(cc).Serve(ctx)
		},
	}

	f := cmd.Flags()
	f.String("addr", api.DefaultAddr, "Listen address")
	f.StringSlice("cors-origin", nil, "Allowed browser origin (repeatable)")
	f.Float64("edit-rate", api.DefaultEditRate, "Edit requests per second per client")
	f.Int("edit-burst", api.DefaultEditBurst, "Edit request burst per client")
	f.Int("max-limit", api.DefaultMaxLimit, "Largest page size a client may request")

	return cmd
}

// newServer builds the API server from the loaded server config.
func newServer(cc *CommandContext) *api.Server {
	sc := cc.Cfg.Server
	return api.NewServer(api.Config{
		Service:           cc.Engine,
		Addr:              sc.Addr,
		CORSOrigins:       sc.CORSOrigins,
		EditRate:          sc.EditRate,
		EditBurst:         sc.EditBurst,
		MaxLimit:          sc.MaxLimit,
		ReadHeaderTimeout: sc.ReadHeaderTimeout,
		ShutdownTimeout:   sc.ShutdownTimeout,
		Logger:            cc.Logger,
	})
}

var _ api.Service = (*engine.Engine)(nil)
