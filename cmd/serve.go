package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ytrelay/ytrelay/color"
	"github.com/ytrelay/ytrelay/config"
	"github.com/ytrelay/ytrelay/icon"
	"github.com/ytrelay/ytrelay/key"
	"github.com/ytrelay/ytrelay/log"
	"github.com/ytrelay/ytrelay/network"
	"github.com/ytrelay/ytrelay/policy"
	"github.com/ytrelay/ytrelay/ratelimit"
	"github.com/ytrelay/ytrelay/relay"
	"github.com/ytrelay/ytrelay/resolver"
	"github.com/ytrelay/ytrelay/server"
	"github.com/ytrelay/ytrelay/style"
	"github.com/ytrelay/ytrelay/validator"
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "Address to listen on (e.g. :5000)")
	lo.Must0(viper.BindPFlag(key.ServerAddress, serveCmd.Flags().Lookup("address")))

	serveCmd.Flags().StringP("mode", "m", "", "Server mode (production, development)")
	lo.Must0(viper.BindPFlag(key.ServerMode, serveCmd.Flags().Lookup("mode")))
	lo.Must0(serveCmd.RegisterFlagCompletionFunc("mode", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"production", "development"}, cobra.ShellCompDirectiveNoFileComp
	}))

	serveCmd.Flags().Bool("chrome-tls", false, "Present a Chrome TLS fingerprint to the video host")
	lo.Must0(viper.BindPFlag(key.ResolverChromeTLS, serveCmd.Flags().Lookup("chrome-tls")))

	serveCmd.Flags().Bool("log-stderr", true, "Log requests to stderr unless file logging is enabled")
}

// serveCmd runs the relay HTTP server until interrupted.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the download relay server",
	Long: `Run the download relay server.

Exposes GET /download?url=<video url> and GET /health.
Stops gracefully on SIGINT or SIGTERM, waiting for in-flight downloads up to server.shutdown_timeout.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if lo.Must(cmd.Flags().GetBool("log-stderr")) && !viper.GetBool(key.LogsWrite) {
			viper.Set(key.LogsStderr, true)
		}
		return log.Setup()
	},
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := config.Server()
		srv := server.New(opts, server.Pipeline{
			Validator: validator.New(config.AllowedHosts()),
			Resolver:  resolver.NewYouTube(network.Provider(config.ChromeTLS())),
			Enforcer:  policy.NewEnforcer(config.Policy()),
			Relay:     relay.New(relay.LogCompletion),
		}, server.WithLimiter(newLimiter(ctx)))

		fmt.Printf(
			"%s %s listening on %s %s\n",
			icon.Get(icon.Server),
			style.Bold("ytrelay"),
			style.Fg(color.Cyan)(opts.Address),
			style.Faint("("+opts.Mode+")"),
		)

		handleErr(srv.Run(ctx))
		fmt.Printf("%s server stopped\n", icon.Get(icon.Success))
	},
}

// newLimiter selects the configured rate limiter: none, shared through Redis, or in process.
func newLimiter(ctx context.Context) ratelimit.Limiter {
	cfg := config.RateLimit()
	if !cfg.Enabled {
		return ratelimit.Unlimited{}
	}

	client := ratelimit.NewRedisClient(config.Redis())
	if client == nil {
		return ratelimit.NewMemory(cfg)
	}

	if err := ratelimit.Ping(ctx, client); err != nil {
		log.Warnf("%s; rate limits fall back to in-process counters while it is unavailable", err)
	}
	return ratelimit.NewRedis(cfg, client)
}
