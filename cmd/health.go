package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ytrelay/ytrelay/client"
	"github.com/ytrelay/ytrelay/color"
	"github.com/ytrelay/ytrelay/config"
	"github.com/ytrelay/ytrelay/icon"
	"github.com/ytrelay/ytrelay/key"
	"github.com/ytrelay/ytrelay/style"
)

func init() {
	rootCmd.AddCommand(healthCmd)
	healthCmd.Flags().StringP("server", "s", "", "Relay base URL")
	healthCmd.Flags().DurationP("timeout", "t", 10*time.Second, "Give up after this long")
}

// healthCmd probes the relay once.
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the relay server is reachable",
	Run: func(cmd *cobra.Command, args []string) {
		if server := lo.Must(cmd.Flags().GetString("server")); server != "" {
			viper.Set(key.ClientServer, server)
		}

		ctx, cancel := context.WithTimeout(context.Background(), lo.Must(cmd.Flags().GetDuration("timeout")))
		defer cancel()

		opts := config.Client()
		start := time.Now()
		h, err := client.New(opts).Health(ctx)
		if err != nil {
			handleErr(errors.New(client.Message(err)))
		}

		fmt.Printf(
			"%s %s is %s %s\n",
			icon.Get(icon.Health),
			style.Fg(color.Cyan)(opts.Server),
			style.Fg(style.SuccessColor)(h.Status),
			style.Faint(fmt.Sprintf("(%s, server time %s)", time.Since(start).Round(time.Millisecond), h.Timestamp)),
		)
	},
}
