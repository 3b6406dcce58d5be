package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/AlecAivazis/survey/v2"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ytrelay/ytrelay/client"
	"github.com/ytrelay/ytrelay/color"
	"github.com/ytrelay/ytrelay/config"
	"github.com/ytrelay/ytrelay/icon"
	"github.com/ytrelay/ytrelay/key"
	"github.com/ytrelay/ytrelay/log"
	"github.com/ytrelay/ytrelay/open"
	"github.com/ytrelay/ytrelay/retry"
	"github.com/ytrelay/ytrelay/style"
	"github.com/ytrelay/ytrelay/util"
	"github.com/ytrelay/ytrelay/validator"
)

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().StringP("server", "s", "", "Relay base URL")
	lo.Must0(viper.BindPFlag(key.ClientServer, getCmd.Flags().Lookup("server")))

	getCmd.Flags().StringP("output", "o", "", "Directory to save the video to")
	lo.Must0(viper.BindPFlag(key.DownloadsPath, getCmd.Flags().Lookup("output")))

	getCmd.Flags().IntP("retries", "r", 0, "Retries after a failed attempt")
	lo.Must0(viper.BindPFlag(key.ClientMaxRetries, getCmd.Flags().Lookup("retries")))

	getCmd.Flags().BoolP("quiet", "q", false, "Do not draw a progress bar")
	getCmd.Flags().Bool("open", false, "Open the video with the default player once saved")
}

// getCmd downloads a video through the relay.
var getCmd = &cobra.Command{
	Use:     "get [url]",
	Short:   "Download a video through the relay",
	Aliases: []string{"download", "dl"},
	Example: "  ytrelay get https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		opts := config.Client()

		var raw string
		if len(args) == 1 {
			raw = args[0]
		} else {
			raw = promptURL(validator.New(opts.Hosts))
		}

		quiet := lo.Must(cmd.Flags().GetBool("quiet")) || !util.IsTerminal()
		bar := newProgressBar(quiet)

		c := client.New(opts, client.WithRetryHook(func(s retry.State) {
			bar.clear()
			fmt.Printf(
				"%s attempt %d/%d failed: %s %s\n",
				icon.Get(icon.Retry),
				s.Attempt+1,
				s.MaxAttempts,
				client.Message(s.Err),
				style.Faint(fmt.Sprintf("(retrying in %s)", s.Delay())),
			)
		}))

		res, err := c.Download(ctx, raw, bar.update)
		bar.clear()
		if err != nil {
			log.Error(err)
			handleErr(errors.New(client.Message(err)))
		}

		fmt.Printf(
			"%s saved %s %s\n",
			icon.Get(icon.Success),
			style.Fg(color.Cyan)(res.Path),
			style.Faint(fmt.Sprintf("(%s, %s)", humanize.Bytes(uint64(res.Bytes)), util.Quantify(res.Attempts, "attempt", "attempts"))),
		)

		if lo.Must(cmd.Flags().GetBool("open")) {
			handleErr(open.Start(res.Path))
		}
	},
}

// promptURL asks for a URL until a valid one is entered.
func promptURL(v *validator.Validator) string {
	input := survey.Input{
		Message: "YouTube video URL:",
		Help:    "Accepted hosts: " + fmt.Sprint(v.Hosts()),
	}

	var response string
	handleErr(survey.AskOne(&input, &response, survey.WithValidator(func(ans interface{}) error {
		if s, ok := ans.(string); !ok || !v.Valid(s) {
			return errors.New(client.MsgInvalidURL)
		}
		return nil
	})))

	return response
}
