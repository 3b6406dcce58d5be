// Package cmd implements the command-line interface for ytrelay.
package cmd

import (
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ytrelay/ytrelay/color"
	"github.com/ytrelay/ytrelay/constant"
	"github.com/ytrelay/ytrelay/icon"
	"github.com/ytrelay/ytrelay/key"
	"github.com/ytrelay/ytrelay/log"
	"github.com/ytrelay/ytrelay/style"
	"github.com/ytrelay/ytrelay/util"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, squares)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().String("log-level", "", "Override the log level (panic, fatal, error, warn, info, debug, trace)")
	lo.Must0(viper.BindPFlag(key.LogsLevel, rootCmd.PersistentFlags().Lookup("log-level")))

	// Flags are bound after log.Setup first ran in main; re-apply so --log-level takes effect.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return log.Setup()
	}
}

// rootCmd defines the entry point for the ytrelay application.
var rootCmd = &cobra.Command{
	Use:   constant.App,
	Short: "Stream YouTube videos through a policy-enforcing relay",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - Stream YouTube videos through a policy-enforcing relay"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		handleErr(cmd.Help())
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// handleErr reports err and exits.
func handleErr(err error) {
	if err == nil {
		return
	}

	log.Error(err)
	fmt.Fprintln(os.Stderr, renderErr(err))
	os.Exit(1)
}

func renderErr(err error) string {
	message := strings.Trim(err.Error(), " \n")

	if !viper.GetBool(key.CliColored) || !util.IsTerminal() {
		return fmt.Sprintf("%s %s", icon.Get(icon.Fail), message)
	}

	width, _, sizeErr := util.TerminalSize()
	if sizeErr != nil || width > 80 {
		width = 80
	}
	return style.ErrorBox(strings.TrimSpace(icon.Get(icon.Fail)+" Error"), message, width)
}
