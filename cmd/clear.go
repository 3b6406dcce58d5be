package cmd

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/ytrelay/ytrelay/filesystem"
	"github.com/ytrelay/ytrelay/icon"
	"github.com/ytrelay/ytrelay/util"
	"github.com/ytrelay/ytrelay/where"
)

// clearTarget is a directory of transient artifacts.
type clearTarget struct {
	name     string
	argLong  string
	argShort string
	location func() string
}

var clearTargets = []clearTarget{
	{"unfinished downloads", "temp", "t", where.Temp},
	{"logs", "logs", "l", where.Logs},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, target := range clearTargets {
		clearCmd.Flags().BoolP(target.argLong, target.argShort, false, "clear "+target.name)
	}
	clearCmd.Flags().BoolP("all", "a", false, "clear everything")
}

// clearCmd removes part files left behind by interrupted downloads, and old logs.
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove unfinished downloads and logs",
	Run: func(cmd *cobra.Command, args []string) {
		all := lo.Must(cmd.Flags().GetBool("all"))
		selected := lo.Filter(clearTargets, func(t clearTarget, _ int) bool {
			return all || lo.Must(cmd.Flags().GetBool(t.argLong))
		})

		if len(selected) == 0 {
			handleErr(cmd.Help())
			return
		}

		for _, target := range selected {
			erase := util.PrintErasable(fmt.Sprintf("%s Clearing %s...", icon.Get(icon.Progress), target.name))
			err := filesystem.API().RemoveAll(target.location())
			erase()
			handleErr(err)
			fmt.Printf("%s %s cleared\n", icon.Get(icon.Success), util.Capitalize(target.name))
		}
	},
}
