package cmd

import (
	"os"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/ytrelay/ytrelay/color"
	"github.com/ytrelay/ytrelay/style"
	"github.com/ytrelay/ytrelay/where"
)

// whereTarget is a resolvable directory and the flag printing it alone.
type whereTarget struct {
	name     string
	where    func() string
	argLong  string
	argShort mo.Option[string]
}

var wherePaths = []whereTarget{
	{"Config", where.Config, "config", mo.Some("c")},
	{"Logs", where.Logs, "logs", mo.Some("l")},
	{"Downloads", where.Downloads, "downloads", mo.Some("d")},
	{"Temp", where.Temp, "temp", mo.Some("t")},
}

func init() {
	rootCmd.AddCommand(whereCmd)

	for _, t := range wherePaths {
		whereCmd.Flags().BoolP(t.argLong, t.argShort.OrEmpty(), false, t.name+" path")
	}

	whereCmd.MarkFlagsMutuallyExclusive(lo.Map(wherePaths, func(t whereTarget, _ int) string {
		return t.argLong
	})...)

	whereCmd.SetOut(os.Stdout)
}

// whereCmd prints the directories ytrelay reads from and writes to.
var whereCmd = &cobra.Command{
	Use:   "where",
	Short: "Print configuration, log, download and temp directories",
	Run: func(cmd *cobra.Command, args []string) {
		selected, ok := lo.Find(wherePaths, func(t whereTarget) bool {
			return lo.Must(cmd.Flags().GetBool(t.argLong))
		})
		if ok {
			cmd.Println(selected.where())
			return
		}

		header := style.New().Bold(true).Foreground(color.HiPurple).Render
		for i, t := range wherePaths {
			cmd.Printf("%s %s\n", header(t.name+"?"), style.Fg(color.Yellow)("--"+t.argLong))
			cmd.Println(t.where())

			if i < len(wherePaths)-1 {
				cmd.Println()
			}
		}
	},
}
