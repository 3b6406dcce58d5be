// Package main is the entry point for the ytrelay application.
package main

import (
	"github.com/samber/lo"
	"github.com/ytrelay/ytrelay/cmd"
	"github.com/ytrelay/ytrelay/config"
	"github.com/ytrelay/ytrelay/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
