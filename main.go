// Package main is the entry point of the ecgscope CLI.
package main

import (
	"github.com/huangsam/ecgscope/cmd"
	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/internal/iocache"
)

func main() {
	err := cmd.Execute()
	iocache.CloseStores()
	if perr := cmd.StopProfiling(); perr != nil {
		contract.LogWarn("Failed to stop profiling", perr)
	}
	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
