// main is the entry point of the stationqc CLI.
package main

import (
	"github.com/huangsam/stationqc/cmd"
	"github.com/huangsam/stationqc/internal/contract"
	"github.com/huangsam/stationqc/internal/iostore"
)

func main() {
	err := cmd.Execute()
	if perr := cmd.StopProfiling(); perr != nil {
		contract.LogWarn("Failed to stop profiling", perr)
	}
	if cerr := iostore.CloseStores(); cerr != nil {
		contract.LogWarn("Failed to close stores", cerr)
	}
	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
