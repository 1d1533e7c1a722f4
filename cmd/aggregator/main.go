// @title Panopticon Aggregator API
// @version 1.0
// @description Read API over the daily homeserver telemetry aggregates.
// @BasePath /
package main

import (
	"fmt"
	"os"

	"panopticon-aggregator/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "aggregator:", err)
		os.Exit(1)
	}
}
