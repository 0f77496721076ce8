package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "weathercloud-hub",
	Short: "Weathercloud station client, cache and fan-out hub",
	Long: `weathercloud-hub reads personal weather stations published on
Weathercloud, derives the indicators the site shows (cloud base,
condition, feels-like temperature) and serves the assembled reports
over HTTP and MQTT.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
