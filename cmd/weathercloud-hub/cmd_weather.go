package main

import (
	"github.com/spf13/cobra"
)

var weatherCmd = &cobra.Command{
	Use:   "weather <station-id>",
	Short: "Fetch and assemble the current report of a station",
	Args:  cobra.ExactArgs(1),
	RunE:  runWeather,
}

var statusCmd = &cobra.Command{
	Use:   "status <station-id>",
	Short: "Show the status rows of a station (needs a signed-in session)",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var statsCmd = &cobra.Command{
	Use:   "stats <station-id>",
	Short: "Show the aggregate statistics of a station",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(weatherCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(statsCmd)
}

func runWeather(cmd *cobra.Command, args []string) error {
	h, err := newHub()
	if err != nil {
		return err
	}
	defer h.Close()

	report, err := h.client.Weather(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(report)
}

func runStatus(cmd *cobra.Command, args []string) error {
	h, err := newHub()
	if err != nil {
		return err
	}
	defer h.Close()

	h.service.RestoreSession(cmd.Context())

	rows, err := h.client.StationStatus(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(rows)
}

func runStats(cmd *cobra.Command, args []string) error {
	h, err := newHub()
	if err != nil {
		return err
	}
	defer h.Close()

	stats, err := h.client.Statistics(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(stats)
}
