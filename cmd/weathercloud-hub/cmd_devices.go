package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/pwshub/weathercloud-hub/internal/weathercloud"
)

var nearestCmd = &cobra.Command{
	Use:   "nearest",
	Short: "List stations around a coordinate or a city",
	RunE:  runNearest,
}

var topCmd = &cobra.Command{
	Use:   "top <newest|followers|popular>",
	Short: "Show a country ranking of stations",
	Args:  cobra.ExactArgs(1),
	RunE:  runTop,
}

var ownCmd = &cobra.Command{
	Use:   "own",
	Short: "List your stations and favourites (needs a signed-in session)",
	RunE:  runOwn,
}

func init() {
	nearestCmd.Flags().Float64("lat", 0, "latitude of the search center")
	nearestCmd.Flags().Float64("lon", 0, "longitude of the search center")
	nearestCmd.Flags().Float64("radius", 25, "search radius in kilometres")
	nearestCmd.Flags().String("city", "", "city to search around (needs GEOCODER_API_KEY)")
	nearestCmd.Flags().String("country", "", "country of the city")

	topCmd.Flags().String("country", "", "country code of the ranking")
	topCmd.MarkFlagRequired("country")
	topCmd.Flags().String("period", "", "window of the popular ranking (e.g. day, week, month)")

	rootCmd.AddCommand(nearestCmd)
	rootCmd.AddCommand(topCmd)
	rootCmd.AddCommand(ownCmd)
}

func runNearest(cmd *cobra.Command, args []string) error {
	h, err := newHub()
	if err != nil {
		return err
	}
	defer h.Close()

	radius, _ := cmd.Flags().GetFloat64("radius")

	var list *weathercloud.DeviceList
	if cmd.Flags().Changed("city") {
		city, _ := cmd.Flags().GetString("city")
		country, _ := cmd.Flags().GetString("country")
		list, err = h.service.NearestByCity(cmd.Context(), city, country, radius)
	} else {
		if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
			return errors.New("either --city or both --lat and --lon are required")
		}
		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")
		list, err = h.client.Nearest(cmd.Context(), lat, lon, radius)
	}
	if err != nil {
		return err
	}
	return printJSON(list)
}

func runTop(cmd *cobra.Command, args []string) error {
	h, err := newHub()
	if err != nil {
		return err
	}
	defer h.Close()

	country, _ := cmd.Flags().GetString("country")
	period, _ := cmd.Flags().GetString("period")

	list, err := h.client.Top(cmd.Context(), weathercloud.TopKind(args[0]), country, period)
	if err != nil {
		return err
	}
	return printJSON(list)
}

func runOwn(cmd *cobra.Command, args []string) error {
	h, err := newHub()
	if err != nil {
		return err
	}
	defer h.Close()

	h.service.RestoreSession(cmd.Context())

	own, err := h.client.Own(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(own)
}
