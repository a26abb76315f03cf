package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"forage-map/orchard/internal/common"
	"forage-map/orchard/internal/constants"
	"forage-map/orchard/internal/models/entities"
	"forage-map/orchard/internal/services"

	"github.com/spf13/cobra"
)

func listCommand(c *cli) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active points, or every row with --all",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if all {
				rows, err := c.deps.Services.Points.ListAll(cmd.Context())
				if err != nil {
					return err
				}
				return printRows(out, rows)
			}

			points, err := c.deps.Services.Points.ListActive(cmd.Context())
			if err != nil {
				return err
			}
			services.SortByName(points)
			return printPoints(out, points)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include soft-deleted rows, raw as stored")
	return cmd
}

func addCommand(c *cli) *cobra.Command {
	var (
		lat, lon string
		seasons  []string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return fmt.Errorf("%s", constants.MsgMissingName)
			}
			latF, err := common.ParseCoordinate(lat)
			if err != nil {
				return fmt.Errorf("--lat: %w", err)
			}
			lonF, err := common.ParseCoordinate(lon)
			if err != nil {
				return fmt.Errorf("--lon: %w", err)
			}

			p, err := c.deps.Services.Points.Add(cmd.Context(), entities.NewPoint{
				Name:    name,
				Lat:     latF,
				Lon:     lonF,
				Seasons: seasons,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&lat, "lat", "", "Latitude, either decimal separator")
	cmd.Flags().StringVar(&lon, "lon", "", "Longitude, either decimal separator")
	cmd.Flags().StringSliceVar(&seasons, "season", nil, "Season tag, repeatable")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}

func deleteCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Soft-delete a point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.deps.Services.Points.SoftDelete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s deleted\n", args[0])
			return nil
		},
	}
}

func exportCommand(c *cli) *cobra.Command {
	var (
		output     string
		categories []string
		seasons    []string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write active points as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			filter := entities.PointFilter{Categories: categories, Seasons: seasons}
			return c.deps.Services.Export.WriteCSV(cmd.Context(), w, filter)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, stdout when empty")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "Only these categories")
	cmd.Flags().StringSliceVar(&seasons, "season", nil, "Only points carrying one of these seasons")
	return cmd
}

func ensureHeaderCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-header",
		Short: "Repair the table header if a column is missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.deps.Table.EnsureHeader(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "header ok")
			return nil
		},
	}
}

func printPoints(w io.Writer, points []entities.Point) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLAT\tLON\tSEASONS\tUPDATED")
	for _, p := range points {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Name,
			common.FormatCoordinate(p.Lat), common.FormatCoordinate(p.Lon),
			common.SerializeSeasons(p.Seasons), p.UpdatedAt,
		)
	}
	return tw.Flush()
}

func printRows(w io.Writer, rows []entities.TableRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(constants.TableHeader, "\t")))
	for _, row := range rows {
		cells := make([]string, len(constants.TableHeader))
		for i, c := range constants.TableHeader {
			cells[i] = row.Get(c)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
