package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	v2 "github.com/matzehuels/atalogics/pkg/atalogics/v2"
	"github.com/matzehuels/atalogics/pkg/errors"
)

// timeslotsCommand creates the timeslots command.
func (c *CLI) timeslotsCommand() *cobra.Command {
	var (
		address  string
		lat, lng float64
		from, to string
		next     bool
	)

	cmd := &cobra.Command{
		Use:   "timeslots",
		Short: "List the next bookable timeslots for an address or position",
		Example: `  atalogics timeslots --address "Main St 5, 5020 Salzburg"
  atalogics timeslots --lat 47.8 --lng 13.04 --from 2026-10-20
  atalogics timeslots --address "Main St 5, 5020 Salzburg" --next`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := v2.TimeslotRequest{Address: address, From: from, To: to}
			if cmd.Flags().Changed("lat") {
				req.Position = &v2.Position{Lat: lat, Lng: lng}
			}
			if req.Address == "" && req.Position == nil {
				return errors.New(errors.ErrCodeInvalidInput, "either --address or --lat/--lng is required")
			}

			ctx := cmd.Context()
			client, err := c.v2Client(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			if next {
				return c.nextDeliveryTime(cmd, client, req)
			}

			p := newProgress(c.Logger)
			spinner := c.spin(ctx, "Fetching timeslots...")
			resp, err := client.MustNextTimeslots(ctx, req)
			spinner.Stop()
			if err != nil {
				return err
			}
			if c.jsonOutput {
				c.printResponse(resp)
				return nil
			}

			var slots []v2.Timeslot
			if err := resp.Decode(&slots); err != nil {
				return err
			}
			p.done(fmt.Sprintf("Fetched %d timeslots", len(slots)))

			if len(slots) == 0 {
				printInfo(c.out, "No timeslots available")
				return nil
			}
			printStatus(c.out, resp.Code, resp.Cached)
			for i, slot := range slots {
				if i > 0 {
					printNewline(c.out)
				}
				printTimeslot(c.out, slot)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "free-form address")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude")
	cmd.Flags().StringVar(&from, "from", "", "earliest date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "latest date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&next, "next", false, "only show the next possible delivery")
	cmd.MarkFlagsRequiredTogether("lat", "lng")
	cmd.MarkFlagsMutuallyExclusive("address", "lat")

	return cmd
}

func (c *CLI) nextDeliveryTime(cmd *cobra.Command, client *v2.Client, req v2.TimeslotRequest) error {
	ctx := cmd.Context()
	spinner := c.spin(ctx, "Fetching next delivery time...")
	resp, err := client.NextDeliveryTime(ctx, req)
	spinner.Stop()
	if err != nil {
		return err
	}
	if c.jsonOutput || !resp.OK() {
		c.printResponse(resp)
		return nil
	}

	var slot v2.Timeslot
	if err := resp.Decode(&slot); err != nil {
		return err
	}
	printStatus(c.out, resp.Code, resp.Cached)
	printTimeslot(c.out, slot)
	return nil
}

func printTimeslot(w io.Writer, slot v2.Timeslot) {
	catch, drop := slot.CatchTimeWindow, slot.DropTimeWindow
	printWindow(w, "Catch", formatTime(catch.From), formatTime(catch.To))
	printWindow(w, "Drop", formatTime(drop.From), formatTime(drop.To))
	if catch.BookableTill != "" {
		printKeyValue(w, "Bookable till", formatTime(catch.BookableTill))
	}
}

// formatTime shortens RFC 3339 times for display and passes anything else
// through.
func formatTime(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Format("Mon Jan 2 15:04")
}
