package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	v3 "github.com/matzehuels/atalogics/pkg/atalogics/v3"
)

// offersCommand creates the offers command.
func (c *CLI) offersCommand() *cobra.Command {
	var req v3.OfferRequest

	cmd := &cobra.Command{
		Use:   "offers",
		Short: "List offers between a catch and a drop address",
		Example: `  atalogics offers --catch "Main St 5, 5020 Salzburg" --drop "Linzer Gasse 10, 5020 Salzburg"
  atalogics offers decode-key MjAyNi0xMC0yMCsrMTIrKzIwMjYtMTAtMjErKzE0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.v3Client(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			p := newProgress(c.Logger)
			spinner := c.spin(ctx, "Fetching offers...")
			resp, err := client.MustOffers(ctx, req)
			spinner.Stop()
			if err != nil {
				return err
			}
			if c.jsonOutput {
				c.printResponse(resp)
				return nil
			}

			var result v3.OffersResult
			if err := resp.Decode(&result); err != nil {
				return err
			}
			p.done(fmt.Sprintf("Fetched %d offers", len(result.Offers)))

			if len(result.Offers) == 0 {
				printInfo(c.out, "No offers available")
				return nil
			}
			printStatus(c.out, resp.Code, resp.Cached)
			for i, offer := range result.Offers {
				if i > 0 {
					printNewline(c.out)
				}
				printOffer(c.out, offer)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.CatchAddress, "catch", "", "catch (pickup) address")
	cmd.Flags().StringVar(&req.DropAddress, "drop", "", "drop (delivery) address")
	cmd.Flags().StringVar(&req.CatchDate, "catch-date", "", "catch date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&req.DropDate, "drop-date", "", "drop date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("catch")
	_ = cmd.MarkFlagRequired("drop")

	cmd.AddCommand(c.offersDecodeKeyCommand())
	return cmd
}

// offersDecodeKeyCommand creates the "offers decode-key" subcommand.
func (c *CLI) offersDecodeKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decode-key KEY",
		Short: "Decode an offer key into its dates and timeslot ids",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := v3.DecodeOfferKey(args[0])
			if err != nil {
				return err
			}
			printOfferKey(c.out, key)
			return nil
		},
	}
}

func printOffer(w io.Writer, offer v3.Offer) {
	fmt.Fprintln(w, StyleTitle.Render(offer.OfferKey))
	printWindow(w, "Catch", formatTime(offer.CatchWindow.From), formatTime(offer.CatchWindow.To))
	printWindow(w, "Drop", formatTime(offer.DropWindow.From), formatTime(offer.DropWindow.To))
	if offer.CatchWindow.UsableTill != "" {
		printKeyValue(w, "Usable till", formatTime(offer.CatchWindow.UsableTill))
	}
	if len(offer.Price) > 0 {
		printKeyValue(w, "Price", string(offer.Price))
	}
}

func printOfferKey(w io.Writer, key v3.OfferKey) {
	printKeyValue(w, "Catch date", key.CatchDate)
	printKeyValue(w, "Catch slot", key.CatchTimeslotID)
	printKeyValue(w, "Drop date", key.DropDate)
	printKeyValue(w, "Drop slot", key.DropTimeslotID)
}
