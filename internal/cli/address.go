package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	v2 "github.com/matzehuels/atalogics/pkg/atalogics/v2"
	"github.com/matzehuels/atalogics/pkg/errors"
)

// addressCommand creates the address command.
func (c *CLI) addressCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Check addresses against the delivery areas",
	}

	cmd.AddCommand(c.addressCheckCommand())
	cmd.AddCommand(c.addressMultiCommand())

	return cmd
}

// addressFlags holds the flags describing one address.
type addressFlags struct {
	street     string
	number     string
	postalCode string
	city       string
	lat        float64
	lng        float64
}

func (f *addressFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.street, "street", "", "street name")
	cmd.Flags().StringVar(&f.number, "number", "", "house number")
	cmd.Flags().StringVar(&f.postalCode, "postal-code", "", "postal code")
	cmd.Flags().StringVar(&f.city, "city", "", "city")
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "latitude (optional, requires --lng)")
	cmd.Flags().Float64Var(&f.lng, "lng", 0, "longitude (optional, requires --lat)")
	cmd.MarkFlagsRequiredTogether("lat", "lng")
	_ = cmd.MarkFlagRequired("street")
	_ = cmd.MarkFlagRequired("city")
}

// address builds the address; the position is set only when --lat and
// --lng were given.
func (f *addressFlags) address(cmd *cobra.Command) v2.Address {
	addr := v2.Address{
		Street:     f.street,
		Number:     f.number,
		PostalCode: f.postalCode,
		City:       f.city,
	}
	if cmd.Flags().Changed("lat") {
		addr.Position = &v2.Position{Lat: f.lat, Lng: f.lng}
	}
	return addr
}

// addressCheckCommand creates the "address check" subcommand.
func (c *CLI) addressCheckCommand() *cobra.Command {
	var (
		flags   addressFlags
		inRange bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether an address exists and is deliverable",
		Example: `  atalogics address check --street "Main St" --number 5 --postal-code 5020 --city Salzburg
  atalogics address check --street "Main St" --city Salzburg --in-range`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.v2Client(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			addr := flags.address(cmd)
			spinner := c.spin(ctx, "Checking address...")

			if inRange {
				ok, err := client.InDeliveryRange(ctx, addr)
				spinner.Stop()
				if err != nil {
					return err
				}
				if ok {
					printSuccess(c.out, "%s is in the delivery range", addr.City)
				} else {
					printWarning(c.out, "%s is outside the delivery range", addr.City)
				}
				return nil
			}

			resp, err := client.AddressCheck(ctx, addr)
			spinner.Stop()
			if err != nil {
				return err
			}
			if c.jsonOutput || !resp.OK() {
				c.printResponse(resp)
				return nil
			}

			var result v2.AddressCheckResult
			if err := resp.Decode(&result); err != nil {
				return err
			}
			printCheckResult(c.out, result)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&inRange, "in-range", false, "only report whether the address is in the delivery range")
	return cmd
}

// addressMultiCommand creates the "address multi" subcommand.
func (c *CLI) addressMultiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "multi FILE",
		Short: "Check several addresses at once",
		Long: `Check several addresses at once. FILE holds a JSON array of addresses
with the fields street, number, postal_code, city and optionally lat and
lng. Use "-" to read from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addrs, err := readAddresses(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := c.v2Client(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			p := newProgress(c.Logger)
			spinner := c.spin(ctx, fmt.Sprintf("Checking %d addresses...", len(addrs)))
			resp, err := client.MultiAddressCheck(ctx, addrs)
			spinner.Stop()
			if err != nil {
				return err
			}
			p.done(fmt.Sprintf("Checked %d addresses", len(addrs)))

			c.printResponse(resp)
			return nil
		},
	}
}

func printCheckResult(w io.Writer, r v2.AddressCheckResult) {
	switch {
	case r.Success && r.Existent:
		printSuccess(w, "Address exists and is deliverable")
	case r.Existent:
		printWarning(w, "Address exists but is not deliverable")
	default:
		printWarning(w, "Address not found")
	}
	if r.SameArea {
		printDetail(w, "same delivery area")
	}
	for _, msg := range r.Error {
		printDetail(w, "%s", msg)
	}
}

// readAddresses decodes a JSON array of addresses from path, or from stdin
// when path is "-".
func readAddresses(stdin io.Reader, path string) ([]v2.Address, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open addresses: %w", err)
		}
		defer f.Close()
		r = f
	}

	var addrs []v2.Address
	if err := json.NewDecoder(r).Decode(&addrs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode addresses")
	}
	if len(addrs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no addresses given")
	}
	return addrs, nil
}
