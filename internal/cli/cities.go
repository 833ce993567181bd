package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	v3 "github.com/matzehuels/atalogics/pkg/atalogics/v3"
)

// citiesCommand creates the cities command.
func (c *CLI) citiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "cities CITY_KEY",
		Short:   "Show the delivery areas of a city",
		Example: `  atalogics cities SALZBURG`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.v3Client(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			spinner := c.spin(ctx, "Fetching delivery areas...")
			resp, err := client.DeliveryAreas(ctx, args[0])
			spinner.Stop()
			if err != nil {
				return err
			}
			if c.jsonOutput || !resp.OK() {
				c.printResponse(resp)
				return nil
			}

			var result v3.DeliveryAreasResult
			if err := resp.Decode(&result); err != nil {
				return err
			}
			printStatus(c.out, resp.Code, resp.Cached)
			key := result.Key
			if key == "" {
				key = args[0]
			}
			printKeyValue(c.out, "City", key)
			printKeyValue(c.out, "Areas", strconv.Itoa(len(result.DeliveryAreas)))
			for _, area := range result.DeliveryAreas {
				printJSON(c.out, area)
			}
			return nil
		},
	}
}
