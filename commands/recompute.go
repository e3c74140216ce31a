package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/pocketbase/pocketbase"
	"github.com/spf13/cobra"

	"begroting/collections"
	"begroting/estimating"
	"begroting/services"
)

// NewRecomputeCommand returns the "recompute" command. It reprices every
// line and rebuilds all stored totals, either for one estimate (--estimate)
// or for the whole database.
func NewRecomputeCommand(app *pocketbase.PocketBase, eng *estimating.Engine) *cobra.Command {
	var estimateID string

	cmd := &cobra.Command{
		Use:          "recompute",
		Short:        "Recompute stored estimate totals",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			collections.Setup(app)
			out := cmd.OutOrStdout()

			if estimateID != "" {
				change, err := eng.Recompute(cmd.Context(), estimateID)
				if err != nil {
					return err
				}
				printEstimate(out, change.Tree.Estimate)
				return nil
			}

			n, err := eng.RecomputeAll(cmd.Context())
			if err != nil {
				fmt.Fprintf(out, "%s recomputed %d estimate(s) before failing\n", color.RedString("✗"), n)
				return err
			}
			fmt.Fprintf(out, "%s recomputed %d estimate(s)\n", color.GreenString("✓"), n)
			return nil
		},
	}
	cmd.Flags().StringVar(&estimateID, "estimate", "", "recompute a single estimate by id")

	return cmd
}

func printEstimate(out io.Writer, est *estimating.Estimate) {
	m := est.Markups()
	fmt.Fprintf(out, "%s %s %s\n",
		color.GreenString("✓"),
		color.New(color.Bold).Sprint(est.Name),
		color.MagentaString("v%d", est.Version))
	fmt.Fprintf(out, "  subtotal        %s\n", services.FormatEUR(est.Costs().Subtotal))
	fmt.Fprintf(out, "  total excl. VAT %s\n", services.FormatEUR(m.TotalExclVAT))
	fmt.Fprintf(out, "  total incl. VAT %s\n", services.FormatEUR(m.TotalInclVAT))
}
