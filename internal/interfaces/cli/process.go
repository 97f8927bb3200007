package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/application/lotprocessing"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/types/lot"
)

// NewProcessCommand creates `lotproc process`: one description in, one
// structured result out. Intended for spot checks and shell scripting.
func NewProcessCommand() *cobra.Command {
	var lotID string

	cmd := &cobra.Command{
		Use:   "process <description>",
		Short: "Process a single lot description and print the result as JSON",
		Example: "  lotproc process \"Bronze et cuivre, H 50 × L 40 × P 30 cm\"\n" +
			"  lotproc process --lot-id 117 \"Paire de vases, H 97 cm\"",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcessOne(cmd, lotID, args[0])
		},
	}
	cmd.Flags().StringVar(&lotID, "lot-id", "cli", "lot identifier carried into the result")
	return cmd
}

func runProcessOne(cmd *cobra.Command, lotID, text string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	proc := lotprocessing.NewProcessor(cliCtx.Config.Rules, nil, cliCtx.Logger)
	result, err := proc.Process(lot.LotDescription{LotID: lotID, Text: text})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
