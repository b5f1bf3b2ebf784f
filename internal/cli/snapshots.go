package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/estate-toolkit/constants"
	"github.com/joseph-ayodele/estate-toolkit/internal/app"
	"github.com/joseph-ayodele/estate-toolkit/internal/common"
)

var (
	snapshotKind  string
	snapshotLimit int
	snapshotOut   string
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List stored calculation snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := app.Build(cmd.Context(), config, logger, app.Options{Database: true})
		if err != nil {
			return err
		}
		defer deps.Close()

		snaps, err := deps.Calc.ListSnapshots(userContext(cmd.Context()), kindFlag(), snapshotLimit)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), snaps)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write stored snapshots to an XLSX workbook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := app.Build(cmd.Context(), config, logger, app.Options{Database: true})
		if err != nil {
			return err
		}
		defer deps.Close()

		ctx := userContext(cmd.Context())
		data, err := deps.Export.SnapshotsXLSX(ctx, common.UserIDFromContext(ctx), kindFlag(), snapshotLimit)
		if err != nil {
			return err
		}
		if err := os.WriteFile(snapshotOut, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), snapshotOut)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{snapshotsCmd, exportCmd} {
		c.Flags().StringVar(&snapshotKind, "kind", "", "valuation, apportionment, proration or extraction (default all)")
		c.Flags().IntVar(&snapshotLimit, "limit", 0, "maximum rows")
		RootCmd.AddCommand(c)
	}
	exportCmd.Flags().StringVar(&snapshotOut, "out", "snapshots.xlsx", "output XLSX path")
}

func kindFlag() constants.SnapshotKind {
	return constants.SnapshotKind(strings.ToUpper(strings.TrimSpace(snapshotKind)))
}
