package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	approvalResponse "github.com/xjanova/smschecker-sub001/internal/delivery/http/dto/approval/response"
)

func approvalsCmd(a *app) *cobra.Command {
	var (
		since string
		all   bool
	)
	cmd := &cobra.Command{
		Use:   "approvals",
		Short: "List approvals for this device's notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cursor time.Time
			if since != "" {
				var err error
				if cursor, err = time.Parse(time.RFC3339, since); err != nil {
					return fmt.Errorf("--since must be RFC 3339: %w", err)
				}
			}
			out := cmd.OutOrStdout()

			if !all {
				approvals, err := a.fleet.Approvals(cmd.Context(), cursor)
				if err != nil {
					return err
				}
				printApprovals(out, approvals)
				return nil
			}

			report := a.fleet.ApprovalsEverywhere(cmd.Context(), cursor)
			for _, res := range report.Results {
				fmt.Fprintf(out, "== %s\n", res.TargetName)
				if !res.Success {
					fmt.Fprintf(out, "  FAILED  %v\n", res.Err)
					continue
				}
				printApprovals(out, res.Data)
			}
			if report.SuccessCount == 0 {
				return fmt.Errorf("no server answered")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "Only approvals changed at or after this time (RFC 3339)")
	cmd.Flags().BoolVar(&all, "all", false, "Ask every server instead of the fastest one")
	return cmd
}

func printApprovals(out io.Writer, approvals []approvalResponse.ApprovalResponse) {
	if len(approvals) == 0 {
		fmt.Fprintln(out, "  no approvals")
		return
	}
	for _, ap := range approvals {
		fmt.Fprintf(out, "  %s  %-18s %-10s v%-3d %s\n",
			ap.ID, ap.Status, ap.Confidence, ap.SyncedVersion, ap.MatchedTransactionID)
	}
}
