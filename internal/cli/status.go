package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show this device as seen by the fastest server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.fleet.Status(cmd.Context())
			if err != nil {
				return err
			}
			s := res.Data
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Server:                %s (%s)\n", res.TargetName, res.Duration.Round(time.Millisecond))
			fmt.Fprintf(out, "Device:                %s\n", s.DeviceID)
			fmt.Fprintf(out, "Status:                %s\n", s.Status)
			fmt.Fprintf(out, "Approval mode:         %s\n", s.ApprovalMode)
			fmt.Fprintf(out, "Pending notifications: %d\n", s.PendingNotifications)
			if s.LastActiveAt != nil {
				fmt.Fprintf(out, "Last active:           %s\n", s.LastActiveAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}
