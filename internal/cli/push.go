package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/xjanova/smschecker-sub001/internal/syncclient"
)

var errNothingDelivered = errors.New("notification was not delivered to any server")

func pushCmd(a *app) *cobra.Command {
	var (
		n       syncclient.Notification
		amount  string
		smsTime string
	)
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Send one bank notification to every configured server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := decimal.NewFromString(amount)
			if err != nil || !parsed.IsPositive() {
				return fmt.Errorf("--amount must be a positive decimal, got %q", amount)
			}
			n.Amount = parsed
			if n.Type != "credit" && n.Type != "debit" {
				return fmt.Errorf("--type must be credit or debit, got %q", n.Type)
			}
			n.SMSTimestamp = time.Now()
			if smsTime != "" {
				if n.SMSTimestamp, err = time.Parse(time.RFC3339, smsTime); err != nil {
					return fmt.Errorf("--sms-time must be RFC 3339: %w", err)
				}
			}

			report := a.fleet.Push(cmd.Context(), n)
			out := cmd.OutOrStdout()
			for _, res := range report.Results {
				if !res.Success {
					fmt.Fprintf(out, "  %-16s FAILED  %v\n", res.TargetName, res.Err)
					continue
				}
				line := fmt.Sprintf("  %-16s %-8s notification %s", res.TargetName, res.Data.Status, res.Data.NotificationID)
				if res.Data.Matched {
					line += " matched " + res.Data.MatchedTransactionID
				}
				if res.Data.ApprovalStatus != "" {
					line += " (" + res.Data.ApprovalStatus + ")"
				}
				fmt.Fprintln(out, line)
			}
			fmt.Fprintf(out, "\n%d delivered, %d failed in %s\n",
				report.SuccessCount, report.FailureCount, report.TotalDuration.Round(time.Millisecond))

			if report.SuccessCount == 0 {
				return errNothingDelivered
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&n.Bank, "bank", "", "Bank code as shown in the SMS")
	cmd.Flags().StringVar(&n.Type, "type", "credit", "Transaction type (credit, debit)")
	cmd.Flags().StringVar(&amount, "amount", "", "Transaction amount")
	cmd.Flags().StringVar(&n.AccountNumber, "account", "", "Account number")
	cmd.Flags().StringVar(&n.SenderOrReceiver, "counterparty", "", "Sender or receiver name")
	cmd.Flags().StringVar(&n.ReferenceNumber, "reference", "", "Bank reference number")
	cmd.Flags().StringVar(&smsTime, "sms-time", "", "When the SMS arrived (RFC 3339, default now)")
	_ = cmd.MarkFlagRequired("bank")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
