package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-dispatcher/app/entity"
)

var sendCmd = &cobra.Command{
	Use:   "send [job_type] [record_id]",
	Short: "Dispatch one record now",
	Long:  "Re-check one record's eligibility and send its email if it is still owed.",
	Args:  cobra.ExactArgs(2),
	RunE:  runSend,
}

// init registers the send command.
func init() {
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	jobType, recordID, err := parseJobArgs(args)
	if err != nil {
		return err
	}

	ctx, stop := exitOnSignal(cmd.Context())
	defer stop()

	d, err := loadDeps(ctx, depOptions{})
	if err != nil {
		return err
	}
	defer d.Close()

	outcome, err := d.dispatcher.RunOne(ctx, jobType, recordID)
	if err != nil {
		return err
	}

	switch outcome.Status {
	case entity.OutcomeSent:
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d: sent\n", jobType, recordID)
	case entity.OutcomeSkipped:
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d: skipped (%s)\n", jobType, recordID, outcome.SkipReason)
	default:
		return fmt.Errorf("%s %d: %s failure: %w", jobType, recordID, outcome.ErrorKind, outcome.Err)
	}
	return nil
}

func parseJobArgs(args []string) (entity.JobType, int64, error) {
	jobType, err := entity.ParseJobType(args[0])
	if err != nil {
		return "", 0, err
	}
	recordID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || recordID <= 0 {
		return "", 0, fmt.Errorf("record id must be a positive integer, got %q", args[1])
	}
	return jobType, recordID, nil
}
