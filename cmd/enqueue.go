package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-dispatcher/app/queue"
	"github.com/vibast-solutions/ms-go-dispatcher/config"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue [job_type] [record_id]",
	Short: "Queue one record for the trigger consumer",
	Long:  "Publish a dispatch.requested event on the trigger stream so a running consumer dispatches the record.",
	Args:  cobra.ExactArgs(2),
	RunE:  runEnqueue,
}

// init registers the enqueue command.
func init() {
	rootCmd.AddCommand(enqueueCmd)
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	jobType, recordID, err := parseJobArgs(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	rdb, err := openRedis(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	id, err := queue.NewTriggerProducer(rdb).Publish(cmd.Context(), queue.TriggerMessage{
		Event:    queue.EventDispatchRequested,
		JobType:  jobType,
		RecordID: recordID,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "queued %s %d as %s\n", jobType, recordID, id)
	return nil
}
