package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ordertrack/internal/extract"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [payload.json]",
	Short: "Append a payload to the event log as if delivered by webhook",
	Long:  "Reads a JSON payload from the given file (or stdin when omitted), appends it to the durable event log, and reports the derived order keys. Useful for backfilling missed deliveries.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var (
			data []byte
			err  error
		)
		if len(args) == 1 {
			data, err = os.ReadFile(args[0])
			if err != nil {
				return eris.Wrapf(err, "ingest: read %s", args[0])
			}
		} else {
			data, err = io.ReadAll(os.Stdin)
			if err != nil {
				return eris.Wrap(err, "ingest: read stdin")
			}
		}

		payload, err := extract.FromJSON(data)
		if err != nil {
			return err
		}

		svc, _, err := buildService()
		if err != nil {
			return err
		}

		result, err := svc.IngestEvent(ctx, payload.AsMap())
		if err != nil {
			return err
		}

		zap.L().Info("event ingested",
			zap.String("event_id", result.EventID),
			zap.Int("accepted_entries", result.AcceptedEntries),
			zap.Strings("order_keys", result.OrderKeys),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(result), "ingest: encode result")
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
