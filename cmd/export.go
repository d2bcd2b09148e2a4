package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ordertrack/internal/tracker"
)

var exportDir string

// exportRow is the CSV shape of a classified order. Flags are written as
// yes/no to match the historical report files downstream tooling consumes.
type exportRow struct {
	OrderKey          string `csv:"order_key"`
	Prefix            string `csv:"prefix"`
	RefNumber         string `csv:"ref_number"`
	PaperworkReceived string `csv:"paperwork_received"`
	ProductReceived   string `csv:"product_received"`
	ActorsSeen        string `csv:"users_seen"`
	StagesSeen        string `csv:"stages_seen"`
	LatestObservedAt  string `csv:"latest_added_time"`
	EntryCount        int    `csv:"rows_for_order"`
	OrderType         string `csv:"order_type"`
	PartialType       string `csv:"partial_type"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write dashboard JSON and classified-order CSV files",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		svc, _, err := buildService()
		if err != nil {
			return err
		}

		snap, err := svc.GetClassifiedOrders(ctx, "")
		if err != nil {
			return eris.Wrap(err, "export")
		}

		if err := os.MkdirAll(exportDir, 0o755); err != nil {
			return eris.Wrapf(err, "export: create dir %s", exportDir)
		}

		jsonPath := filepath.Join(exportDir, "dashboard_data.json")
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return eris.Wrap(err, "export: marshal dashboard data")
		}
		if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
			return eris.Wrapf(err, "export: write %s", jsonPath)
		}

		var complete, partial []exportRow
		for _, o := range snap.Orders {
			row := toExportRow(o)
			if o.OrderType == tracker.OrderTypeComplete {
				complete = append(complete, row)
			} else if o.OrderType == tracker.OrderTypePartial {
				partial = append(partial, row)
			}
		}

		completePath := filepath.Join(exportDir, "orders_complete_both_received.csv")
		if err := writeCSV(completePath, complete); err != nil {
			return err
		}
		partialPath := filepath.Join(exportDir, "orders_partial_one_received.csv")
		if err := writeCSV(partialPath, partial); err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.String("dir", exportDir),
			zap.Int("complete", len(complete)),
			zap.Int("partial", len(partial)),
		)
		return nil
	},
}

func toExportRow(o tracker.ClassifiedOrder) exportRow {
	return exportRow{
		OrderKey:          o.OrderKey,
		Prefix:            o.Prefix,
		RefNumber:         o.RefNumber,
		PaperworkReceived: yesNo(o.PaperworkReceived),
		ProductReceived:   yesNo(o.ProductReceived),
		ActorsSeen:        o.ActorsSeen,
		StagesSeen:        o.StagesSeen,
		LatestObservedAt:  o.LatestObservedAt,
		EntryCount:        o.EntryCount,
		OrderType:         string(o.OrderType),
		PartialType:       string(o.PartialType),
	}
}

func writeCSV(path string, rows []exportRow) error {
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return eris.Wrapf(err, "export: marshal %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}
	return nil
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "out", "export", "output directory")
	rootCmd.AddCommand(exportCmd)
}
