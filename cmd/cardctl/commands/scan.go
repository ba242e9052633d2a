package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cardtrack/pkg/checklist"
	"cardtrack/pkg/match"
	"cardtrack/pkg/ocr"
	"cardtrack/pkg/scan"
)

func scanCmd() *cobra.Command {
	var limit int
	var lang string
	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "Run the scan pipeline on one photo and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			img, err := scan.Decode(raw)
			if err != nil {
				return err
			}

			entries := []match.Entry{}
			if gdb, err := openDB(); err == nil {
				if snap, err := checklist.Snapshot(gdb); err == nil {
					entries = snap
				}
			}

			res, err := scan.Scan(img, &ocr.Tesseract{Lang: lang}, entries, limit)
			if err != nil {
				return err
			}
			fmt.Printf("crop_confidence=%.2f ocr_confidence=%.2f overall=%.2f\n",
				res.CropConfidence, res.OCRConfidence, res.Confidence)
			out, _ := json.MarshalIndent(map[string]interface{}{
				"extracted":  res.Fields,
				"candidates": res.Candidates,
			}, "", "  ")
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", match.DefaultLimit, "max candidates to print")
	cmd.Flags().StringVar(&lang, "lang", "eng", "tesseract language")
	return cmd
}
