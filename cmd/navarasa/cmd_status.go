package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ayusman/navarasa/internal/store"
)

var statusJSON bool

// statusCmd prints the persisted mental-health record
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last persisted conclusion and recommendation",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the record as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	path, err := cfg.DBPath()
	if err != nil {
		return err
	}
	st, err := store.New(path)
	if err != nil {
		return err
	}
	defer st.Close()

	return printStatus(cmd.Context(), st, cmd.OutOrStdout(), statusJSON)
}

func printStatus(ctx context.Context, st *store.Store, w io.Writer, asJSON bool) error {
	rec, err := st.Status().GetOrDefault(ctx)
	if err != nil {
		return err
	}
	if asJSON {
		return json.NewEncoder(w).Encode(rec)
	}
	_, err = fmt.Fprintf(w, "Conclusion: %s\nRecommendation: %s\n", rec.Conclusion, rec.Recommendation)
	return err
}
