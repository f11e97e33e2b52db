package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"jasper-go/internal/app"
	"jasper-go/internal/jasper"
)

var archiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Upload a resource to the permanent archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		primary, _ := cmd.Flags().GetBool("primary")
		pairs, _ := cmd.Flags().GetStringArray("tag")
		tags, err := parseKeyValues("tag", pairs)
		if err != nil {
			return err
		}

		return withApp(cmd, "archive", func(ctx context.Context, a *app.JasperApp) error {
			if err := a.CheckTransport(ctx); err != nil {
				return err
			}
			receipt, err := a.Manager().Archive(ctx, args[0], jasper.ArchiveOptions{Tags: tags, Primary: primary})
			if err != nil {
				return err
			}

			tw := newTabWriter(os.Stdout)
			fmt.Fprintf(tw, "Address:\t%s\n", receipt.Address)
			if receipt.Link != "" {
				fmt.Fprintf(tw, "Link:\t%s\n", receipt.Link)
			}
			fmt.Fprintf(tw, "Size:\t%s\n", humanize.IBytes(uint64(receipt.Size)))
			fmt.Fprintf(tw, "Cost:\t%.6f\n", receipt.Cost)
			fmt.Fprintf(tw, "Class:\t%s\n", receipt.Class)
			tw.Flush()
			if receipt.Duplicate != nil {
				fmt.Printf("Warning: possible duplicate, %s\n", receipt.Duplicate)
			}
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "List the archival copies of a resource",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "history", func(ctx context.Context, a *app.JasperApp) error {
			copies, err := a.Manager().ArchivalHistory(ctx, args[0])
			if err != nil {
				return err
			}
			if len(copies) == 0 {
				fmt.Println("No archival copies")
				return nil
			}

			tw := newTabWriter(os.Stdout)
			fmt.Fprintln(tw, "ARCHIVED\tADDRESS\tSIZE\tCOST\tPRIMARY")
			for _, c := range copies {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.6f\t%t\n", formatTime(c.ArchivedAt), c.Address, humanize.IBytes(uint64(c.Size)), c.Cost, c.IsPrimary)
			}
			return tw.Flush()
		})
	},
}

var estimateCmd = &cobra.Command{
	Use:   "estimate <id>...",
	Short: "Estimate the cost of archiving resources",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "estimate", func(ctx context.Context, a *app.JasperApp) error {
			est, err := a.Manager().EstimateArchival(ctx, args)
			if err != nil {
				return err
			}

			tw := newTabWriter(os.Stdout)
			fmt.Fprintln(tw, "ID\tTITLE\tSIZE\tCOST")
			for _, it := range est.Items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.6f\n", it.ResourceID, it.Title, humanize.IBytes(uint64(it.Size)), it.Cost)
			}
			fmt.Fprintf(tw, "TOTAL (%d)\t\t%s\t%.6f\n", est.Count, humanize.IBytes(uint64(est.TotalBytes)), est.TotalCost)
			return tw.Flush()
		})
	},
}

func init() {
	archiveCmd.Flags().Bool("primary", false, "make the archival copy the primary location")
	archiveCmd.Flags().StringArray("tag", nil, "extra upload tag KEY=VALUE (repeatable)")
}
