package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"jasper-go/internal/app"
	"jasper-go/internal/encryption"
	"jasper-go/internal/export"
	"jasper-go/internal/jasper"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write matching resources to a file in the export directory",
	Long: `Write matching resources to a file in the export directory.

Formats: json, cbor, list, bookmarks, archive-index and database.
json, cbor and archive-index exports can be imported again.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := queryFromFlags(cmd.Flags())
		if err != nil {
			return err
		}
		formatFlag, _ := cmd.Flags().GetString("format")
		compressionFlag, _ := cmd.Flags().GetString("compression")
		encrypt, _ := cmd.Flags().GetBool("encrypt")

		format, err := export.ParseFormat(formatFlag)
		if err != nil {
			return err
		}
		opts := jasper.ExportOptions{Format: format, Encrypt: encrypt}
		if compressionFlag != "" {
			if opts.Compression, err = export.ParseCompression(compressionFlag); err != nil {
				return err
			}
		}

		return withApp(cmd, "export", func(ctx context.Context, a *app.JasperApp) error {
			result, err := a.Export(ctx, q, opts)
			if err != nil {
				return err
			}
			fmt.Printf("Exported %d resources (%s) to %s\n", result.Count, humanize.IBytes(uint64(result.Bytes)), result.Path)
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore resources from an export or an archive index",
	Long: `Restore resources from an export or an archive index.

Compression and encryption are detected from the file. Resources that
already exist are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatFlag, _ := cmd.Flags().GetString("format")
		var opts jasper.ImportOptions
		if formatFlag != "" {
			format, err := export.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			opts.Format = format
		}

		return withApp(cmd, "import", func(ctx context.Context, a *app.JasperApp) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening import: %w", err)
			}
			defer f.Close()

			r := bufio.NewReader(f)
			head, _ := r.Peek(64)
			if encryption.Sniff(head) {
				passphrase, err := readPassword("Passphrase: ")
				if err != nil {
					return err
				}
				opts.Decryptor, err = a.Encryptor().Unlock(passphrase)
				if err != nil {
					return fmt.Errorf("unlocking private key: %w", err)
				}
			}

			result, err := a.Manager().Import(ctx, r, opts)
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d resources from %s, skipped %d already present\n", result.Imported, result.Format, result.Skipped)
			return nil
		})
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify [id]...",
	Short: "Check that resource locations are still reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		archival, _ := cmd.Flags().GetBool("archival")
		concurrency, _ := cmd.Flags().GetInt("concurrency")

		return withApp(cmd, "verify", func(ctx context.Context, a *app.JasperApp) error {
			report, err := a.Manager().Verify(ctx, jasper.VerifyOptions{
				IDs:             args,
				Concurrency:     concurrency,
				IncludeArchival: archival,
			})
			if err != nil {
				return err
			}

			if len(report.Failures) > 0 {
				tw := newTabWriter(os.Stdout)
				fmt.Fprintln(tw, "RESOURCE\tTYPE\tLOCATION\tREASON")
				for _, f := range report.Failures {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.ResourceID, f.Type, f.Value, f.Reason)
				}
				tw.Flush()
				fmt.Println()
			}
			fmt.Printf("Checked %d locations, %d reachable\n", report.Checked, report.Accessible)
			return nil
		})
	},
}

func init() {
	addQueryFlags(exportCmd.Flags())
	exportCmd.Flags().StringP("format", "f", "json", "export format")
	exportCmd.Flags().StringP("compression", "c", "", "none, zstd or lz4 (defaults to the config)")
	exportCmd.Flags().Bool("encrypt", false, "encrypt the file with the public key")

	importCmd.Flags().StringP("format", "f", "", "json, cbor or archive-index (detected when empty)")

	verifyCmd.Flags().Bool("archival", false, "also probe gateway links of archival copies")
	verifyCmd.Flags().Int("concurrency", 8, "locations checked in parallel")
}
