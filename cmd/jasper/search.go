package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"jasper-go/internal/app"
	"jasper-go/internal/model"
)

var searchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Search resources by text, tags and class",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := queryFromFlags(cmd.Flags())
		if err != nil {
			return err
		}
		if len(args) == 1 {
			q.Text = args[0]
		}

		return withApp(cmd, "search", func(ctx context.Context, a *app.JasperApp) error {
			page, err := a.Manager().Search(ctx, q)
			if err != nil {
				return err
			}
			printResourceList(page.Resources)
			if page.Total > len(page.Resources) {
				fmt.Printf("\n%d-%d of %d\n", page.Offset+1, page.Offset+len(page.Resources), page.Total)
			}
			return nil
		})
	},
}

// addQueryFlags registers the resource filter flags shared by search and export.
func addQueryFlags(fs *pflag.FlagSet) {
	fs.StringSliceP("tag", "t", nil, "filter by tag (repeatable)")
	fs.Bool("all", false, "require every tag instead of any")
	fs.String("class", "", "external, internal, external-archived or internal-archived")
	fs.String("sort", "modified", "modified, created, title or accessed")
	fs.Bool("asc", false, "sort ascending")
	fs.Int("limit", 0, "maximum number of results (0 for all)")
	fs.Int("offset", 0, "number of results to skip")
}

func queryFromFlags(fs *pflag.FlagSet) (model.Query, error) {
	tags, _ := fs.GetStringSlice("tag")
	all, _ := fs.GetBool("all")
	class, _ := fs.GetString("class")
	sort, _ := fs.GetString("sort")
	asc, _ := fs.GetBool("asc")
	limit, _ := fs.GetInt("limit")
	offset, _ := fs.GetInt("offset")

	q := model.Query{
		Tags:      tags,
		Logic:     model.TagLogicAny,
		Class:     model.ResourceClass(class),
		Sort:      model.SortField(sort),
		Ascending: asc,
		Limit:     limit,
		Offset:    offset,
	}
	if all {
		q.Logic = model.TagLogicAll
	}
	return q, q.Validate()
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Autocomplete tags, property keys and property values",
}

var suggestTagsCmd = &cobra.Command{
	Use:   "tags [prefix]",
	Short: "Suggest tags by usage",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resourceID, _ := cmd.Flags().GetString("for")
		limit, _ := cmd.Flags().GetInt("limit")
		return withApp(cmd, "suggest", func(ctx context.Context, a *app.JasperApp) error {
			out, err := a.Manager().SuggestTags(ctx, resourceID, firstArg(args), limit)
			if err != nil {
				return err
			}
			printLines(out)
			return nil
		})
	},
}

var suggestKeysCmd = &cobra.Command{
	Use:   "keys [prefix]",
	Short: "Suggest property keys by usage",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resourceID, _ := cmd.Flags().GetString("for")
		limit, _ := cmd.Flags().GetInt("limit")
		return withApp(cmd, "suggest", func(ctx context.Context, a *app.JasperApp) error {
			out, err := a.Manager().SuggestPropertyKeys(ctx, resourceID, firstArg(args), limit)
			if err != nil {
				return err
			}
			printLines(out)
			return nil
		})
	},
}

var suggestValuesCmd = &cobra.Command{
	Use:   "values <key> [prefix]",
	Short: "Suggest values already used for a property key",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withApp(cmd, "suggest", func(ctx context.Context, a *app.JasperApp) error {
			values, err := a.Manager().SuggestPropertyValues(ctx, args[0], firstArg(args[1:]), limit)
			if err != nil {
				return err
			}
			tw := newTabWriter(os.Stdout)
			for _, v := range values {
				fmt.Fprintf(tw, "%s\t(%s)\n", v, v.Type())
			}
			return tw.Flush()
		})
	},
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func printLines(lines []string) {
	for _, l := range lines {
		fmt.Println(l)
	}
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List every tag with its usage count",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "tags", func(ctx context.Context, a *app.JasperApp) error {
			tags, err := a.Manager().TagIndex().Tags(ctx)
			if err != nil {
				return err
			}

			tw := newTabWriter(os.Stdout)
			fmt.Fprintln(tw, "TAG\tCOUNT\tLAST USED")
			for _, t := range tags {
				lastUsed := "-"
				if t.LastUsed != nil {
					lastUsed = formatTime(*t.LastUsed)
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\n", t.Name, t.UsageCount, lastUsed)
			}
			return tw.Flush()
		})
	},
}

var tagsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete tags no resource uses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "tags-prune", func(ctx context.Context, a *app.JasperApp) error {
			n, err := a.Manager().TagIndex().Prune(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Pruned %d unused tags\n", n)
			return nil
		})
	},
}

func init() {
	addQueryFlags(searchCmd.Flags())

	for _, c := range []*cobra.Command{suggestTagsCmd, suggestKeysCmd, suggestValuesCmd} {
		c.Flags().Int("limit", 10, "maximum number of suggestions")
		suggestCmd.AddCommand(c)
	}
	suggestTagsCmd.Flags().String("for", "", "exclude tags already on this resource")
	suggestKeysCmd.Flags().String("for", "", "exclude keys already on this resource")

	tagsCmd.AddCommand(tagsPruneCmd)
}
