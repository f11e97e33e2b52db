package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"jasper-go/internal/app"
	"jasper-go/internal/jasper"
	"jasper-go/internal/model"
)

var addCmd = &cobra.Command{
	Use:   "add <url|path>",
	Short: "Add a web link, a local file or a directory of files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		meta, err := metadataFromFlags(cmd)
		if err != nil {
			return err
		}
		target := args[0]

		return withApp(cmd, "add", func(ctx context.Context, a *app.JasperApp) error {
			mgr := a.Manager()

			if isURL(target) {
				res, err := mgr.AddExternal(ctx, target, meta)
				if err != nil {
					return err
				}
				fmt.Printf("Added %s\n", res.ID)
				return nil
			}

			info, err := os.Stat(target)
			if err != nil {
				return fmt.Errorf("stat %s: %w", target, err)
			}
			if !info.IsDir() {
				res, err := mgr.AddInternal(ctx, target, meta)
				if err != nil {
					return err
				}
				fmt.Printf("Added %s\n", res.ID)
				return nil
			}

			recursive, _ := cmd.Flags().GetBool("recursive")
			result, err := mgr.AddDirectory(ctx, target, meta, recursive)
			if err != nil {
				return err
			}
			for path, reason := range result.Skipped {
				fmt.Printf("Skipped %s: %v\n", path, reason)
			}
			fmt.Printf("Added %d resources, skipped %d\n", len(result.Added), len(result.Skipped))
			return nil
		})
	},
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func metadataFromFlags(cmd *cobra.Command) (jasper.Metadata, error) {
	title, _ := cmd.Flags().GetString("title")
	description, _ := cmd.Flags().GetString("description")
	tags, _ := cmd.Flags().GetStringSlice("tag")
	props, _ := cmd.Flags().GetStringArray("prop")
	allowDup, _ := cmd.Flags().GetBool("allow-duplicate")

	properties, err := parseProperties(props)
	if err != nil {
		return jasper.Metadata{}, err
	}
	return jasper.Metadata{
		Title:          title,
		Description:    description,
		Tags:           tags,
		Properties:     properties,
		AllowDuplicate: allowDup,
	}, nil
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a resource with its locations, tags and properties",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "show", func(ctx context.Context, a *app.JasperApp) error {
			res, err := a.Manager().Get(ctx, args[0])
			if err != nil {
				return err
			}
			if err := a.Manager().RecordAccess(ctx, res.ID); err != nil {
				return err
			}
			printResource(res)
			return nil
		})
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change the title or description of a resource",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var update model.ResourceUpdate
		if cmd.Flags().Changed("title") {
			title, _ := cmd.Flags().GetString("title")
			update.Title = &title
		}
		if cmd.Flags().Changed("description") {
			description, _ := cmd.Flags().GetString("description")
			update.Description = &description
		}
		if update.Empty() {
			return errors.New("nothing to change: pass --title or --description")
		}

		return withApp(cmd, "edit", func(ctx context.Context, a *app.JasperApp) error {
			res, err := a.Manager().Update(ctx, args[0], update)
			if err != nil {
				return err
			}
			printResource(res)
			return nil
		})
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>...",
	Short: "Delete resources from the library",
	Long:  "Delete resources from the library. Local files and archival copies are left in place.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "rm", func(ctx context.Context, a *app.JasperApp) error {
			for _, id := range args {
				if err := a.Manager().Delete(ctx, id); err != nil {
					return err
				}
				fmt.Printf("Deleted %s\n", id)
			}
			return nil
		})
	},
}

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Add or remove tags on a resource",
}

var tagAddCmd = &cobra.Command{
	Use:   "add <id> <tag>...",
	Short: "Tag a resource",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "tag", func(ctx context.Context, a *app.JasperApp) error {
			for _, t := range args[1:] {
				if err := a.Manager().Tag(ctx, args[0], t); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var tagRmCmd = &cobra.Command{
	Use:   "rm <id> <tag>...",
	Short: "Remove tags from a resource",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "untag", func(ctx context.Context, a *app.JasperApp) error {
			for _, t := range args[1:] {
				if err := a.Manager().Untag(ctx, args[0], t); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var propCmd = &cobra.Command{
	Use:   "prop",
	Short: "Set or remove typed properties on a resource",
}

var propSetCmd = &cobra.Command{
	Use:   "set <id> <key> <value>",
	Short: "Set a property",
	Long:  "Set a property. Without --type the type is inferred: numbers, true/false and YYYY-MM-DD dates are recognized.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, _ := cmd.Flags().GetString("type")
		value := model.InferPropertyValue(args[2])
		if typ != "" {
			var err error
			value, err = model.ParsePropertyValue(model.PropertyType(typ), args[2])
			if err != nil {
				return err
			}
		}

		return withApp(cmd, "prop-set", func(ctx context.Context, a *app.JasperApp) error {
			if err := a.Manager().SetProperty(ctx, args[0], args[1], value); err != nil {
				return err
			}
			fmt.Printf("%s = %s (%s)\n", args[1], value, value.Type())
			return nil
		})
	},
}

var propRmCmd = &cobra.Command{
	Use:   "rm <id> <key>",
	Short: "Remove a property",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "prop-rm", func(ctx context.Context, a *app.JasperApp) error {
			return a.Manager().RemoveProperty(ctx, args[0], args[1])
		})
	},
}

var locCmd = &cobra.Command{
	Use:   "loc",
	Short: "Manage the locations of a resource",
}

var locAddCmd = &cobra.Command{
	Use:   "add <id> <url|path>",
	Short: "Add a location",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		primary, _ := cmd.Flags().GetBool("primary")
		typ := model.LocationFilePath
		if isURL(args[1]) {
			typ = model.LocationHTTPURL
		}

		return withApp(cmd, "loc-add", func(ctx context.Context, a *app.JasperApp) error {
			loc, err := a.Manager().AddLocation(ctx, args[0], typ, args[1], primary)
			if err != nil {
				return err
			}
			fmt.Printf("Added location %s\n", loc.ID)
			return nil
		})
	},
}

var locRmCmd = &cobra.Command{
	Use:   "rm <id> <location-id>",
	Short: "Remove a location",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "loc-rm", func(ctx context.Context, a *app.JasperApp) error {
			return a.Manager().RemoveLocation(ctx, args[0], args[1])
		})
	},
}

var locPrimaryCmd = &cobra.Command{
	Use:   "primary <id> <location-id>",
	Short: "Make a location the primary one",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "loc-primary", func(ctx context.Context, a *app.JasperApp) error {
			return a.Manager().SetPrimaryLocation(ctx, args[0], args[1])
		})
	},
}

func init() {
	addCmd.Flags().String("title", "", "title (defaults to the file name, front matter or URL)")
	addCmd.Flags().String("description", "", "description")
	addCmd.Flags().StringSliceP("tag", "t", nil, "tag to attach (repeatable)")
	addCmd.Flags().StringArrayP("prop", "p", nil, "property KEY=VALUE (repeatable)")
	addCmd.Flags().Bool("allow-duplicate", false, "add even if the content is already stored")
	addCmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories when adding a directory")

	editCmd.Flags().String("title", "", "new title")
	editCmd.Flags().String("description", "", "new description")

	tagCmd.AddCommand(tagAddCmd)
	tagCmd.AddCommand(tagRmCmd)

	propSetCmd.Flags().String("type", "", "string, number, boolean or date")
	propCmd.AddCommand(propSetCmd)
	propCmd.AddCommand(propRmCmd)

	locAddCmd.Flags().Bool("primary", false, "make the new location primary")
	locCmd.AddCommand(locAddCmd)
	locCmd.AddCommand(locRmCmd)
	locCmd.AddCommand(locPrimaryCmd)
}
