package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"jasper-go/internal/model"
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printResource(r *model.Resource) {
	tw := newTabWriter(os.Stdout)
	fmt.Fprintf(tw, "ID:\t%s\n", r.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", r.Title)
	if r.Description != "" {
		fmt.Fprintf(tw, "Description:\t%s\n", r.Description)
	}
	fmt.Fprintf(tw, "Class:\t%s\n", r.Class)
	if r.ContentHash != "" {
		fmt.Fprintf(tw, "Content hash:\t%s\n", r.ContentHash)
	}
	fmt.Fprintf(tw, "Accessible:\t%t (%s)\n", r.Accessible, r.VerificationStatus)
	fmt.Fprintf(tw, "Created:\t%s\n", formatTime(r.CreatedAt))
	fmt.Fprintf(tw, "Modified:\t%s\n", formatTime(r.ModifiedAt))
	if r.LastAccessedAt != nil {
		fmt.Fprintf(tw, "Accessed:\t%s\n", formatTime(*r.LastAccessedAt))
	}
	if len(r.Tags) > 0 {
		fmt.Fprintf(tw, "Tags:\t%s\n", strings.Join(r.Tags, ", "))
	}
	tw.Flush()

	if len(r.Properties) > 0 {
		fmt.Println("\nProperties:")
		tw = newTabWriter(os.Stdout)
		for _, p := range r.Properties {
			fmt.Fprintf(tw, "  %s\t%s\t(%s)\n", p.Key, p.Value, p.Value.Type())
		}
		tw.Flush()
	}

	fmt.Println("\nLocations:")
	tw = newTabWriter(os.Stdout)
	for _, l := range r.Locations {
		marker := " "
		if l.IsPrimary {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s %s\t%s\t%s\t%s\n", marker, l.ID, l.Type, l.Value, accessLabel(l.Accessible))
	}
	tw.Flush()
}

func printResourceList(resources []*model.Resource) {
	tw := newTabWriter(os.Stdout)
	fmt.Fprintln(tw, "ID\tCLASS\tTITLE\tTAGS\tMODIFIED")
	for _, r := range resources {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Class, r.Title, strings.Join(r.Tags, ","), formatTime(r.ModifiedAt))
	}
	tw.Flush()
}

func accessLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "unreachable"
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

// parseKeyValues splits repeated KEY=VALUE flags.
func parseKeyValues(flag string, pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("--%s %q: expected KEY=VALUE", flag, p)
		}
		out[k] = v
	}
	return out, nil
}

// parseProperties turns KEY=VALUE flags into typed values, inferring the type
// from the text.
func parseProperties(pairs []string) (map[string]model.PropertyValue, error) {
	kv, err := parseKeyValues("prop", pairs)
	if err != nil || kv == nil {
		return nil, err
	}
	out := make(map[string]model.PropertyValue, len(kv))
	for k, v := range kv {
		out[k] = model.InferPropertyValue(v)
	}
	return out, nil
}
