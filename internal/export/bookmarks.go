package export

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"sort"

	"jasper-go/internal/model"
)

// UntaggedFolder holds resources without tags in the bookmark file.
const UntaggedFolder = "Untagged"

// writeBookmarks writes the Netscape bookmark file format browsers import.
// Each tag becomes a folder; a resource with several tags appears in each.
func writeBookmarks(w io.Writer, resources []*model.Resource, opts Options) error {
	folders := make(map[string][]*model.Resource)
	var untagged []*model.Resource
	for _, r := range resources {
		if len(r.Tags) == 0 {
			untagged = append(untagged, r)
			continue
		}
		for _, t := range r.Tags {
			folders[t] = append(folders[t], r)
		}
	}
	names := make([]string, 0, len(folders))
	for name := range folders {
		names = append(names, name)
	}
	sort.Strings(names)

	stamp := opts.GeneratedAt.Unix()
	bw := bufio.NewWriter(w)
	fmt.Fprint(bw, "<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	fmt.Fprint(bw, "<META HTTP-EQUIV=\"Content-Type\" CONTENT=\"text/html; charset=UTF-8\">\n")
	fmt.Fprint(bw, "<TITLE>Bookmarks</TITLE>\n<H1>Bookmarks</H1>\n<DL><p>\n")

	writeFolder := func(name string, items []*model.Resource) {
		fmt.Fprintf(bw, "    <DT><H3 ADD_DATE=\"%d\" LAST_MODIFIED=\"%d\">%s</H3>\n", stamp, stamp, html.EscapeString(name))
		fmt.Fprint(bw, "    <DL><p>\n")
		for _, r := range items {
			href := bookmarkHref(r, opts)
			if href == "" {
				continue
			}
			fmt.Fprintf(bw, "        <DT><A HREF=\"%s\" ADD_DATE=\"%d\">%s</A>\n",
				html.EscapeString(href), r.CreatedAt.Unix(), html.EscapeString(r.Title))
			if r.Description != "" {
				fmt.Fprintf(bw, "        <DD>%s\n", html.EscapeString(r.Description))
			}
		}
		fmt.Fprint(bw, "    </DL><p>\n")
	}
	for _, name := range names {
		writeFolder(name, folders[name])
	}
	if len(untagged) > 0 {
		writeFolder(UntaggedFolder, untagged)
	}
	fmt.Fprint(bw, "</DL><p>\n")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing bookmarks: %w", err)
	}
	return nil
}

// bookmarkHref picks a browsable link: the primary location, with archival
// addresses and file paths turned into URLs.
func bookmarkHref(r *model.Resource, opts Options) string {
	loc := r.PrimaryLocation()
	if loc == nil {
		return ""
	}
	switch loc.Type {
	case model.LocationArchival:
		return opts.link(loc.Value)
	case model.LocationFilePath:
		return "file://" + loc.Value
	}
	return loc.Value
}
