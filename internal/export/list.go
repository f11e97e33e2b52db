package export

import (
	"bufio"
	"fmt"
	"io"

	"jasper-go/internal/model"
)

// writeList writes the primary location value of each resource, one per line.
func writeList(w io.Writer, resources []*model.Resource) error {
	bw := bufio.NewWriter(w)
	for _, r := range resources {
		loc := r.PrimaryLocation()
		if loc == nil {
			continue
		}
		if _, err := fmt.Fprintln(bw, loc.Value); err != nil {
			return fmt.Errorf("writing list: %w", err)
		}
	}
	return bw.Flush()
}
