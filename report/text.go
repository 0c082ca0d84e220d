package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dargueta/scandisk/check"
	"github.com/dargueta/scandisk/volume"
)

// TextReporter prints one line per finding as soon as it arrives:
//
//	Unreferenced: 5 9 10
//	Lost File: 5 1
//	NAME.EXT 100 1536
type TextReporter struct {
	out    io.Writer
	errOut io.Writer
}

func NewTextReporter(out, errOut io.Writer) *TextReporter {
	return &TextReporter{out: out, errOut: errOut}
}

func (r *TextReporter) Unreferenced(clusters []volume.ClusterID) {
	numbers := make([]string, len(clusters))
	for i, cluster := range clusters {
		numbers[i] = fmt.Sprint(cluster)
	}
	fmt.Fprintf(r.out, "Unreferenced: %s\n", strings.Join(numbers, " "))
}

func (r *TextReporter) LostFile(lost check.LostFile) {
	fmt.Fprintf(r.out, "Lost File: %d %d\n", lost.Cluster, lost.Length)
}

func (r *TextReporter) LengthMismatch(mismatch check.Mismatch) {
	fmt.Fprintf(r.out, "%s %d %d\n", mismatch.Name, mismatch.DeclaredSize, mismatch.ActualSize)
}

func (r *TextReporter) Problem(err error) {
	fmt.Fprintln(r.errOut, err)
}

func (r *TextReporter) Close() error {
	return nil
}
