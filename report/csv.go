package report

import (
	"fmt"
	"io"

	"github.com/dargueta/scandisk/check"
	"github.com/dargueta/scandisk/volume"
	"github.com/gocarina/gocsv"
)

// csvRow is one finding. Columns that don't apply to a kind of finding are
// left empty.
type csvRow struct {
	Kind         string `csv:"kind"`
	Cluster      string `csv:"cluster"`
	Length       string `csv:"length"`
	Path         string `csv:"path"`
	Name         string `csv:"name"`
	DeclaredSize string `csv:"declared_size"`
	ActualSize   string `csv:"actual_size"`
	Message      string `csv:"message"`
}

// CSVReporter collects findings and writes them as a single CSV table on
// Close, one row per finding. Unreferenced clusters get a row each.
type CSVReporter struct {
	out  io.Writer
	rows []*csvRow
}

func NewCSVReporter(out io.Writer) *CSVReporter {
	return &CSVReporter{out: out, rows: []*csvRow{}}
}

func (r *CSVReporter) Unreferenced(clusters []volume.ClusterID) {
	for _, cluster := range clusters {
		r.rows = append(r.rows, &csvRow{Kind: "unreferenced", Cluster: fmt.Sprint(cluster)})
	}
}

func (r *CSVReporter) LostFile(lost check.LostFile) {
	r.rows = append(r.rows, &csvRow{
		Kind:    "lost_file",
		Cluster: fmt.Sprint(lost.Cluster),
		Length:  fmt.Sprint(lost.Length),
		Path:    "/",
		Name:    lost.Name,
	})
}

func (r *CSVReporter) LengthMismatch(mismatch check.Mismatch) {
	r.rows = append(r.rows, &csvRow{
		Kind:         "length_mismatch",
		Cluster:      fmt.Sprint(mismatch.StartCluster),
		Length:       fmt.Sprint(mismatch.ChainLength),
		Path:         mismatch.Path,
		Name:         mismatch.Name,
		DeclaredSize: fmt.Sprint(mismatch.DeclaredSize),
		ActualSize:   fmt.Sprint(mismatch.ActualSize),
	})
}

func (r *CSVReporter) Problem(err error) {
	r.rows = append(r.rows, &csvRow{Kind: "problem", Message: err.Error()})
}

func (r *CSVReporter) Close() error {
	return gocsv.Marshal(r.rows, r.out)
}
