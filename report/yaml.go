package report

import (
	"io"

	"github.com/dargueta/scandisk/check"
	"github.com/dargueta/scandisk/volume"
	"gopkg.in/yaml.v3"
)

type yamlLostFile struct {
	Cluster uint32 `yaml:"cluster"`
	Length  uint   `yaml:"length"`
	Name    string `yaml:"name"`
}

type yamlMismatch struct {
	Path         string `yaml:"path"`
	Name         string `yaml:"name"`
	StartCluster uint32 `yaml:"start_cluster"`
	DeclaredSize uint32 `yaml:"declared_size"`
	ActualSize   uint64 `yaml:"actual_size"`
	ChainLength  uint   `yaml:"chain_length"`
	NewLength    uint   `yaml:"new_length"`
}

type yamlDocument struct {
	Unreferenced []uint32       `yaml:"unreferenced"`
	LostFiles    []yamlLostFile `yaml:"lost_files"`
	Mismatches   []yamlMismatch `yaml:"length_mismatches"`
	Problems     []string       `yaml:"problems"`
}

// YAMLReporter collects findings and writes them as one YAML document on
// Close.
type YAMLReporter struct {
	out      io.Writer
	document yamlDocument
}

func NewYAMLReporter(out io.Writer) *YAMLReporter {
	return &YAMLReporter{
		out: out,
		document: yamlDocument{
			Unreferenced: []uint32{},
			LostFiles:    []yamlLostFile{},
			Mismatches:   []yamlMismatch{},
			Problems:     []string{},
		},
	}
}

func (r *YAMLReporter) Unreferenced(clusters []volume.ClusterID) {
	for _, cluster := range clusters {
		r.document.Unreferenced = append(r.document.Unreferenced, uint32(cluster))
	}
}

func (r *YAMLReporter) LostFile(lost check.LostFile) {
	r.document.LostFiles = append(r.document.LostFiles, yamlLostFile{
		Cluster: uint32(lost.Cluster),
		Length:  lost.Length,
		Name:    lost.Name,
	})
}

func (r *YAMLReporter) LengthMismatch(mismatch check.Mismatch) {
	r.document.Mismatches = append(r.document.Mismatches, yamlMismatch{
		Path:         mismatch.Path,
		Name:         mismatch.Name,
		StartCluster: uint32(mismatch.StartCluster),
		DeclaredSize: mismatch.DeclaredSize,
		ActualSize:   mismatch.ActualSize,
		ChainLength:  mismatch.ChainLength,
		NewLength:    mismatch.NewLength,
	})
}

func (r *YAMLReporter) Problem(err error) {
	r.document.Problems = append(r.document.Problems, err.Error())
}

func (r *YAMLReporter) Close() error {
	encoder := yaml.NewEncoder(r.out)
	encoder.SetIndent(2)
	if err := encoder.Encode(&r.document); err != nil {
		return err
	}
	return encoder.Close()
}
