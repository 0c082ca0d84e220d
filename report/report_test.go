package report_test

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/dargueta/scandisk/check"
	"github.com/dargueta/scandisk/errors"
	"github.com/dargueta/scandisk/report"
	"github.com/dargueta/scandisk/volume"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var sampleMismatch = check.Mismatch{
	Path:         "/",
	Name:         "NAME.EXT",
	DeclaredSize: 100,
	ActualSize:   1536,
	StartCluster: 10,
	ChainLength:  3,
	NewLength:    1,
}

func feed(reporter report.Reporter) {
	reporter.Unreferenced([]volume.ClusterID{5, 9, 10})
	reporter.LostFile(check.LostFile{Cluster: 5, Length: 1, Name: "FOUND1.DAT"})
	reporter.LostFile(check.LostFile{Cluster: 9, Length: 2, Name: "FOUND2.DAT"})
	reporter.LengthMismatch(sampleMismatch)
	reporter.Problem(stderrors.New("bad file termination: /X.BIN"))
}

func TestTextReporter(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	reporter := report.NewTextReporter(out, errOut)
	feed(reporter)
	require.NoError(t, reporter.Close())

	expected := "Unreferenced: 5 9 10\n" +
		"Lost File: 5 1\n" +
		"Lost File: 9 2\n" +
		"NAME.EXT 100 1536\n"
	assert.Equal(t, expected, out.String())
	assert.Equal(t, "bad file termination: /X.BIN\n", errOut.String())
}

func TestTextReporter__NameWithoutExtension(t *testing.T) {
	out := &bytes.Buffer{}
	reporter := report.NewTextReporter(out, &bytes.Buffer{})
	mismatch := sampleMismatch
	mismatch.Name = "MAKEFILE"
	reporter.LengthMismatch(mismatch)
	assert.Equal(t, "MAKEFILE 100 1536\n", out.String())
}

func TestCSVReporter(t *testing.T) {
	out := &bytes.Buffer{}
	reporter := report.NewCSVReporter(out)
	feed(reporter)
	assert.Zero(t, out.Len(), "CSV output should wait for Close")
	require.NoError(t, reporter.Close())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "kind,cluster,length,path,name,declared_size,actual_size,message", lines[0])
	assert.Equal(t, "unreferenced,5,,,,,,", lines[1])
	assert.Equal(t, "lost_file,5,1,/,FOUND1.DAT,,,", lines[4])
	assert.Equal(t, "length_mismatch,10,3,/,NAME.EXT,100,1536,", lines[6])
	assert.Equal(t, "problem,,,,,,,bad file termination: /X.BIN", lines[7])
}

func TestYAMLReporter(t *testing.T) {
	out := &bytes.Buffer{}
	reporter := report.NewYAMLReporter(out)
	feed(reporter)
	require.NoError(t, reporter.Close())

	var document struct {
		Unreferenced []uint32 `yaml:"unreferenced"`
		LostFiles    []struct {
			Cluster uint32 `yaml:"cluster"`
			Length  uint   `yaml:"length"`
			Name    string `yaml:"name"`
		} `yaml:"lost_files"`
		Mismatches []struct {
			Name       string `yaml:"name"`
			ActualSize uint64 `yaml:"actual_size"`
			NewLength  uint   `yaml:"new_length"`
		} `yaml:"length_mismatches"`
		Problems []string `yaml:"problems"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &document))

	assert.Equal(t, []uint32{5, 9, 10}, document.Unreferenced)
	require.Len(t, document.LostFiles, 2)
	assert.Equal(t, "FOUND2.DAT", document.LostFiles[1].Name)
	assert.EqualValues(t, 2, document.LostFiles[1].Length)
	require.Len(t, document.Mismatches, 1)
	assert.EqualValues(t, 1536, document.Mismatches[0].ActualSize)
	assert.EqualValues(t, 1, document.Mismatches[0].NewLength)
	assert.Equal(t, []string{"bad file termination: /X.BIN"}, document.Problems)
}

func TestYAMLReporter__EmptyRunHasEmptyLists(t *testing.T) {
	out := &bytes.Buffer{}
	reporter := report.NewYAMLReporter(out)
	require.NoError(t, reporter.Close())
	assert.Contains(t, out.String(), "lost_files: []")
}

func TestNew(t *testing.T) {
	for _, format := range report.Formats {
		reporter, err := report.New(format, &bytes.Buffer{}, &bytes.Buffer{})
		require.NoError(t, err, format)
		assert.NotNil(t, reporter)
	}

	_, err := report.New("json", &bytes.Buffer{}, &bytes.Buffer{})
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}
