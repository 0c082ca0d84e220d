// Package disks has the boot sector parameters of standard FAT12/16 disk
// formats.
package disks

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"
)

////////////////////////////////////////////////////////////////////////////////
// Geometry

type DiskGeometry struct {
	Name string `csv:"name"`
	Slug string `csv:"slug"`

	BytesPerSector    uint16 `csv:"bytes_per_sector"`
	SectorsPerCluster uint8  `csv:"sectors_per_cluster"`
	ReservedSectors   uint16 `csv:"reserved_sectors"`
	NumFATs           uint8  `csv:"num_fats"`
	// RootEntryCount gives the number of 32-byte slots in the root directory.
	RootEntryCount uint16 `csv:"root_entries"`
	TotalSectors   uint32 `csv:"total_sectors"`
	SectorsPerFAT  uint16 `csv:"sectors_per_fat"`
	// Media is the media descriptor byte, also stored in the first FAT entry.
	Media           uint8  `csv:"media"`
	SectorsPerTrack uint16 `csv:"sectors_per_track"`
	Heads           uint16 `csv:"heads"`
	Notes           string `csv:"notes"`
}

// TotalSizeBytes gives the size of an image of this format.
func (g *DiskGeometry) TotalSizeBytes() int64 {
	return int64(g.TotalSectors) * int64(g.BytesPerSector)
}

////////////////////////////////////////////////////////////////////////////////

// https://en.wikipedia.org/wiki/List_of_floppy_disk_formats
//
//go:embed disk-geometries.csv
var diskGeometriesRawCSV string
var diskGeometries map[string]DiskGeometry

func GetPredefinedDiskGeometry(slug string) (DiskGeometry, error) {
	geometry, ok := diskGeometries[slug]
	if ok {
		return geometry, nil
	}

	err := fmt.Errorf("no predefined disk geometry exists with slug %q", slug)
	return DiskGeometry{}, err
}

// PredefinedSlugs lists the slugs of every predefined geometry in sorted order.
func PredefinedSlugs() []string {
	slugs := make([]string, 0, len(diskGeometries))
	for slug := range diskGeometries {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

func init() {
	csvReader := csv.NewReader(strings.NewReader(diskGeometriesRawCSV))
	csvReader.Comma = '|'

	rows := []DiskGeometry{}
	if err := gocsv.UnmarshalCSV(csvReader, &rows); err != nil {
		panic(fmt.Errorf("failed to decode disk geometries: %w", err))
	}

	diskGeometries = make(map[string]DiskGeometry, len(rows))
	for i, row := range rows {
		_, exists := diskGeometries[row.Slug]
		if exists {
			message := fmt.Errorf(
				"duplicate definition for disk %q found on row %d", row.Slug, i+1)
			panic(message)
		}
		diskGeometries[row.Slug] = row
	}
}
