package domain

import (
	_ "embed"
	"fmt"

	"github.com/golang/geo/s2"
	"gopkg.in/yaml.v3"
)

// GeoBoundingBox is a lat/lon rectangle in degrees.
type GeoBoundingBox struct {
	MinLat float64 `yaml:"min_lat" json:"min_lat"`
	MaxLat float64 `yaml:"max_lat" json:"max_lat"`
	MinLon float64 `yaml:"min_lon" json:"min_lon"`
	MaxLon float64 `yaml:"max_lon" json:"max_lon"`
}

// Contains reports whether (lat, lon) lies inside the box, edges included.
func (b GeoBoundingBox) Contains(lat, lon float64) bool {
	rect := s2.EmptyRect().
		AddPoint(s2.LatLngFromDegrees(b.MinLat, b.MinLon)).
		AddPoint(s2.LatLngFromDegrees(b.MaxLat, b.MaxLon))
	return rect.ContainsLatLng(s2.LatLngFromDegrees(lat, lon))
}

// Region is a named map sector.
type Region struct {
	ID     int            `yaml:"id" json:"id"`
	Name   string         `yaml:"name" json:"name"`
	Bounds GeoBoundingBox `yaml:"bounds" json:"bounds"`
}

//go:embed regions.yaml
var regionsYAML []byte

type regionCatalog struct {
	Default int      `yaml:"default"`
	Regions []Region `yaml:"regions"`
}

var (
	regionList      []Region
	regionsByID     map[int]Region
	defaultRegionID int
)

func init() {
	var cat regionCatalog
	if err := yaml.Unmarshal(regionsYAML, &cat); err != nil {
		panic(fmt.Sprintf("parse embedded regions: %v", err))
	}
	regionsByID = make(map[int]Region, len(cat.Regions))
	for _, r := range cat.Regions {
		if r.Bounds.MaxLat <= r.Bounds.MinLat || r.Bounds.MaxLon <= r.Bounds.MinLon {
			panic(fmt.Sprintf("region %d has an empty bounding box", r.ID))
		}
		regionsByID[r.ID] = r
	}
	if _, ok := regionsByID[cat.Default]; !ok {
		panic(fmt.Sprintf("default region %d not in catalog", cat.Default))
	}
	regionList = cat.Regions
	defaultRegionID = cat.Default
}

// DefaultRegionID is the national sector used when a region id is unknown.
func DefaultRegionID() int { return defaultRegionID }

// Regions returns the catalog in display order.
func Regions() []Region {
	out := make([]Region, len(regionList))
	copy(out, regionList)
	return out
}

// LookupRegion returns the region with the given id.
func LookupRegion(id int) (Region, bool) {
	r, ok := regionsByID[id]
	return r, ok
}

// RegionFor returns the region with the given id, falling back to the
// national sector for unknown ids.
func RegionFor(id int) Region {
	if r, ok := regionsByID[id]; ok {
		return r
	}
	return regionsByID[defaultRegionID]
}

// Project maps (lat, lon) into a width x height canvas laid over box. The
// mapping is linear in both axes. Points outside box land outside the canvas
// and are not clamped.
func Project(lat, lon float64, box GeoBoundingBox, width, height float64) Point2D {
	return Point2D{
		X: (lon - box.MinLon) / (box.MaxLon - box.MinLon) * width,
		Y: (box.MaxLat - lat) / (box.MaxLat - box.MinLat) * height,
	}
}

// Unproject is the inverse of Project and returns (lat, lon).
func Unproject(p Point2D, box GeoBoundingBox, width, height float64) (lat, lon float64) {
	lon = box.MinLon + p.X/width*(box.MaxLon-box.MinLon)
	lat = box.MaxLat - p.Y/height*(box.MaxLat-box.MinLat)
	return lat, lon
}
