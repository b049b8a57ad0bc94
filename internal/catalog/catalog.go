// Package catalog resolves portable location and size descriptors to
// concrete EC2 identifiers.
//
// Locations form a two-level hierarchy: a zone's parent is a region. A
// location is resolved once, at the boundary, into a (region, zone) pair;
// nothing downstream re-inspects location scope. Sizes map a portable id
// onto a concrete EC2 instance type string.
package catalog

import "fmt"

// LocationScope distinguishes regions from availability zones.
type LocationScope string

const (
	ScopeRegion LocationScope = "region"
	ScopeZone   LocationScope = "zone"
)

// Location is one entry of the provider's location hierarchy.
type Location struct {
	ID     string
	Scope  LocationScope
	Parent string // region id for zone-scoped locations, empty otherwise
}

// Placement is a fully resolved launch target. Zone is empty when the
// requested location was region-scoped.
type Placement struct {
	Region string
	Zone   string
}

// Size is a portable machine size with its concrete EC2 instance type.
type Size struct {
	ID           string
	InstanceType string
	Cores        int
	MemoryGB     float64
}

// SupportedRegions is the fixed set of regions node listings enumerate.
var SupportedRegions = []string{"us-east-1", "us-west-1", "eu-west-1"}

// Catalog holds the known locations and sizes.
type Catalog struct {
	locations map[string]Location
	sizes     map[string]Size
}

// New builds a catalog from explicit entries.
func New(locations []Location, sizes []Size) *Catalog {
	c := &Catalog{
		locations: make(map[string]Location, len(locations)),
		sizes:     make(map[string]Size, len(sizes)),
	}
	for _, l := range locations {
		c.locations[l.ID] = l
	}
	for _, s := range sizes {
		c.sizes[s.ID] = s
	}
	return c
}

// Default returns a catalog covering the supported regions, one
// availability zone per region, and the classic instance-type lineup.
func Default() *Catalog {
	locations := make([]Location, 0, 2*len(SupportedRegions))
	for _, region := range SupportedRegions {
		locations = append(locations,
			Location{ID: region, Scope: ScopeRegion},
			Location{ID: region + "a", Scope: ScopeZone, Parent: region},
		)
	}
	sizes := []Size{
		{ID: "small", InstanceType: "m1.small", Cores: 1, MemoryGB: 1.7},
		{ID: "medium", InstanceType: "c1.medium", Cores: 2, MemoryGB: 1.7},
		{ID: "large", InstanceType: "m1.large", Cores: 2, MemoryGB: 7.5},
		{ID: "xlarge", InstanceType: "m1.xlarge", Cores: 4, MemoryGB: 15},
	}
	return New(locations, sizes)
}

// ResolvePlacement maps a location id to its (region, zone) pair. For a
// zone-scoped location the region is the zone's parent; for a region-scoped
// location the zone stays empty.
func (c *Catalog) ResolvePlacement(locationID string) (Placement, error) {
	loc, ok := c.locations[locationID]
	if !ok {
		return Placement{}, fmt.Errorf("unknown location: %s", locationID)
	}
	switch loc.Scope {
	case ScopeZone:
		if loc.Parent == "" {
			return Placement{}, fmt.Errorf("zone %s has no parent region", loc.ID)
		}
		return Placement{Region: loc.Parent, Zone: loc.ID}, nil
	case ScopeRegion:
		return Placement{Region: loc.ID}, nil
	default:
		return Placement{}, fmt.Errorf("location %s has unsupported scope %q", loc.ID, loc.Scope)
	}
}

// ResolveInstanceType maps a portable size id to the concrete EC2 instance
// type. An unknown size or one without an instance type is a validation
// error surfaced before any provider call.
func (c *Catalog) ResolveInstanceType(sizeID string) (string, error) {
	size, ok := c.sizes[sizeID]
	if !ok {
		return "", fmt.Errorf("unknown size: %s", sizeID)
	}
	if size.InstanceType == "" {
		return "", fmt.Errorf("size %s does not resolve to an EC2 instance type", sizeID)
	}
	return size.InstanceType, nil
}

// Locations returns all known locations.
func (c *Catalog) Locations() []Location {
	out := make([]Location, 0, len(c.locations))
	for _, l := range c.locations {
		out = append(out, l)
	}
	return out
}
