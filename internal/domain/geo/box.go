package geo

import "math"

// Box is a latitude/longitude aligned rectangle. MinLng <= MaxLng always;
// shapes crossing the antimeridian are represented as two boxes.
type Box struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

func (b Box) Validate() error {
	if err := (Point{Lat: b.MinLat, Lng: b.MinLng}).Validate(); err != nil {
		return err
	}
	if err := (Point{Lat: b.MaxLat, Lng: b.MaxLng}).Validate(); err != nil {
		return err
	}
	if b.MinLat > b.MaxLat || b.MinLng > b.MaxLng {
		return ErrInvalidCoordinate
	}
	return nil
}

func (b Box) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// Min and Max return the corners in (lng, lat) order, the x/y order the
// R-tree works in.
func (b Box) Min() [2]float64 { return [2]float64{b.MinLng, b.MinLat} }
func (b Box) Max() [2]float64 { return [2]float64{b.MaxLng, b.MaxLat} }

// Circle is the spherical cap of RadiusKm around Center.
type Circle struct {
	Center   Point
	RadiusKm float64
}

func (c Circle) Contains(p Point) bool {
	return DistanceKm(c.Center, p) <= c.RadiusKm
}

// Bounds returns the boxes that together cover the circle. The result has
// two boxes when the circle crosses the antimeridian and spans every
// longitude when it covers a pole.
func (c Circle) Bounds() []Box {
	ang := c.RadiusKm / EarthRadiusKm
	lat := radians(c.Center.Lat)
	lng := radians(c.Center.Lng)

	minLat := lat - ang
	maxLat := lat + ang

	if minLat <= -math.Pi/2 || maxLat >= math.Pi/2 {
		return []Box{{
			MinLat: math.Max(degrees(minLat), -90),
			MinLng: -180,
			MaxLat: math.Min(degrees(maxLat), 90),
			MaxLng: 180,
		}}
	}

	dLng := math.Asin(math.Sin(ang) / math.Cos(lat))
	minLng := degrees(lng - dLng)
	maxLng := degrees(lng + dLng)
	loLat, hiLat := degrees(minLat), degrees(maxLat)

	switch {
	case minLng < -180:
		return []Box{
			{MinLat: loLat, MinLng: minLng + 360, MaxLat: hiLat, MaxLng: 180},
			{MinLat: loLat, MinLng: -180, MaxLat: hiLat, MaxLng: maxLng},
		}
	case maxLng > 180:
		return []Box{
			{MinLat: loLat, MinLng: minLng, MaxLat: hiLat, MaxLng: 180},
			{MinLat: loLat, MinLng: -180, MaxLat: hiLat, MaxLng: maxLng - 360},
		}
	}
	return []Box{{MinLat: loLat, MinLng: minLng, MaxLat: hiLat, MaxLng: maxLng}}
}
