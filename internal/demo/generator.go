// Package demo generates synthetic pickup discrepancy bookings shaped like
// the warehouse query result, for working offline.
package demo

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"cloud.google.com/go/civil"

	"github.com/pickuplens/pickuplens/internal/warehouse"
)

const earthRadiusMeters = 6371008.8

type city struct {
	name     string
	lat, lng float64
}

var cities = []city{
	{name: "jakarta", lat: -6.2088, lng: 106.8456},
	{name: "bandung", lat: -6.9175, lng: 107.6191},
	{name: "surabaya", lat: -7.2575, lng: 112.7521},
	{name: "denpasar", lat: -8.6705, lng: 115.2126},
	{name: "medan", lat: 3.5952, lng: 98.6722},
}

var Columns = []warehouse.Column{
	{Name: "booking_number", Type: warehouse.TypeString},
	{Name: "booking_time", Type: warehouse.TypeDateTime},
	{Name: "service_area", Type: warehouse.TypeString},
	{Name: "service_type", Type: warehouse.TypeString},
	{Name: "booking_pickup_latitude", Type: warehouse.TypeFloat64},
	{Name: "booking_pickup_longitude", Type: warehouse.TypeFloat64},
	{Name: "driver_pickup_latitude", Type: warehouse.TypeFloat64},
	{Name: "driver_pickup_longitude", Type: warehouse.TypeFloat64},
	{Name: "aoi_adjusted_booking_pickup_latitude", Type: warehouse.TypeFloat64},
	{Name: "aoi_adjusted_booking_pickup_longitude", Type: warehouse.TypeFloat64},
	{Name: "pickup_distance_error", Type: warehouse.TypeFloat64},
	{Name: "aoi_adjusted_pickup_distance_error", Type: warehouse.TypeFloat64},
}

type Generator struct {
	rnd      *rand.Rand
	sequence int64
	now      func() time.Time
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		rnd: rand.New(rand.NewSource(seed)),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// NextRow returns one booking whose AOI adjusted pickup lies more than
// 50 meters further from the driver than the booked pickup does.
func (g *Generator) NextRow() []any {
	g.sequence++
	c := cities[g.rnd.Intn(len(cities))]

	bookingLat, bookingLng := offset(c.lat, c.lng, g.rnd.Float64()*6000, g.rnd.Float64()*2*math.Pi)
	driverLat, driverLng := offset(bookingLat, bookingLng, 5+g.rnd.Float64()*35, g.rnd.Float64()*2*math.Pi)
	adjustedLat, adjustedLng := offset(driverLat, driverLng, 100+g.rnd.Float64()*300, g.rnd.Float64()*2*math.Pi)

	bookedAt := g.now().Add(-time.Duration(24+g.rnd.Intn(24)) * time.Hour).Add(-time.Duration(g.rnd.Intn(3600)) * time.Second)

	return []any{
		fmt.Sprintf("RB-%012d", 100000+g.sequence),
		civil.DateTimeOf(bookedAt.Truncate(time.Second)),
		c.name,
		pickOne(g.rnd, []string{"GoRide", "GoCar", "GoCar XL"}),
		round6(bookingLat), round6(bookingLng),
		round6(driverLat), round6(driverLng),
		round6(adjustedLat), round6(adjustedLng),
		round2(haversine(bookingLat, bookingLng, driverLat, driverLng)),
		round2(haversine(adjustedLat, adjustedLng, driverLat, driverLng)),
	}
}

// Table generates n rows.
func (g *Generator) Table(n int) warehouse.Table {
	table := warehouse.Table{
		Columns: append([]warehouse.Column(nil), Columns...),
		Rows:    make([][]any, 0, n),
	}
	for i := 0; i < n; i++ {
		table.Rows = append(table.Rows, g.NextRow())
	}
	return table
}

// offset moves a point distance meters along bearing radians.
func offset(lat, lng, distance, bearing float64) (float64, float64) {
	angular := distance / earthRadiusMeters
	lat1 := lat * math.Pi / 180
	lng1 := lng * math.Pi / 180
	lat2 := math.Asin(math.Sin(lat1)*math.Cos(angular) + math.Cos(lat1)*math.Sin(angular)*math.Cos(bearing))
	lng2 := lng1 + math.Atan2(math.Sin(bearing)*math.Sin(angular)*math.Cos(lat1), math.Cos(angular)-math.Sin(lat1)*math.Sin(lat2))
	return lat2 * 180 / math.Pi, lng2 * 180 / math.Pi
}

func haversine(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) + math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(a))
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func round6(value float64) float64 {
	return math.Round(value*1e6) / 1e6
}

func pickOne(r *rand.Rand, values []string) string {
	return values[r.Intn(len(values))]
}
