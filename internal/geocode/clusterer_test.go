package geocode

import "testing"

func TestClusterBoundaryAt50Meters(t *testing.T) {
	// Two points exactly on a meridian, separated by a latitude delta picked
	// to land as close to 50.000m as haversine allows.
	lat1 := 43.65000
	dLat := 50.0 / (EarthRadiusMeters * 3.141592653589793 / 180.0)
	lat2 := lat1 + dLat

	inputs := []ClusterInput{
		{Address: "A", Lat: lat1, Lng: -79.38},
		{Address: "B", Lat: lat2, Lng: -79.38},
	}
	d := HaversineMeters(lat1, -79.38, lat2, -79.38)

	clusters := Cluster(inputs, d)
	if len(clusters) != 1 {
		t.Fatalf("expected points at exactly threshold distance to union, got %d clusters", len(clusters))
	}

	clustersOver := Cluster(inputs, d-0.001)
	if len(clustersOver) != 2 {
		t.Fatalf("expected points just over threshold to stay separate, got %d clusters", len(clustersOver))
	}
}

func TestClusterSinglePoint(t *testing.T) {
	inputs := []ClusterInput{{Address: "solo", Lat: 43.0, Lng: -79.0}}
	clusters := Cluster(inputs, 50)
	if len(clusters) != 1 || clusters[0].ID != "loc_00001" {
		t.Fatalf("unexpected clusters: %+v", clusters)
	}
}
