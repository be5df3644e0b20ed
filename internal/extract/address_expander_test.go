package extract

import "testing"

func addrs(results []ExpandResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Address
	}
	return out
}

func TestEndpointOnlyRangeNoInterpolation(t *testing.T) {
	got := addrs(Expand("138 - 142 MAIN ST", "", ""))
	want := []string{"138 MAIN ST", "142 MAIN ST"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestHighwayGuard(t *testing.T) {
	got := addrs(Expand("HIGHWAY 6 & 21", "", ""))
	if len(got) != 1 || got[0] != "HIGHWAY 6 & 21" {
		t.Fatalf("expected guard to pass input through unchanged, got %v", got)
	}
}

func TestLegalDescriptionGuard(t *testing.T) {
	got := addrs(Expand("LOT 5 CONC 3", "", ""))
	if len(got) != 1 || got[0] != "LOT 5 CONC 3" {
		t.Fatalf("expected guard to pass input through unchanged, got %v", got)
	}
}

func TestSimpleAmpersand(t *testing.T) {
	got := addrs(Expand("21 & 111 COMMERCE PARK DR", "", ""))
	want := []string{"21 COMMERCE PARK DR", "111 COMMERCE PARK DR"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestCommaAmpersand(t *testing.T) {
	got := addrs(Expand("92, 102 & 112 COMMERCE PARK DR", "", ""))
	want := []string{"92 COMMERCE PARK DR", "102 COMMERCE PARK DR", "112 COMMERCE PARK DR"}
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestPlainCommaList(t *testing.T) {
	got := addrs(Expand("4, 8, 16 MAIN ST N", "", ""))
	want := []string{"4 MAIN ST N", "8 MAIN ST N", "16 MAIN ST N"}
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestPOBoxFlaggedNonGeocodable(t *testing.T) {
	res := Expand("PO BOX 123", "Toronto", "ON")
	if len(res) != 1 || res[0].Geocodable {
		t.Fatalf("expected PO box flagged non-geocodable, got %+v", res)
	}
}

func TestPlainFallthrough(t *testing.T) {
	got := addrs(Expand("70 KING WILLIAM ST", "Hamilton", "ON"))
	want := "70 KING WILLIAM ST, Hamilton, ON"
	if len(got) != 1 || got[0] != want {
		t.Fatalf("got %v want %q", got, want)
	}
}
