package normalizer

import "testing"

func TestNormalizeIdempotent(t *testing.T) {
	n := NewAddressNormalizer()
	cases := []string{
		"123 Main St.",
		"70 King William St",
		"45 St. Catharines Ave",
		"  99   Bloor   St W ",
		"",
	}
	for _, c := range cases {
		t.Run(c, func(t *testing.T) {
			once := n.Normalize(c)
			twice := n.Normalize(once)
			if once != twice {
				t.Fatalf("Normalize not idempotent: %q -> %q -> %q", c, once, twice)
			}
		})
	}
}

func TestSaintNameProtection(t *testing.T) {
	n := NewAddressNormalizer()
	got := n.Normalize("45 ST CATHARINES AVE")
	want := "45 SAINT CATHARINES AVENUE"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestStreetTypeAndDirectionExpansion(t *testing.T) {
	n := NewAddressNormalizer()
	got := n.Normalize("618 BLOOR ST W")
	want := "618 BLOOR STREET WEST"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestCityAlias(t *testing.T) {
	n := NewAddressNormalizer()
	if got := n.NormalizeCity("Scarborough"); got != "TORONTO" {
		t.Fatalf("got %q want TORONTO", got)
	}
	if got := n.NormalizeCity("Hamilton"); got != "HAMILTON" {
		t.Fatalf("got %q want HAMILTON", got)
	}
}

func TestDedupKey(t *testing.T) {
	n := NewAddressNormalizer()
	k1 := n.DedupKey("618 Bloor St W", "Toronto")
	k2 := n.DedupKey("618 BLOOR ST. W", "  toronto ")
	if k1 != k2 {
		t.Fatalf("expected equal dedup keys, got %q and %q", k1, k2)
	}
}

func TestEmptyInput(t *testing.T) {
	n := NewAddressNormalizer()
	if got := n.Normalize(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
