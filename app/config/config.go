package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

// DataPaths lists every JSON snapshot the pipeline stages read and write,
// all rooted under a single data directory so the whole run can be moved
// or backed up as a unit.
type DataPaths struct {
	Dir              string `yaml:"dir" json:"dir"`
	Coordinates      string `yaml:"coordinates" json:"coordinates"`
	Properties       string `yaml:"properties" json:"properties"`
	BrandMatches     string `yaml:"brand_matches" json:"brand_matches"`
	UnmatchedBrands  string `yaml:"unmatched_brands" json:"unmatched_brands"`
	Parcels          string `yaml:"parcels" json:"parcels"`
	Footprints       string `yaml:"footprints" json:"footprints"`
	Clusters         string `yaml:"clusters" json:"clusters"`
}

// MatchingThresholds holds every independently-tunable cutoff named in the
// matching and divergence stages, preserving the source's hardcoded
// defaults.
type MatchingThresholds struct {
	FuzzySimilarity    float64 `yaml:"fuzzy_similarity" json:"fuzzy_similarity"`
	ProximityMeters    float64 `yaml:"proximity_meters" json:"proximity_meters"`
	BrandSanityGateM   float64 `yaml:"brand_sanity_gate_m" json:"brand_sanity_gate_m"`
	FootprintNearestM  float64 `yaml:"footprint_nearest_m" json:"footprint_nearest_m"`
	DivergenceMeters   float64 `yaml:"divergence_meters" json:"divergence_meters"`
	ClusterGridDegrees float64 `yaml:"cluster_grid_degrees" json:"cluster_grid_degrees"`
	JWWeight           float64 `yaml:"jw_weight" json:"jw_weight"`
	LevWeight          float64 `yaml:"lev_weight" json:"lev_weight"`
}

// GeocodeProviderCfg configures one geocoding provider's batch/rate/limit
// behavior, independently of the others (§4.C).
type GeocodeProviderCfg struct {
	Enabled       bool    `yaml:"enabled" json:"enabled"`
	APIKey        string  `yaml:"api_key" json:"api_key"`
	BatchSize     int     `yaml:"batch_size" json:"batch_size"`
	DailyLimit    int     `yaml:"daily_limit" json:"daily_limit"`
	MinIntervalMs int     `yaml:"min_interval_ms" json:"min_interval_ms"`
	SaveEvery     int     `yaml:"save_every" json:"save_every"`
}

// GeocodingCfg groups every provider this pipeline can use.
type GeocodingCfg struct {
	Mapbox   GeocodeProviderCfg `yaml:"mapbox" json:"mapbox"`
	Geocodio GeocodeProviderCfg `yaml:"geocodio" json:"geocodio"`
	Here     GeocodeProviderCfg `yaml:"here" json:"here"`
}

// CacheCfg carries the hybrid geocode cache's connection strings (§2).
type CacheCfg struct {
	RedisURL string `yaml:"redis_url" json:"redis_url"`
	MongoURI string `yaml:"mongo_uri" json:"mongo_uri"`
	MongoDB  string `yaml:"mongo_db" json:"mongo_db"`
}

// MeiliCfg configures the Brand Registry's fuzzy alias search index.
type MeiliCfg struct {
	Host      string `yaml:"host" json:"host"`
	APIKey    string `yaml:"api_key" json:"api_key"`
	IndexName string `yaml:"index_name" json:"index_name"`
}

// OverpassCfg configures the Overpass client abstraction (§4.N).
type OverpassCfg struct {
	Endpoints       []string `yaml:"endpoints" json:"endpoints"`
	MinIntervalMs   int      `yaml:"min_interval_ms" json:"min_interval_ms"`
	Disabled        bool     `yaml:"disabled" json:"disabled"`
}

// ServerCfg configures the ops/inspection HTTP surface (§1.5).
type ServerCfg struct {
	Addr string `yaml:"addr" json:"addr"`
}

// Cfg is the root configuration, loaded once at startup and held by the
// package-level C following the teacher's pattern.
type Cfg struct {
	Env        string             `yaml:"env" json:"env"`
	DryRun     bool               `yaml:"dry_run" json:"dry_run"`
	SnapCoords bool               `yaml:"snap_coords" json:"snap_coords"`
	Data       DataPaths          `yaml:"data" json:"data"`
	Matching   MatchingThresholds `yaml:"matching" json:"matching"`
	Geocoding  GeocodingCfg       `yaml:"geocoding" json:"geocoding"`
	Cache      CacheCfg           `yaml:"cache" json:"cache"`
	Meili      MeiliCfg           `yaml:"meili" json:"meili"`
	Overpass   OverpassCfg        `yaml:"overpass" json:"overpass"`
	Server     ServerCfg          `yaml:"server" json:"server"`
}

// C is the process-wide configuration, populated by Load.
var C Cfg

func defaults() Cfg {
	return Cfg{
		Env: "development",
		Data: DataPaths{
			Dir:             "./data",
			Coordinates:     "coordinates.json",
			Properties:      "properties.json",
			BrandMatches:    "brand_matches.json",
			UnmatchedBrands: "unmatched_brands.json",
			Parcels:         "parcels.json",
			Footprints:      "footprints.json",
			Clusters:        "clusters.json",
		},
		Matching: MatchingThresholds{
			FuzzySimilarity:    0.6,
			ProximityMeters:    150,
			BrandSanityGateM:   500,
			FootprintNearestM:  150,
			DivergenceMeters:   500,
			ClusterGridDegrees: 0.0005,
			JWWeight:           0.7,
			LevWeight:          0.3,
		},
		Meili: MeiliCfg{
			Host:      "http://localhost:7700",
			IndexName: "brand_aliases",
		},
		Overpass: OverpassCfg{
			MinIntervalMs: 2000,
		},
		Server: ServerCfg{
			Addr: ":8080",
		},
	}
}

// Load reads path (if present) into C over top of the built-in defaults,
// then applies CLEO_*-prefixed environment overrides via viper, following
// the teacher's Load(path string) error + USE_LIBPOSTAL env-override
// pattern generalized to every boolean/string field worth overriding at
// deploy time.
func Load(path string) error {
	C = defaults()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	} else if err := v.Unmarshal(&C); err != nil {
		return err
	}

	v.SetEnvPrefix("CLEO")
	v.AutomaticEnv()

	if v.IsSet("dry_run") {
		C.DryRun = v.GetBool("dry_run")
	}
	if v.IsSet("snap_coords") {
		C.SnapCoords = v.GetBool("snap_coords")
	}
	if v.IsSet("env") {
		C.Env = v.GetString("env")
	}
	v.BindEnv("data.dir", "CLEO_DATA_DIR")
	if dir := v.GetString("data.dir"); dir != "" {
		C.Data.Dir = dir
	}
	v.BindEnv("cache.redis_url", "CLEO_REDIS_URL")
	if url := v.GetString("cache.redis_url"); url != "" {
		C.Cache.RedisURL = url
	}
	v.BindEnv("cache.mongo_uri", "CLEO_MONGO_URI")
	if uri := v.GetString("cache.mongo_uri"); uri != "" {
		C.Cache.MongoURI = uri
	}

	return nil
}

// RequestTimeout is a 10-second bound for one outbound HTTP call. The
// Geocodio provider and the Overpass client do not read it; each sets its
// own 30-second HTTP client timeout.
func RequestTimeout() time.Duration { return 10 * time.Second }
