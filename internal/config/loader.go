package config

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"gopkg.in/yaml.v3"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
)

// Load reads the full configuration from a data directory: settings.yaml
// for engine settings and every .cue file for the domain catalogs. The CUE
// files form one instance, so catalogs can be split per domain
// (products.cue, segments.cue, ...) and still unify.
func Load(dataDir string) (*Config, error) {
	info, err := os.Stat(dataDir)
	if err != nil {
		return nil, sim.ConfigErr(fmt.Sprintf("config directory %s", dataDir), err)
	}
	if !info.IsDir() {
		return nil, sim.InvalidConfig(fmt.Sprintf("%s is not a directory", dataDir))
	}

	settings, err := loadSettings(filepath.Join(dataDir, "settings.yaml"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{Settings: settings}
	if err := loadCatalogs(dataDir, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadSettings(path string) (Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, sim.ConfigErr("read settings.yaml", err)
	}
	var s Settings
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return Settings{}, sim.ConfigErr("parse settings.yaml", err)
	}
	return s, nil
}

func loadCatalogs(dataDir string, cfg *Config) error {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dataDir})
	if len(instances) == 0 {
		return sim.InvalidConfig("no CUE instances loaded from " + dataDir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return sim.ConfigErr("load CUE catalogs", inst.Err)
	}

	ctx := cuecontext.New()
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return sim.ConfigErr("build CUE catalogs", err)
	}

	var products []Product
	if err := decodePath(value, "products", &products); err != nil {
		return err
	}
	cfg.Products = make(map[string]Product, len(products))
	for _, p := range products {
		cfg.Products[p.ProductID] = p
	}

	var segments []Segment
	if err := decodePath(value, "segments", &segments); err != nil {
		return err
	}
	cfg.Segments = make(map[string]Segment, len(segments))
	for _, s := range segments {
		cfg.Segments[s.ID] = s
	}

	if err := decodePath(value, "complaint_triggers", &cfg.ComplaintTriggers); err != nil {
		return err
	}

	var codes []ResolutionCode
	if err := decodePath(value, "resolution_codes", &codes); err != nil {
		return err
	}
	cfg.ResolutionCodes = make(map[string]ResolutionCode, len(codes))
	for _, rc := range codes {
		cfg.ResolutionCodes[rc.Code] = rc
	}

	var constraints []FeeConstraint
	if err := decodePath(value, "fee_constraints", &constraints); err != nil {
		return err
	}
	cfg.FeeConstraints = make(map[string]FeeConstraint, len(constraints))
	for _, fc := range constraints {
		cfg.FeeConstraints[fc.FeeType] = fc
	}

	var offers []Offer
	if err := decodePath(value, "offers", &offers); err != nil {
		return err
	}
	cfg.Offers = make(map[string]Offer, len(offers))
	for _, o := range offers {
		cfg.Offers[o.OfferID] = o
	}

	if err := decodePath(value, "churn", &cfg.Churn); err != nil {
		return err
	}

	if err := decodePath(value, "regulatory_exams", &cfg.RegulatoryExams); err != nil {
		return err
	}

	if err := decodePath(value, "reputation", &cfg.Reputation); err != nil {
		return err
	}

	var dials []RiskDial
	if err := decodePath(value, "risk_dials", &dials); err != nil {
		return err
	}
	cfg.RiskDials = make(map[string]RiskDial, len(dials))
	for _, d := range dials {
		cfg.RiskDials[d.DialID] = d
	}

	return nil
}

func decodePath(value cue.Value, path string, out any) error {
	v := value.LookupPath(cue.ParsePath(path))
	if !v.Exists() {
		return sim.InvalidConfig("missing catalog section " + path)
	}
	if err := v.Decode(out); err != nil {
		return sim.ConfigErr("decode catalog section "+path, err)
	}
	return nil
}
