package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config models lairkeep.yml: every tunable the rule engine consumes.
// It is handed to the engine at construction and read-only after that.
type Config struct {
	Moods struct {
		Happy    string `yaml:"happy" json:"happy"`
		Grumpy   string `yaml:"grumpy" json:"grumpy"`
		Betrayal string `yaml:"betrayal" json:"betrayal"`
	} `yaml:"moods" json:"moods"`
	Loyalty struct {
		High       int `yaml:"high" json:"high"`
		Low        int `yaml:"low" json:"low"`
		GrowthRate int `yaml:"growth_rate" json:"growth_rate"`
		DecayRate  int `yaml:"decay_rate" json:"decay_rate"`
		Default    int `yaml:"default" json:"default"`
	} `yaml:"loyalty" json:"loyalty"`
	Equipment struct {
		MinOperationalCondition int     `yaml:"min_operational_condition" json:"min_operational_condition"`
		BrokenBelowCondition    int     `yaml:"broken_below_condition" json:"broken_below_condition"`
		DegradationRate         int     `yaml:"degradation_rate" json:"degradation_rate"`
		MaintenancePct          float64 `yaml:"maintenance_pct" json:"maintenance_pct"`
		DoomsdayMaintenancePct  float64 `yaml:"doomsday_maintenance_pct" json:"doomsday_maintenance_pct"`
		DoomsdayCategory        string  `yaml:"doomsday_category" json:"doomsday_category"`
	} `yaml:"equipment" json:"equipment"`
	Schemes struct {
		BaseSuccessLikelihood int    `yaml:"base_success_likelihood" json:"base_success_likelihood"`
		ActiveStatus          string `yaml:"active_status" json:"active_status"`
	} `yaml:"schemes" json:"schemes"`
	Specialties []string `yaml:"specialties" json:"specialties"`
	Categories  []string `yaml:"categories" json:"categories"`
}

// Default returns the stock rule tunables.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
	return &cfg
}

// Validate ensures the tunables are internally consistent.
func (c *Config) Validate() error {
	if c.Moods.Happy == "" || c.Moods.Grumpy == "" || c.Moods.Betrayal == "" {
		return fmt.Errorf("config.moods: all three labels are required")
	}
	if c.Loyalty.Low < 0 || c.Loyalty.High > 100 || c.Loyalty.Low >= c.Loyalty.High {
		return fmt.Errorf("config.loyalty: thresholds must satisfy 0 <= low < high <= 100")
	}
	if c.Loyalty.GrowthRate < 0 || c.Loyalty.DecayRate < 0 {
		return fmt.Errorf("config.loyalty: rates must be non-negative")
	}
	if c.Loyalty.Default < 0 || c.Loyalty.Default > 100 {
		return fmt.Errorf("config.loyalty.default must be in [0,100]")
	}
	if c.Equipment.MinOperationalCondition < 0 || c.Equipment.MinOperationalCondition > 100 {
		return fmt.Errorf("config.equipment.min_operational_condition must be in [0,100]")
	}
	if c.Equipment.BrokenBelowCondition < 0 || c.Equipment.BrokenBelowCondition > 100 {
		return fmt.Errorf("config.equipment.broken_below_condition must be in [0,100]")
	}
	if c.Equipment.DegradationRate < 0 {
		return fmt.Errorf("config.equipment.degradation_rate must be non-negative")
	}
	if c.Equipment.MaintenancePct < 0 || c.Equipment.DoomsdayMaintenancePct < 0 {
		return fmt.Errorf("config.equipment: maintenance percentages must be non-negative")
	}
	if c.Equipment.DoomsdayCategory == "" {
		return fmt.Errorf("config.equipment.doomsday_category is required")
	}
	if c.Schemes.BaseSuccessLikelihood < 0 || c.Schemes.BaseSuccessLikelihood > 100 {
		return fmt.Errorf("config.schemes.base_success_likelihood must be in [0,100]")
	}
	if c.Schemes.ActiveStatus == "" {
		return fmt.Errorf("config.schemes.active_status is required")
	}
	if len(c.Specialties) == 0 {
		return fmt.Errorf("config.specialties must not be empty")
	}
	for _, s := range c.Specialties {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("config.specialties contains a blank entry")
		}
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("config.categories must not be empty")
	}
	for _, cat := range c.Categories {
		if strings.TrimSpace(cat) == "" {
			return fmt.Errorf("config.categories contains a blank entry")
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "lairkeep.yml")
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; import with lk config import --file <path>", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

const defaultTemplate = `moods:
  happy: Happy
  grumpy: Grumpy
  betrayal: Plotting Betrayal

loyalty:
  high: 70
  low: 40
  growth_rate: 3
  decay_rate: 5
  default: 50

equipment:
  min_operational_condition: 50
  broken_below_condition: 20
  degradation_rate: 5
  maintenance_pct: 0.15
  doomsday_maintenance_pct: 0.30
  doomsday_category: Doomsday Device

schemes:
  base_success_likelihood: 50
  active_status: Active

specialties:
  - Hacking
  - Explosives
  - Disguise
  - Combat
  - Engineering
  - Piloting

categories:
  - Weapon
  - Vehicle
  - Gadget
  - Doomsday Device
`
