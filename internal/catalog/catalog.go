package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// UserProfile describes the training context the matcher ranks against.
type UserProfile struct {
	ID                  string   `json:"id,omitempty"`
	Goal                string   `json:"goal"`
	DaysPerWeek         int      `json:"days_per_week"`
	SessionMinutes      int      `json:"session_minutes"`
	Level               string   `json:"level"`
	EquipmentAvailable  []string `json:"equipment_available"`
	InjuriesLimitations []string `json:"injuries_limitations"`
	Avoid               []string `json:"avoid"`
	Preferences         []string `json:"preferences"`
}

// Clone returns a deep copy of the profile.
func (p UserProfile) Clone() UserProfile {
	out := p
	out.EquipmentAvailable = append([]string(nil), p.EquipmentAvailable...)
	out.InjuriesLimitations = append([]string(nil), p.InjuriesLimitations...)
	out.Avoid = append([]string(nil), p.Avoid...)
	out.Preferences = append([]string(nil), p.Preferences...)
	return out
}

// Exercise is one catalog entry.
type Exercise struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	MusclesPrimary    []string   `json:"muscles_primary"`
	MusclesSecondary  []string   `json:"muscles_secondary"`
	Movement          string     `json:"movement"`
	Equipment         []string   `json:"equipment"`
	Difficulty        Difficulty `json:"difficulty"`
	Contraindications []string   `json:"contraindications"`
	Tags              []string   `json:"tags"`
	Alternatives      []string   `json:"alternatives"`
}

// Difficulty is stored as a level name; datasets also encode it numerically
// (1=beginner, 2=intermediate, 3=advanced), so decoding accepts both.
type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

// UnmarshalJSON coerces numeric or string difficulty codes to a level name,
// defaulting to intermediate for anything unrecognized.
func (d *Difficulty) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		*d = difficultyFromCode(int(v))
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		switch s {
		case "beginner", "intermediate", "advanced":
			*d = Difficulty(s)
		case "1", "2", "3":
			*d = difficultyFromCode(int(s[0] - '0'))
		default:
			*d = Intermediate
		}
	default:
		*d = Intermediate
	}
	return nil
}

func difficultyFromCode(code int) Difficulty {
	switch code {
	case 1:
		return Beginner
	case 3:
		return Advanced
	default:
		return Intermediate
	}
}

// Catalog is the exercise catalog.
type Catalog struct {
	Exercises []Exercise `json:"exercises"`
}

// LoadProfile reads a user profile JSON file.
func LoadProfile(path string) (UserProfile, error) {
	var p UserProfile
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read profile %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if p.Goal == "" {
		p.Goal = "hypertrophy"
	}
	if p.Level == "" {
		p.Level = "intermediate"
	}
	return p, nil
}

// LoadCatalog reads the exercise catalog JSON file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return &c, nil
}
