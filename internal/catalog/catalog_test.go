package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDifficultyCoercion(t *testing.T) {
	tests := []struct {
		raw  string
		want Difficulty
	}{
		{`1`, Beginner},
		{`2`, Intermediate},
		{`3`, Advanced},
		{`"beginner"`, Beginner},
		{`"Advanced"`, Advanced},
		{`"2"`, Intermediate},
		{`"expert"`, Intermediate},
		{`null`, Intermediate},
	}
	for _, tt := range tests {
		var d Difficulty
		if err := d.UnmarshalJSON([]byte(tt.raw)); err != nil {
			t.Errorf("unmarshal %s: %v", tt.raw, err)
			continue
		}
		if d != tt.want {
			t.Errorf("difficulty %s: got %q, want %q", tt.raw, d, tt.want)
		}
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exercises.json")
	body := `{"exercises":[
		{"id":"bench_press","name":"Bench Press","difficulty":2,"equipment":["barbell","bench"]},
		{"id":"push_up","name":"Push-Up","difficulty":"beginner"}
	]}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cat.Exercises) != 2 {
		t.Fatalf("got %d exercises, want 2", len(cat.Exercises))
	}
	if cat.Exercises[0].Difficulty != Intermediate {
		t.Errorf("got difficulty %q, want intermediate", cat.Exercises[0].Difficulty)
	}
	if cat.Exercises[1].Difficulty != Beginner {
		t.Errorf("got difficulty %q, want beginner", cat.Exercises[1].Difficulty)
	}
}

func TestLoadProfileDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	if err := os.WriteFile(path, []byte(`{"id":"u1"}`), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Goal != "hypertrophy" || p.Level != "intermediate" {
		t.Errorf("got goal=%q level=%q, want defaults", p.Goal, p.Level)
	}
}

func TestCloneIsDeep(t *testing.T) {
	p := UserProfile{EquipmentAvailable: []string{"dumbbells"}}
	c := p.Clone()
	c.EquipmentAvailable[0] = "barbell"
	if p.EquipmentAvailable[0] != "dumbbells" {
		t.Error("clone shares equipment slice with original")
	}
}
