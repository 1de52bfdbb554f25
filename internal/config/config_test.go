package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/reoring/contractkit/internal/config"
	"github.com/reoring/contractkit/openapi"
	"github.com/reoring/contractkit/pattern"
	"github.com/reoring/contractkit/value"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	c, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(config.Default(), c); diff != "" {
		t.Fatalf("defaults (-want +got):\n%s", diff)
	}

	empty := write(t, "empty.yaml", "")
	if c, err = config.Load(empty); err != nil || c.MaxCombinations != pattern.DefaultMaxCombinations {
		t.Fatalf("empty file should load defaults, got %+v, %v", c, err)
	}
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := write(t, "contractkit.yaml", `
generative: true
maxCombinations: 8
dataTypeNegatives: false
language: ja
`)
	c, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !c.Generative || c.MaxCombinations != 8 || *c.DataTypeNegatives || c.Language != "ja" {
		t.Fatalf("file not applied: %+v", c)
	}

	dotenv := write(t, ".env", "CONTRACTKIT_MAX_COMBINATIONS=4\nCONTRACTKIT_POSITIVE_ONLY=true\n")
	t.Setenv("CONTRACTKIT_MAX_COMBINATIONS", "16")
	c, err = config.Load(path, dotenv, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.MaxCombinations != 16 {
		t.Fatalf("process environment should win over .env, got %d", c.MaxCombinations)
	}
	if !c.PositiveOnly {
		t.Fatalf(".env value not applied")
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]string{
		"unknown field":    "generatve: true\n",
		"bad language":     "language: fr\n",
		"positive only":    "positiveOnly: true\n",
		"bad combinations": "maxCombinations: -1\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := config.Load(write(t, "c.yaml", content)); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}

	t.Run("bad env", func(t *testing.T) {
		t.Setenv("CONTRACTKIT_GENERATIVE", "sometimes")
		_, err := config.Load("")
		if err == nil || !strings.Contains(err.Error(), "CONTRACTKIT_GENERATIVE") {
			t.Fatalf("want an error naming the variable, got %v", err)
		}
	})
}

func TestApply(t *testing.T) {
	dict := write(t, "dict.json", `{"Person.name": "Jane"}`)
	c := config.Default()
	c.Dictionary = dict
	c.Generative = true
	c.OpenObjects = true
	if c.LoadOptions().AdditionalProperties != openapi.OpenByDefault {
		t.Fatalf("open objects not mapped to load options")
	}

	reg := pattern.MustRegistry(map[string]pattern.Pattern{
		"Person": &pattern.ObjectPattern{TypeAlias: "Person", Entries: []pattern.Entry{{Key: "name", Pattern: &pattern.StringPattern{}}}},
	})
	r, err := c.Apply(pattern.NewResolver(reg))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !r.Generation().NegativesEnabled() {
		t.Fatalf("generative strategy not applied")
	}
	v, err := pattern.Generate(pattern.Ref("Person"), r)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	want := value.ObjectOf(value.Pair{Key: "name", Value: value.String("Jane")})
	if !value.Equal(want, v) {
		t.Fatalf("dictionary not used, got %s", v.Display())
	}

	c.Dictionary = filepath.Join(t.TempDir(), "none.json")
	if _, err := c.Apply(pattern.NewResolver(reg)); err == nil {
		t.Fatalf("missing dictionary should fail")
	}
}

func TestApply_UseExamples(t *testing.T) {
	tag := &pattern.StringPattern{Example: value.String("example")}
	path := write(t, "contractkit.yaml", "useExamples: false\n")
	for name, tc := range map[string]struct {
		path string
		env  string
		want bool
	}{
		"default":  {want: true},
		"file":     {path: path, want: false},
		"env":      {env: "false", want: false},
		"env wins": {path: path, env: "true", want: true},
	} {
		t.Run(name, func(t *testing.T) {
			if tc.env != "" {
				t.Setenv("CONTRACTKIT_USE_EXAMPLES", tc.env)
			}
			c, err := config.Load(tc.path)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			r, err := c.Apply(pattern.NewResolver(pattern.MustRegistry(nil)))
			if err != nil {
				t.Fatalf("apply: %v", err)
			}
			v, err := pattern.Generate(tag, r)
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			if got := value.Equal(value.String("example"), v); got != tc.want {
				t.Fatalf("generated %s, example used = %v, want %v", v.Display(), got, tc.want)
			}
		})
	}
}
