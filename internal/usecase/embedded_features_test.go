package usecase_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiru781/cursior/features"
	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/steps"
	"github.com/chiru781/cursior/internal/usecase"
)

func TestEmbeddedFeaturesAreFullyDefined(t *testing.T) {
	infos, err := usecase.ListFeatures(features.FS, nil)
	require.NoError(t, err)
	require.Len(t, infos, 3)

	want := 0
	for _, f := range infos {
		assert.Empty(t, f.ParseError, f.Path)
		want += f.ScenarioCount()
	}

	cfg := domain.DefaultConfig()
	cfg.Paths.Reports = t.TempDir()
	cfg.Paths.Screenshots = ""
	cfg.Paths.Logs = ""
	cfg.Paths.TestData = ""

	uc := usecase.NewValidateFeatures(usecase.NewRunSuite(cfg, features.FS, steps.Deps{}))
	rep, err := uc.Execute(context.Background(), usecase.ValidateOptions{})
	require.NoError(t, err)
	assert.Empty(t, rep.Issues)
	assert.True(t, rep.OK())
	assert.Equal(t, want, rep.Scenarios)
}

func TestEmbeddedFeaturesCarryTheSuiteTags(t *testing.T) {
	infos, err := usecase.ListFeatures(features.FS, nil)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, f := range infos {
		for _, sc := range f.Scenarios {
			for _, tag := range sc.Tags {
				seen[tag] = true
			}
		}
	}
	for _, tag := range []string{"@smoke", "@regression", "@api", "@database", "@email", "@wip"} {
		assert.True(t, seen[tag], tag)
	}
}

func TestEmbeddedFeaturesUseEveryStep(t *testing.T) {
	infos, err := usecase.ListFeatures(features.FS, nil)
	require.NoError(t, err)

	var texts []string
	for _, f := range infos {
		texts = append(texts, f.Background...)
		for _, sc := range f.Scenarios {
			texts = append(texts, sc.Steps...)
		}
	}

	for _, def := range steps.Definitions() {
		re := regexp.MustCompile(def.Pattern)
		used := false
		for _, text := range texts {
			if re.MatchString(text) {
				used = true
				break
			}
		}
		assert.True(t, used, "%s step %q is not used by any feature", def.Area, def.Pattern)
	}
}
