package identify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/aviation-bay/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRules_MissingFileUsesDefaults(t *testing.T) {
	rules, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rules)
}

func TestLoadRules_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `rules:
  - category: "5"
    patterns: [antonov, an-124]
    keywords: [heavy]
    priority_hints: [low]
    confidence: 0.91
  - category: "4"
    patterns: [reaper]
    confidence: 0.85
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, model.CategoryCargo, rules[0].Category)
	assert.Equal(t, []string{"antonov", "an-124"}, rules[0].Patterns)
	assert.Equal(t, []string{"heavy"}, rules[0].Keywords)
	assert.Equal(t, []model.Priority{model.PriorityLow}, rules[0].PriorityHints)
	assert.InDelta(t, 0.91, rules[0].BaseConfidence, 1e-9)
	assert.Empty(t, rules[1].Keywords)

	id, err := New(rules)
	require.NoError(t, err)
	got := id.Classify(model.Report{Name: "MQ-9 Reaper", Priority: model.PriorityHigh})
	assert.Equal(t, model.CategoryDrone, got.Category)
}

func TestParseRules(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		errMsg  string
		wantErr bool
	}{
		{
			name:  "valid",
			input: "rules:\n  - category: \"1\"\n    patterns: [viper]\n    confidence: 0.9\n",
		},
		{
			name:    "malformed yaml",
			input:   "rules: [\n",
			wantErr: true,
			errMsg:  "failed to parse rules",
		},
		{
			name:    "no rules",
			input:   "rules: []\n",
			wantErr: true,
			errMsg:  "no rules",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules, err := ParseRules([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, rules)
		})
	}
}

func TestParseRules_InvalidRuleRejectedByNew(t *testing.T) {
	rules, err := ParseRules([]byte("rules:\n  - category: \"7\"\n    patterns: [x]\n    confidence: 0.9\n"))
	require.NoError(t, err)

	_, err = New(rules)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule 0")
}
