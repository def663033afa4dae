package routekit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Config
		wantErr string
	}{
		{
			name:  "full",
			input: "run_policy: unlimited\nconcurrency: 8\n",
			want:  Config{RunPolicy: Unlimited, Concurrency: 8},
		},
		{
			name:  "defaults for missing keys",
			input: "run_policy: one_run_per_router\n",
			want:  Config{RunPolicy: OneRunPerRouter, Concurrency: 1},
		},
		{
			name:  "empty document",
			input: "",
			want:  DefaultConfig(),
		},
		{
			name:    "unknown policy",
			input:   "run_policy: sometimes\n",
			wantErr: "unknown run policy",
		},
		{
			name:    "unknown key",
			input:   "workers: 3\n",
			wantErr: "field workers not found",
		},
		{
			name:    "zero concurrency",
			input:   "concurrency: 0\n",
			wantErr: "concurrency must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadConfig(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithConfig(t *testing.T) {
	d := New(nil, WithConfig(Config{RunPolicy: Unlimited, Concurrency: 4}))

	assert.Equal(t, Unlimited, d.RunPolicy())
	assert.Equal(t, 4, d.concurrency)
}

func TestRunPolicy_Names(t *testing.T) {
	for _, p := range []RunPolicy{OneRunPerEvent, OneRunPerRouter, Unlimited} {
		out, err := yaml.Marshal(map[string]RunPolicy{"run_policy": p})
		require.NoError(t, err)
		assert.Equal(t, "run_policy: "+p.String()+"\n", string(out))

		parsed, err := ParseRunPolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}

	_, err := ParseRunPolicy("never")
	assert.ErrorIs(t, err, ErrUnknownRunPolicy)
	assert.Equal(t, "run_policy(7)", RunPolicy(7).String())
	assert.NoError(t, DefaultConfig().Validate())
	assert.ErrorIs(t, Config{RunPolicy: RunPolicy(7), Concurrency: 1}.Validate(), ErrUnknownRunPolicy)
}
