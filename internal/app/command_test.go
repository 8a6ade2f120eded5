package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotlight/internal/config"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    Options
		wantErr bool
	}{
		{"none", nil, Options{}, false},
		{"port", []string{"34987"}, Options{Port: 34987}, false},
		{"port and pid", []string{"34987", "4242"}, Options{Port: 34987, ParentPID: 4242}, false},
		{"bad port", []string{"http"}, Options{}, true},
		{"port out of range", []string{"70000"}, Options{}, true},
		{"bad pid", []string{"1", "-5"}, Options{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Options
			err := parseArgs(tt.args, &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommandFlags(t *testing.T) {
	cmd := NewCommand()

	require.NoError(t, cmd.ParseFlags([]string{"--host", "10.0.0.2", "--debug", "--config-dir", "/tmp/x"}))
	host, _ := cmd.Flags().GetString("host")
	debug, _ := cmd.Flags().GetBool("debug")
	dir, _ := cmd.Flags().GetString("config-dir")
	assert.Equal(t, "10.0.0.2", host)
	assert.True(t, debug)
	assert.Equal(t, "/tmp/x", dir)

	assert.Error(t, cmd.Args(cmd, []string{"1", "2", "3"}))
}

func TestEffectiveConfigLeavesSavedUntouched(t *testing.T) {
	saved := config.Default()

	cfg := effectiveConfig(saved, Options{Host: "10.0.0.2", Port: 4000})

	assert.Equal(t, "ws://10.0.0.2:4000/ws", cfg.ServerURL())
	assert.Equal(t, "localhost", saved.ServerHost)
	assert.Equal(t, config.DefaultPort, saved.ServerPort)

	cfg = effectiveConfig(saved, Options{})
	assert.Equal(t, saved.ServerURL(), cfg.ServerURL())
	assert.NotSame(t, saved, cfg)
}
