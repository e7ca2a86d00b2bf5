package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplicitCoordinates(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		explicit bool
		wantErr  bool
	}{
		{name: "none", args: nil},
		{name: "both", args: []string{"--lat", "21.1458", "--lon", "79.0882"}, explicit: true},
		{name: "latitude only", args: []string{"--lat", "21.1458"}, wantErr: true},
		{name: "longitude only", args: []string{"--lon", "79.0882"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lat, lon float64
			cmd := &cobra.Command{Use: "add"}
			cmd.Flags().Float64Var(&lat, "lat", 0, "")
			cmd.Flags().Float64Var(&lon, "lon", 0, "")
			require.NoError(t, cmd.Flags().Parse(tt.args))

			explicit, err := explicitCoordinates(cmd)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.explicit, explicit)
		})
	}
}
