package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		want    zerolog.Level
		wantErr bool
	}{
		{
			name:   "defaults to info",
			config: Config{},
			want:   zerolog.InfoLevel,
		},
		{
			name:   "debug flag wins",
			config: Config{Debug: true, Level: "error"},
			want:   zerolog.DebugLevel,
		},
		{
			name:   "explicit level",
			config: Config{Level: "warn"},
			want:   zerolog.WarnLevel,
		},
		{
			name:    "invalid level",
			config:  Config{Level: "shouting"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.config)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, log.GetLevel())
		})
	}
}
