package kafka

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/require"
)

func TestCreateChannel_RequiresBrokers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "empty broker list", cfg: Config{}},
		{name: "blank broker address", cfg: Config{Brokers: []string{""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pub, sub, err := CreateChannel(watermill.NopLogger{}, tt.cfg)
			require.Error(t, err)
			require.Nil(t, pub)
			require.Nil(t, sub)
		})
	}
}
