package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNvidiaSMI(t *testing.T) {
	output := `0, NVIDIA GeForce RTX 4090, 61, 87, 20100, 24564, 55, 312.45
1, NVIDIA GeForce RTX 4090, 40, 0, 3, 24564, 30, 21.02
`
	devices, err := ParseNvidiaSMI(output)
	require.NoError(t, err)
	require.Len(t, devices, 2)

	d := devices[0]
	assert.Equal(t, 0, d.Index)
	assert.Equal(t, "NVIDIA GeForce RTX 4090", d.Name)
	assert.Equal(t, 61, d.Temperature)
	assert.Equal(t, 87, d.Utilization.GPU)
	assert.Equal(t, 20100, d.Memory.Used)
	assert.Equal(t, 24564, d.Memory.Total)
	assert.Equal(t, 24564-20100, d.Memory.Free)
	assert.Equal(t, 55, d.Fan.Speed)
	require.NotNil(t, d.Power.Draw)
	assert.InDelta(t, 312.45, *d.Power.Draw, 0.001)

	assert.Equal(t, 1, devices[1].Index)
}

func TestParseNvidiaSMI_Unavailable(t *testing.T) {
	tests := []struct {
		name      string
		output    string
		wantFan   int
		wantPower bool
	}{
		{"power not available", "0, Tesla T4, 50, 10, 100, 15360, 0, [N/A]", 0, false},
		{"fan not supported", "0, A100-SXM4, 50, 10, 100, 40960, [Not Supported], 90.5", 0, true},
		{"both missing", "0, H100, 50, 10, 100, 81559, [N/A], [Not Supported]", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			devices, err := ParseNvidiaSMI(tt.output)
			require.NoError(t, err)
			require.Len(t, devices, 1)
			assert.Equal(t, tt.wantFan, devices[0].Fan.Speed)
			assert.Equal(t, tt.wantPower, devices[0].Power.Draw != nil)
		})
	}
}

func TestParseNvidiaSMI_SkipsRowsWithoutMemoryTotal(t *testing.T) {
	output := "0, Broken, 50, 10, 0, 0, 20, 10\n1, Fine, 50, 10, 100, 8192, 20, 10"

	devices, err := ParseNvidiaSMI(output)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, 1, devices[0].Index)
}

func TestParseNvidiaSMI_EmptyOutput(t *testing.T) {
	for _, out := range []string{"", "   \n\n"} {
		devices, err := ParseNvidiaSMI(out)
		require.NoError(t, err)
		assert.NotNil(t, devices)
		assert.Empty(t, devices)
	}
}

func TestParseNvidiaSMI_Errors(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"too few fields", "0, RTX 3080, 45, 2048"},
		{"bad index", "x, RTX 3080, 45, 10, 100, 8192, 20, 10"},
		{"bad temperature", "0, RTX 3080, hot, 10, 100, 8192, 20, 10"},
		{"bad power", "0, RTX 3080, 45, 10, 100, 8192, 20, lots"},
		{"second line broken", "0, A, 1, 1, 1, 10, 1, 1\n1, B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseNvidiaSMI(tt.output)
			assert.Error(t, err)
		})
	}
}

func TestParseNvidiaSMI_DecimalIntegers(t *testing.T) {
	devices, err := ParseNvidiaSMI("0, GPU, 45.0, 12.00, 100, 8192, 33.0, 50")
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, 45, devices[0].Temperature)
	assert.Equal(t, 12, devices[0].Utilization.GPU)
	assert.Equal(t, 33, devices[0].Fan.Speed)
}

func TestCommand(t *testing.T) {
	assert.Equal(t,
		"nvidia-smi --query-gpu=index,name,temperature.gpu,utilization.gpu,memory.used,memory.total,fan.speed,power.draw --format=csv,noheader,nounits",
		Command(""))
	assert.Contains(t, Command("/usr/bin/nvidia-smi"), "/usr/bin/nvidia-smi --query-gpu=")
}
