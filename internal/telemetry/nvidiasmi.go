package telemetry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rileyhilliard/trainq/internal/api"
)

// QueryArgs are the nvidia-smi arguments whose output ParseNvidiaSMI expects.
var QueryArgs = []string{
	"--query-gpu=index,name,temperature.gpu,utilization.gpu,memory.used,memory.total,fan.speed,power.draw",
	"--format=csv,noheader,nounits",
}

// queryFields is the number of columns in one QueryArgs row.
const queryFields = 8

// commandNotFound is the shell exit status for a missing binary.
const commandNotFound = 127

// Command returns the full shell command line for a given nvidia-smi binary.
func Command(binary string) string {
	if binary == "" {
		binary = "nvidia-smi"
	}
	return binary + " " + strings.Join(QueryArgs, " ")
}

// ParseNvidiaSMI parses the CSV output of nvidia-smi with QueryArgs, one
// device per line.
//
// Rows reporting memory.total <= 0 are skipped. Fields nvidia-smi can't read
// ("[N/A]", "[Not Supported]") are treated as zero, except power which is
// left nil.
func ParseNvidiaSMI(output string) ([]api.Device, error) {
	devices := []api.Device{}

	for n, line := range strings.Split(strings.TrimSpace(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) < queryFields {
			return nil, fmt.Errorf("nvidia-smi line %d has insufficient fields: expected %d, got %d",
				n+1, queryFields, len(fields))
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		dev, err := parseRow(fields)
		if err != nil {
			return nil, fmt.Errorf("nvidia-smi line %d: %w", n+1, err)
		}
		if dev.Memory.Total <= 0 {
			continue
		}
		devices = append(devices, dev)
	}

	return devices, nil
}

func parseRow(f []string) (api.Device, error) {
	var dev api.Device
	var err error

	if dev.Index, err = parseInt(f[0], "index"); err != nil {
		return dev, err
	}
	dev.Name = f[1]
	if dev.Temperature, err = parseInt(f[2], "temperature"); err != nil {
		return dev, err
	}
	if dev.Utilization.GPU, err = parseInt(f[3], "utilization"); err != nil {
		return dev, err
	}
	if dev.Memory.Used, err = parseInt(f[4], "memory used"); err != nil {
		return dev, err
	}
	if dev.Memory.Total, err = parseInt(f[5], "memory total"); err != nil {
		return dev, err
	}
	dev.Memory.Free = dev.Memory.Total - dev.Memory.Used
	if dev.Fan.Speed, err = parseInt(f[6], "fan speed"); err != nil {
		return dev, err
	}

	if !unavailable(f[7]) {
		power, err := strconv.ParseFloat(f[7], 64)
		if err != nil {
			return dev, fmt.Errorf("failed to parse power draw '%s': %w", f[7], err)
		}
		dev.Power.Draw = &power
	}

	return dev, nil
}

// parseInt accepts integers and the "45.00" style some drivers print.
func parseInt(s, what string) (int, error) {
	if unavailable(s) {
		return 0, nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s '%s': %w", what, s, err)
	}
	return int(v), nil
}

func unavailable(s string) bool {
	return s == "" || strings.HasPrefix(s, "[")
}
