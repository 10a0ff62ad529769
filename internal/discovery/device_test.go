package discovery

import (
	"testing"

	"github.com/muurk/smartip/internal/protocol"
)

func portPtr(p uint16) *uint16 { return &p }

func TestDevice_String(t *testing.T) {
	tests := []struct {
		name     string
		device   *Device
		expected string
	}{
		{
			name: "with port",
			device: &Device{
				Name:      "device-1",
				Addresses: []string{"192.168.1.50"},
				Port:      portPtr(5353),
			},
			expected: "Smart-IP Device device-1 at 192.168.1.50:5353",
		},
		{
			name:     "without port or address",
			device:   &Device{Name: "device-2"},
			expected: "Smart-IP Device device-2 at ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.device.String(); got != tt.expected {
				t.Errorf("Device.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDevice_BaseURL(t *testing.T) {
	tests := []struct {
		name     string
		device   *Device
		expected string
	}{
		{
			name: "standard HTTP port",
			device: &Device{
				Addresses: []string{"192.168.4.16"},
				Port:      portPtr(80),
			},
			expected: "http://192.168.4.16:80",
		},
		{
			name: "first address wins",
			device: &Device{
				Addresses: []string{"10.0.0.5", "10.0.0.6"},
				Port:      portPtr(8080),
			},
			expected: "http://10.0.0.5:8080",
		},
		{
			name:     "no port",
			device:   &Device{Addresses: []string{"10.0.0.5"}},
			expected: "",
		},
		{
			name:     "no address",
			device:   &Device{Port: portPtr(80)},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.device.BaseURL(); got != tt.expected {
				t.Errorf("Device.BaseURL() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDevice_GetProperty(t *testing.T) {
	device := &Device{
		Properties: protocol.TXT{
			"path":   protocol.StringValue("/"),
			"secure": protocol.FlagValue(),
		},
	}

	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{name: "string value", key: "path", expected: "/"},
		{name: "flag reads as true", key: "secure", expected: "true"},
		{name: "non-existent key", key: "missing", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := device.GetProperty(tt.key); got != tt.expected {
				t.Errorf("Device.GetProperty(%v) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestDevice_GetProperty_NilMap(t *testing.T) {
	device := &Device{}

	if got := device.GetProperty("anything"); got != "" {
		t.Errorf("Device.GetProperty() with nil map = %v, want empty string", got)
	}
}

func TestDevice_HasPort(t *testing.T) {
	if (&Device{}).HasPort() {
		t.Error("Device without SRV should not have a port")
	}
	if !(&Device{Port: portPtr(0)}).HasPort() {
		t.Error("Port 0 from SRV is still a port")
	}
}

func TestDevice_Clone(t *testing.T) {
	orig := Device{
		Name:       "device-1",
		Addresses:  []string{"192.168.1.50"},
		Port:       portPtr(80),
		Properties: protocol.TXT{"a": protocol.StringValue("1")},
	}

	c := orig.Clone()
	c.Addresses[0] = "10.0.0.1"
	*c.Port = 81
	c.Properties["b"] = protocol.FlagValue()

	if orig.Addresses[0] != "192.168.1.50" {
		t.Errorf("Clone shares addresses with original")
	}
	if *orig.Port != 80 {
		t.Errorf("Clone shares port with original")
	}
	if len(orig.Properties) != 1 {
		t.Errorf("Clone shares properties with original")
	}
}
