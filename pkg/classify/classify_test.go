package classify

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		path string
		want Path
	}{
		{
			name: "instance action file",
			path: "/nf-types/firewall/fw-a/action",
			want: Path{Opcode: NF, NFType: "firewall", InstanceName: "fw-a", LeafName: "action"},
		},
		{
			name: "instance stats file",
			path: "/nf-types/firewall/fw-a/stats/rx_bytes",
			want: Path{Opcode: NF, NFType: "firewall", InstanceName: "fw-a", LeafName: "rx_bytes"},
		},
		{
			name: "type directory",
			path: "/nf-types/firewall",
			want: Path{Opcode: NF, NFType: "firewall", LeafName: "firewall"},
		},
		{
			name: "nf-types root itself",
			path: "/nf-types",
			want: Path{Opcode: NF, LeafName: "nf-types"},
		},
		{
			name: "unrelated path",
			path: "/etc/passwd",
			want: Path{Opcode: Undefined, LeafName: "passwd"},
		},
		{
			name: "root",
			path: "/",
			want: Path{Opcode: Undefined, LeafName: ""},
		},
		{
			name: "no leading slash",
			path: "nf-types/nginx/web-1/status",
			want: Path{Opcode: NF, NFType: "nginx", InstanceName: "web-1", LeafName: "status"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.path)
			if got != tt.want {
				t.Errorf("Classify(%q) = %+v, want %+v", tt.path, got, tt.want)
			}
		})
	}
}

func TestOpcodeString(t *testing.T) {
	if NF.String() != "NF" {
		t.Errorf("NF.String() = %q, want NF", NF.String())
	}
	if Undefined.String() != "UNDEFINED" {
		t.Errorf("Undefined.String() = %q, want UNDEFINED", Undefined.String())
	}
}

func TestIsInstanceDir(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/nf-types/firewall/fw-a", true},
		{"/nf-types/firewall", false},
		{"/nf-types", false},
		{"/nf-types/firewall/fw-a/action", false},
		{"/etc/passwd", false},
	}
	for _, tt := range tests {
		if got := IsInstanceDir(tt.path); got != tt.want {
			t.Errorf("IsInstanceDir(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestIsTypeDir(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/nf-types/firewall", true},
		{"/nf-types/firewall/fw-a", false},
		{"/nf-types", false},
	}
	for _, tt := range tests {
		if got := IsTypeDir(tt.path); got != tt.want {
			t.Errorf("IsTypeDir(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
