package units

import "testing"

func TestHumanSize(t *testing.T) {
	tests := []struct {
		size float64
		want string
	}{
		{size: 0, want: "0B"},
		{size: 999, want: "999B"},
		{size: 1000, want: "1kB"},
		{size: 1500 * KB, want: "1.5MB"},
		{size: 44 * MB, want: "44MB"},
		{size: 2 * GB, want: "2GB"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := HumanSize(tt.size); got != tt.want {
				t.Errorf("HumanSize(%v) = %s, want %s", tt.size, got, tt.want)
			}
		})
	}
}

func TestBytesSize(t *testing.T) {
	tests := []struct {
		size float64
		want string
	}{
		{size: 512, want: "512B"},
		{size: KiB, want: "1KiB"},
		{size: 3 * MiB, want: "3MiB"},
		{size: 1.5 * GiB, want: "1.5GiB"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := BytesSize(tt.size); got != tt.want {
				t.Errorf("BytesSize(%v) = %s, want %s", tt.size, got, tt.want)
			}
		})
	}
}
