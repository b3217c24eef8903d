package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestBar_Write(t *testing.T) {
	tests := []struct {
		name string
		bar  *Bar
		want string
	}{
		{
			name: "half",
			bar:  &Bar{Name: "a.pkl", Width: 4, Total: 2000, Completed: 1000},
			want: "a.pkl [++--] 1kB/2kB\n",
		},
		{
			name: "indeterminate",
			bar:  &Bar{Name: "a.pkl", Width: 4, Status: "pending"},
			want: "a.pkl [----] pending\n",
		},
		{
			name: "done",
			bar:  &Bar{Name: "a.pkl", Width: 4, Status: "done", Done: true},
			want: "a.pkl [++++] done\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.bar.Write(buf)
			if got := buf.String(); got != tt.want {
				t.Errorf("Write() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBar_WrapWriter(t *testing.T) {
	out := &bytes.Buffer{}
	mb := NewMultiBar(out, 10)
	bar := mb.Add("b.h5", "downloading")
	bar.SetTotal(6)

	dst := &bytes.Buffer{}
	if _, err := bar.WrapWriter(dst).Write([]byte("abcdef")); err != nil {
		t.Fatal(err)
	}
	bar.Finish("done")
	mb.print()

	if bar.Completed != 6 {
		t.Errorf("Completed = %d, want 6", bar.Completed)
	}
	if !strings.Contains(out.String(), "b.h5 [++++++++++] done") {
		t.Errorf("output = %q", out.String())
	}
}

func TestNilBar(t *testing.T) {
	var mb *MultiBar
	bar := mb.Add("x", "pending")
	bar.SetTotal(1)
	bar.Increment(1)
	bar.Finish("done")

	dst := &bytes.Buffer{}
	if w := bar.WrapWriter(dst); w != dst {
		t.Errorf("WrapWriter() on nil bar should return the writer unchanged")
	}
}
