package transcode

import "testing"

func TestScaleFilters(t *testing.T) {
	if got := ScaleFilter(1920, 1080); got != "scale=1920:1080:flags=lanczos" {
		t.Fatalf("got %q", got)
	}
	if got := EvenScaleFilter(1921, 1079); got != "scale=1920:1078:flags=lanczos" {
		t.Fatalf("got %q", got)
	}
	if got := EvenScaleFilter(1, 0); got != "scale=2:2:flags=lanczos" {
		t.Fatalf("got %q", got)
	}
}

func TestPaletteFilter(t *testing.T) {
	got := PaletteFilter(128, "bayer")
	want := "split[a][b];[a]palettegen=max_colors=128[p];[b][p]paletteuse=dither=bayer"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPrependFilter(t *testing.T) {
	if got := PrependFilter("scale=2:2", "fps=10"); got != "scale=2:2,fps=10" {
		t.Fatalf("got %q", got)
	}
	if got := PrependFilter("", "fps=10"); got != "fps=10" {
		t.Fatalf("got %q", got)
	}
	if got := PrependFilter("scale=2:2", ""); got != "scale=2:2" {
		t.Fatalf("got %q", got)
	}
}
