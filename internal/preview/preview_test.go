package preview

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"

	"i3d-treeplant/internal/extract"
	"i3d-treeplant/internal/mathutil"
	"i3d-treeplant/internal/treetypes"
)

func trees() []extract.TreeInstance {
	return []extract.TreeInstance{
		{Type: "oak", Position: mathutil.Vec3{-100, 0, -100}, Stage: 5, Variation: 1},
		{Type: "spruce", Position: mathutil.Vec3{100, 0, 100}, Stage: 5, Variation: 1},
		{Type: "birch", Position: mathutil.Vec3{0, 0, 0}, Stage: 1, Variation: 1},
	}
}

func TestRenderEmpty(t *testing.T) {
	img := Render(nil, treetypes.New(nil), Options{Size: 32, Supersample: 1})
	if img.Bounds() != image.Rect(0, 0, 32, 32) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if got := img.NRGBAAt(16, 16); got != background {
		t.Errorf("pixel = %v, want background", got)
	}
}

func TestRenderPlacesTrees(t *testing.T) {
	cat := treetypes.New(nil)
	img := Render(trees(), cat, Options{Size: 256, Supersample: 1})
	if img.Bounds().Dx() != 256 {
		t.Fatalf("size = %v", img.Bounds())
	}

	colors := assignColors([]string{"oak", "spruce", "birch"})

	// 200 m span over 256-32 px; the oak sits at the top-left margin.
	if got := img.NRGBAAt(17, 17); got != colors["oak"] {
		t.Errorf("oak pixel = %v, want %v", got, colors["oak"])
	}
	// Conifer triangle: centroid area filled, top corners of its box not.
	if got := img.NRGBAAt(239, 240); got != colors["spruce"] {
		t.Errorf("spruce pixel = %v, want %v", got, colors["spruce"])
	}
	// Growing birch is shaded darker than its palette color.
	got := img.NRGBAAt(128, 128)
	want := colors["birch"]
	if got == want || got == background {
		t.Errorf("birch pixel = %v, want shaded %v", got, want)
	}
}

func TestRenderSupersampleAndLegend(t *testing.T) {
	img := Render(trees(), treetypes.New(nil), Options{Size: 128, Supersample: 2, Legend: true})
	if img.Bounds() != image.Rect(0, 0, 128, 128) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	// The legend panel darkens the top-left corner.
	plain := Render(trees(), treetypes.New(nil), Options{Size: 128, Supersample: 2})
	if img.NRGBAAt(12, 12) == plain.NRGBAAt(12, 12) {
		t.Error("legend panel not drawn")
	}
}

func TestIsConifer(t *testing.T) {
	for typ, want := range map[string]bool{
		"spruce":          true,
		"pinusSylvestris": true,
		"lodgepolePine":   true,
		"oak":             false,
		"birch":           false,
	} {
		if got := isConifer(typ); got != want {
			t.Errorf("isConifer(%q) = %v, want %v", typ, got, want)
		}
	}
}

func TestAssignColorsStable(t *testing.T) {
	a := assignColors([]string{"oak", "birch"})
	b := assignColors([]string{"birch", "oak"})
	if a["oak"] != b["oak"] || a["birch"] != b["birch"] {
		t.Errorf("colors depend on input order: %v vs %v", a, b)
	}
	if a["oak"] == a["birch"] {
		t.Error("distinct types share a color")
	}
}

func TestDownsample(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i] = 200
		src.Pix[i+3] = 255
	}
	dst := Downsample(src, 4)
	if dst.Bounds().Dx() != 4 {
		t.Fatalf("bounds = %v", dst.Bounds())
	}
	if got := dst.NRGBAAt(1, 1); got != (color.NRGBA{R: 200, A: 255}) {
		t.Errorf("pixel = %v", got)
	}
	if same := Downsample(src, 16); same != src {
		t.Error("upscale request should return the input")
	}
}

func TestSaveFormats(t *testing.T) {
	img := Render(trees(), treetypes.New(nil), Options{Size: 64, Supersample: 1})
	dir := t.TempDir()

	for _, name := range []string{"out/preview.webp", "out/preview.tga", "out/preview.PNG"} {
		path := filepath.Join(dir, name)
		if err := Save(path, img); err != nil {
			t.Fatalf("Save(%s): %v", name, err)
		}
		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		var decoded image.Image
		// Decode each format explicitly; the tga decoder registered with
		// package image accepts any header.
		switch strings.ToLower(filepath.Ext(name)) {
		case ".webp":
			decoded, err = nativewebp.Decode(f)
		case ".tga":
			decoded, err = tga.Decode(f)
		case ".png":
			decoded, err = png.Decode(f)
		}
		f.Close()
		if err != nil {
			t.Fatalf("decode %s: %v", name, err)
		}
		if decoded.Bounds().Dx() != 64 || decoded.Bounds().Dy() != 64 {
			t.Errorf("%s bounds = %v", name, decoded.Bounds())
		}
	}

	if err := Save(filepath.Join(dir, "preview.jpg"), img); err == nil {
		t.Error("expected error for .jpg")
	}
}

func TestTopDownView(t *testing.T) {
	view := topDownView(mathutil.Vec3{10, 0, 20}, 2, 50)

	tests := []struct {
		world, want mathutil.Vec3
	}{
		{mathutil.Vec3{10, 3, 20}, mathutil.Vec3{50, 50, 3}},
		{mathutil.Vec3{15, 0, 20}, mathutil.Vec3{60, 50, 0}},
		{mathutil.Vec3{10, 0, 25}, mathutil.Vec3{50, 60, 0}},
		{mathutil.Vec3{0, -1, 0}, mathutil.Vec3{30, 10, -1}},
	}
	for _, tt := range tests {
		got := view.MulPoint(tt.world)
		for i := 0; i < 3; i++ {
			if math.Abs(got[i]-tt.want[i]) > 1e-9 {
				t.Errorf("project %v = %v, want %v", tt.world, got, tt.want)
				break
			}
		}
	}
}
