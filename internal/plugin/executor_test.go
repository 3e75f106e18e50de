package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/ayusman/mudra/internal/raster"
	"github.com/ayusman/mudra/internal/skin"
	"github.com/go-gl/mathgl/mgl64"
)

// scriptPlugin writes a shell script plugin that runs body.
func scriptPlugin(t *testing.T, body string, capabilities ...string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "plugin.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return &Plugin{
		Manifest:   Manifest{Name: "test", Executable: "plugin.sh", Capabilities: capabilities},
		Path:       dir,
		Executable: path,
	}
}

const twoPixels = `{"success":true,"width":2,"height":1,"pix":"AP8="}`

func TestExecutor_Execute(t *testing.T) {
	p := scriptPlugin(t, "cat >/dev/null\necho '"+twoPixels+"'\n")
	resp, err := NewExecutor(5000).Execute(p, &Request{Action: CapabilityRender})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !resp.Success || resp.Width != 2 || resp.Height != 1 {
		t.Errorf("response = %+v", resp)
	}
	if len(resp.Pix) != 2 || resp.Pix[0] != 0 || resp.Pix[1] != 255 {
		t.Errorf("pix = %v, want [0 255]", resp.Pix)
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	// Echo the action back through the error field.
	p := scriptPlugin(t, `input=$(cat)
case "$input" in
  *'"action":"render"'*) echo '{"success":false,"error":"saw render"}' ;;
  *) echo '{"success":false,"error":"no action"}' ;;
esac
`)
	resp, err := NewExecutor(5000).Execute(p, &Request{Action: "render"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if resp.Error != "saw render" {
		t.Errorf("error = %q, want %q", resp.Error, "saw render")
	}
}

func TestExecutor_Timeout(t *testing.T) {
	p := scriptPlugin(t, "sleep 5\n")
	_, err := NewExecutor(100).Execute(p, &Request{Action: "render"})
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Errorf("expected timeout error, got %v", err)
	}
}

func TestExecutor_Execute_InvalidJSON(t *testing.T) {
	p := scriptPlugin(t, "echo not json\n")
	if _, err := NewExecutor(5000).Execute(p, &Request{}); err == nil {
		t.Error("expected parse error")
	}
}

func TestExecutor_Execute_NonZeroExit(t *testing.T) {
	p := scriptPlugin(t, "echo broken >&2\nexit 3\n")
	_, err := NewExecutor(5000).Execute(p, &Request{})
	if err == nil || !strings.Contains(err.Error(), "broken") {
		t.Errorf("expected error with stderr, got %v", err)
	}
}

func TestRenderer_Render(t *testing.T) {
	p := scriptPlugin(t, "cat >/dev/null\necho '"+twoPixels+"'\n", CapabilityRender)

	r, err := NewRenderer(NewExecutor(5000), p, raster.Camera{Width: 2, Height: 1, Scale: 1})
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	buf, err := r.Render(&skin.Deformed{Positions: []mgl64.Vec3{{0, 0, 0}}, Labels: []int{0}})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if buf.At(0, 0) != 0 || buf.At(1, 0) != 255 {
		t.Errorf("pixels = %v", buf.Pix)
	}
}

func TestRenderer_Failures(t *testing.T) {
	cam := raster.Camera{Width: 4, Height: 4, Scale: 1}

	noCap := scriptPlugin(t, "true\n")
	if _, err := NewRenderer(NewExecutor(1000), noCap, cam); err == nil {
		t.Error("expected error for plugin without render capability")
	}

	failing := scriptPlugin(t, "cat >/dev/null\necho '{\"success\":false,\"error\":\"no gpu\"}'\n", CapabilityRender)
	r, _ := NewRenderer(NewExecutor(5000), failing, cam)
	if _, err := r.Render(&skin.Deformed{}); !errors.Is(err, ErrRenderFailed) {
		t.Errorf("Render error = %v, want ErrRenderFailed", err)
	}

	wrongSize := scriptPlugin(t, "cat >/dev/null\necho '"+twoPixels+"'\n", CapabilityRender)
	r, _ = NewRenderer(NewExecutor(5000), wrongSize, cam)
	if _, err := r.Render(&skin.Deformed{}); !errors.Is(err, ErrRenderFailed) {
		t.Errorf("Render error = %v, want ErrRenderFailed", err)
	}
}

func TestGeometry_RoundTrip(t *testing.T) {
	g := &skin.Deformed{
		Positions:  []mgl64.Vec3{{1, 2, 3}, {4, 5, 6}},
		Labels:     []int{3, -1},
		Indices:    []uint32{0, 1, 0},
		MaskCenter: mgl64.Vec3{1, 1, 1},
	}
	back := NewGeometry(g).Deformed()
	if back.Labels[0] != 3 || back.Labels[1] != -1 {
		t.Errorf("labels = %v, want [3 -1]", back.Labels)
	}
	if back.Positions[1] != g.Positions[1] || back.MaskCenter != g.MaskCenter {
		t.Errorf("geometry changed in transport: %+v", back)
	}
}
