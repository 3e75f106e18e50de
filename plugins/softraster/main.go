// Package main provides a renderer plugin that draws label images with the
// in-process software rasterizer. It exists so the external renderer path can
// be exercised without a GPU.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/raster"
)

func main() {
	var req plugin.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(plugin.Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	switch req.Action {
	case plugin.CapabilityRender:
		writeResponse(render(&req))
	default:
		writeResponse(plugin.Response{Error: fmt.Sprintf("unknown action: %s", req.Action)})
	}
}

func render(req *plugin.Request) plugin.Response {
	if req.Geometry == nil {
		return plugin.Response{Error: "geometry is required"}
	}
	if req.Camera.Width <= 0 || req.Camera.Height <= 0 {
		return plugin.Response{Error: "camera size must be positive"}
	}

	buf, err := raster.NewRenderer(req.Camera).Render(req.Geometry.Deformed())
	if err != nil {
		return plugin.Response{Error: err.Error()}
	}
	return plugin.Response{
		Success: true,
		Width:   buf.Width,
		Height:  buf.Height,
		Pix:     buf.Pix,
	}
}

func writeResponse(resp plugin.Response) {
	if err := json.NewEncoder(os.Stdout).Encode(resp); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write response: %v\n", err)
		os.Exit(1)
	}
}
