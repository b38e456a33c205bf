package server

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/leafmetrics/internal/geometry"
	"github.com/ironsheep/leafmetrics/internal/imaging"
	"github.com/ironsheep/leafmetrics/internal/measure"
)

// stubPipeline returns fixed measurements for a 200x300 photo and counts
// how often each stage runs.
type stubPipeline struct {
	calls    map[string]int
	sheetErr error
}

func newStubPipeline() *stubPipeline {
	return &stubPipeline{calls: make(map[string]int)}
}

var (
	stubROI      = geometry.Box{Horizontal: geometry.Span(10, 190), Vertical: geometry.Span(10, 290)}
	stubVertical = geometry.Span(50, 251)
	stubLeafBox  = geometry.Box{Horizontal: geometry.Span(50, 150), Vertical: stubVertical}
)

func (p *stubPipeline) Config() measure.Config { return measure.DefaultConfig() }

func (p *stubPipeline) LocateSheet(*imaging.Photo) (measure.SheetResult, error) {
	p.calls["LocateSheet"]++
	if p.sheetErr != nil {
		return measure.SheetResult{}, p.sheetErr
	}
	return measure.SheetResult{ROI: stubROI, Fallback: measure.SideFallback{Left: true}, Lines: 4}, nil
}

func (p *stubPipeline) PixelSize(_ *imaging.Photo, _ geometry.Box, axis measure.Axis) (float64, error) {
	p.calls["PixelSize"]++
	if axis == measure.Height {
		return 0.25, nil
	}
	return 0.5, nil
}

func (p *stubPipeline) LocateLeafVertical(*imaging.Photo, geometry.Box) (geometry.Interval, error) {
	p.calls["LocateLeafVertical"]++
	return stubVertical, nil
}

func (p *stubPipeline) ProfileWidths(*imaging.Photo, geometry.Box, geometry.Interval) ([]geometry.Interval, error) {
	p.calls["ProfileWidths"]++
	widths := make([]geometry.Interval, 11)
	for i := range widths {
		widths[i] = geometry.Span(60, 140)
	}
	return widths, nil
}

func (p *stubPipeline) BoundLeaf(*imaging.Photo, geometry.Box, []geometry.Interval, geometry.Interval) (geometry.Box, error) {
	p.calls["BoundLeaf"]++
	return stubLeafBox, nil
}

func (p *stubPipeline) AverageColor(*imaging.Photo, geometry.Box) (*imaging.MeanHSV, error) {
	p.calls["AverageColor"]++
	return &imaging.MeanHSV{Hue: 50, Saturation: 180, Value: 100, Pixels: 1234}, nil
}

func (p *stubPipeline) TipAngle(*imaging.Photo, geometry.Box, geometry.Box) (float64, error) {
	p.calls["TipAngle"]++
	return 55, nil
}

func (p *stubPipeline) LikelyConvex(*imaging.Photo, geometry.Box) (bool, error) {
	p.calls["LikelyConvex"]++
	return false, nil
}

func (p *stubPipeline) Solidity(*imaging.Photo, geometry.Box, geometry.Box) (float64, error) {
	p.calls["Solidity"]++
	return 0.88, nil
}

func (p *stubPipeline) Perimeter(*imaging.Photo, geometry.Box, geometry.Box, float64, float64) (float64, error) {
	p.calls["Perimeter"]++
	return 310, nil
}

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "leaf.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create image file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func createLeafPhoto(t *testing.T) string {
	t.Helper()
	return createTestImageFile(t, 200, 300, color.RGBA{240, 240, 240, 255})
}

// callTool runs a tools/call request and returns the response.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()
	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// callToolInto runs a tool that must succeed and decodes its text content
// into v.
func callToolInto(t *testing.T, s *Server, name string, args map[string]interface{}, v interface{}) {
	t.Helper()
	resp := callTool(t, s, name, args)
	if resp.Error != nil {
		t.Fatalf("%s failed: %s (%v)", name, resp.Error.Message, resp.Error.Data)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("unexpected content: %v", result["content"])
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v, want text", content[0]["type"])
	}
	text, ok := content[0]["text"].(string)
	if !ok {
		t.Fatal("content text should be a string")
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("failed to decode %s result: %v", name, err)
	}
}

// expectToolError runs a tool that must fail with a tool execution error.
func expectToolError(t *testing.T, s *Server, name string, args map[string]interface{}) string {
	t.Helper()
	resp := callTool(t, s, name, args)
	if resp.Error == nil {
		t.Fatalf("%s: expected error", name)
	}
	if resp.Error.Code != -32000 {
		t.Errorf("%s: error code got %d, want -32000", name, resp.Error.Code)
	}
	data, _ := resp.Error.Data.(string)
	return data
}
