package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/leafmetrics/internal/features"
	"github.com/ironsheep/leafmetrics/internal/geometry"
	"github.com/ironsheep/leafmetrics/internal/imaging"
	"github.com/ironsheep/leafmetrics/internal/measure"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "leaf_measure").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Warn().Err(err).Str("tool", params.Name).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Photo Information
	case "image_load":
		return s.handleImageLoad(args)

	// Measurements
	case "leaf_measure":
		return s.handleLeafMeasure(args)
	case "leaf_paper_roi":
		return s.handleLeafPaperROI(args)
	case "leaf_record":
		return s.handleLeafRecord(args)
	case "leaf_invalidate":
		return s.handleLeafInvalidate(args)
	case "leaf_measure_distance":
		return s.handleLeafMeasureDistance(args)

	// Visual Checks
	case "leaf_overlay":
		return s.handleLeafOverlay(args)
	case "leaf_crop":
		return s.handleLeafCrop(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func nodeNames() []string {
	nodes := features.Nodes()
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = string(n)
	}
	return names
}

type pathArgs struct {
	Path string `json:"path"`
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// photoStore decodes the path argument and returns its feature store.
func (s *Server) photoStore(args json.RawMessage) (*features.Store, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	return s.featureStore(a.Path)
}

// === Photo Information Handlers ===

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Measurement Handlers ===

type measureResult struct {
	Features map[string]float64   `json:"features"`
	PaperROI geometry.Box         `json:"paper_roi"`
	Fallback measure.SideFallback `json:"fallback"`
	LeafBox  geometry.Box         `json:"leaf_box"`
}

func (s *Server) handleLeafMeasure(args json.RawMessage) (interface{}, error) {
	fs, err := s.photoStore(args)
	if err != nil {
		return nil, err
	}
	feats, err := fs.GetFeatures()
	if err != nil {
		return nil, err
	}
	sheet, err := fs.Sheet()
	if err != nil {
		return nil, err
	}
	box, err := fs.LeafBox()
	if err != nil {
		return nil, err
	}
	return &measureResult{Features: feats, PaperROI: sheet.ROI, Fallback: sheet.Fallback, LeafBox: box}, nil
}

type paperROIResult struct {
	measure.SheetResult
	PxWidthInMM  float64 `json:"px_width_in_mm"`
	PxHeightInMM float64 `json:"px_height_in_mm"`
}

func (s *Server) handleLeafPaperROI(args json.RawMessage) (interface{}, error) {
	fs, err := s.photoStore(args)
	if err != nil {
		return nil, err
	}
	sheet, err := fs.Sheet()
	if err != nil {
		return nil, err
	}
	res := &paperROIResult{SheetResult: sheet}
	if res.PxWidthInMM, err = fs.PixelSize(measure.Width); err != nil {
		return nil, err
	}
	if res.PxHeightInMM, err = fs.PixelSize(measure.Height); err != nil {
		return nil, err
	}
	return res, nil
}

type leafRecordArgs struct {
	Path string `json:"path"`
	Save bool   `json:"save"`
	Key  string `json:"key"`
}

type recordResult struct {
	Record *features.Record `json:"record"`
	Key    string           `json:"key,omitempty"`
	Saved  bool             `json:"saved"`
}

func (s *Server) handleLeafRecord(args json.RawMessage) (interface{}, error) {
	var a leafRecordArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Save {
		switch {
		case s.records == nil:
			return nil, errors.New("no record store configured")
		case a.Key == "":
			return nil, errors.New("key is required to save a record")
		}
	}
	fs, err := s.featureStore(a.Path)
	if err != nil {
		return nil, err
	}
	rec, err := fs.ToRecord()
	if err != nil {
		return nil, err
	}
	res := &recordResult{Record: rec}
	if a.Save {
		if err := s.records.Save(context.Background(), a.Key, rec); err != nil {
			return nil, err
		}
		res.Key, res.Saved = a.Key, true
		s.log.Info().Str("key", a.Key).Msg("record saved")
	}
	return res, nil
}

type leafInvalidateArgs struct {
	Path string `json:"path"`
	Node string `json:"node"`
}

func (s *Server) handleLeafInvalidate(args json.RawMessage) (interface{}, error) {
	var a leafInvalidateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	fs, err := s.featureStore(a.Path)
	if err != nil {
		return nil, err
	}
	n := features.Node(a.Node)
	if err := fs.Invalidate(n); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"invalidated": append([]features.Node{n}, features.Downstream(n)...),
	}, nil
}

type leafMeasureDistanceArgs struct {
	Path       string `json:"path"`
	X1         int    `json:"x1"`
	Y1         int    `json:"y1"`
	X2         int    `json:"x2"`
	Y2         int    `json:"y2"`
	Calibrated *bool  `json:"calibrated"`
}

func (s *Server) handleLeafMeasureDistance(args json.RawMessage) (interface{}, error) {
	var a leafMeasureDistanceArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	fs, err := s.featureStore(a.Path)
	if err != nil {
		return nil, err
	}

	var mmX, mmY float64
	if a.Calibrated == nil || *a.Calibrated {
		if mmX, err = fs.PixelSize(measure.Width); err != nil {
			return nil, err
		}
		if mmY, err = fs.PixelSize(measure.Height); err != nil {
			return nil, err
		}
	}
	return imaging.MeasureDistance(fs.Photo().Bounds(),
		imaging.Point{X: a.X1, Y: a.Y1}, imaging.Point{X: a.X2, Y: a.Y2}, mmX, mmY)
}

// === Visual Check Handlers ===

const (
	paperColor = "#1E90FF"
	leafColor  = "#FF00FF"
	widthColor = "#FF4500"
)

type leafOverlayArgs struct {
	Path      string  `json:"path"`
	Scale     float64 `json:"scale"`
	Thickness int     `json:"thickness"`
}

func (s *Server) handleLeafOverlay(args json.RawMessage) (interface{}, error) {
	var a leafOverlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if a.Thickness == 0 {
		a.Thickness = 2
	}
	fs, err := s.featureStore(a.Path)
	if err != nil {
		return nil, err
	}
	shapes, err := overlayShapes(fs)
	if err != nil {
		return nil, err
	}
	return imaging.Overlay(fs.Photo().Image(), shapes, a.Thickness, a.Scale)
}

// overlayShapes outlines the sheet and the leaf and draws one line per
// sampled width.
func overlayShapes(fs *features.Store) ([]imaging.OverlayShape, error) {
	sheet, err := fs.Sheet()
	if err != nil {
		return nil, err
	}
	box, err := fs.LeafBox()
	if err != nil {
		return nil, err
	}
	vertical, err := fs.LeafVertical()
	if err != nil {
		return nil, err
	}
	widths, err := fs.Widths()
	if err != nil {
		return nil, err
	}

	shapes := []imaging.OverlayShape{
		{Rect: sheet.ROI.Rect(), Color: paperColor, Label: "paper"},
		{Rect: box.Rect(), Color: leafColor, Label: "leaf"},
	}
	for i, w := range widths {
		y := measure.SampleRow(vertical, i, len(widths))
		shapes = append(shapes, imaging.OverlayShape{
			Rect:  image.Rect(w.Origin, y, w.End(), y+1),
			Color: widthColor,
		})
	}
	return shapes, nil
}

type leafCropArgs struct {
	Path   string  `json:"path"`
	Target string  `json:"target"`
	Scale  float64 `json:"scale"`
}

func (s *Server) handleLeafCrop(args json.RawMessage) (interface{}, error) {
	var a leafCropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if a.Target == "" {
		a.Target = "leaf"
	}
	fs, err := s.featureStore(a.Path)
	if err != nil {
		return nil, err
	}

	var box geometry.Box
	switch a.Target {
	case "leaf":
		box, err = fs.LeafBox()
	case "paper":
		var sheet measure.SheetResult
		sheet, err = fs.Sheet()
		box = sheet.ROI
	default:
		return nil, fmt.Errorf("unknown crop target %q (want paper or leaf)", a.Target)
	}
	if err != nil {
		return nil, err
	}

	crop, err := fs.Photo().Crop(box.Rect())
	if err != nil {
		return nil, err
	}
	return imaging.EncodePNG(crop.Image(), a.Scale)
}
