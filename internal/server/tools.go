package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the leaf photo",
	}
}

func scaleProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": "Optional scale factor for the returned image. Default 1.0",
		"default":     1.0,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Photo Information
		{
			Name:        "image_load",
			Description: "Load a photo and return its dimensions, format and file size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Measurements
		{
			Name:        "leaf_measure",
			Description: "Measure the leaf on a photo of a white sheet: height and maximum width in millimetres, width ratios, mean HSV color, tip angle, convexity, solidity and perimeter in millimetres. Results are cached per photo.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "leaf_paper_roi",
			Description: "Locate the white sheet. Returns the region of interest, which sides fell back to approximate margins, and the millimetres per pixel along each axis.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "leaf_record",
			Description: "Compute every measurement of a photo and return the full record. With save set, the record is also written to the record store under key.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"save": map[string]interface{}{
						"type":        "boolean",
						"description": "Persist the record. Default false",
						"default":     false,
					},
					"key": map[string]interface{}{
						"type":        "string",
						"description": "Record key, e.g. \"oak/IMG_0042\". Required with save",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "leaf_invalidate",
			Description: "Drop a cached measurement and everything derived from it, so the next call recomputes it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"node": map[string]interface{}{
						"type":        "string",
						"enum":        nodeNames(),
						"description": "Measurement to drop",
					},
				},
				"required": []string{"path", "node"},
			},
		},
		{
			Name:        "leaf_measure_distance",
			Description: "Measure the distance between two points in pixels and, using the sheet scale, in millimetres.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x1": map[string]interface{}{
						"type":        "integer",
						"description": "First point X coordinate",
					},
					"y1": map[string]interface{}{
						"type":        "integer",
						"description": "First point Y coordinate",
					},
					"x2": map[string]interface{}{
						"type":        "integer",
						"description": "Second point X coordinate",
					},
					"y2": map[string]interface{}{
						"type":        "integer",
						"description": "Second point Y coordinate",
					},
					"calibrated": map[string]interface{}{
						"type":        "boolean",
						"description": "Also report millimetres. Default true",
						"default":     true,
					},
				},
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},

		// Visual Checks
		{
			Name:        "leaf_overlay",
			Description: "Draw the sheet region, the leaf bounding box and the sampled width lines over the photo and return it as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":  pathProperty(),
					"scale": scaleProperty(),
					"thickness": map[string]interface{}{
						"type":        "integer",
						"description": "Stroke thickness in pixels. Default 2",
						"default":     2,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "leaf_crop",
			Description: "Crop the photo to the sheet region or to the leaf bounding box and return it as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"target": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"paper", "leaf"},
						"description": "Region to extract. Default leaf",
						"default":     "leaf",
					},
					"scale": scaleProperty(),
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
