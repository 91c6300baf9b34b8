package localface

// RepresentRequest for POST /represent
type RepresentRequest struct {
	Img      string `json:"img"`      // base64 encoded frame
	Model    string `json:"model"`    // recognition model name
	Detector string `json:"detector"` // detector backend
}

// RepresentResponse from POST /represent
type RepresentResponse struct {
	Results []RepresentResult `json:"results"`
}

type RepresentResult struct {
	Embedding  []float64  `json:"embedding"`
	FacialArea FacialArea `json:"facial_area"`
}

type FacialArea struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// AnalyzeRequest for POST /analyze
type AnalyzeRequest struct {
	Img      string   `json:"img"`
	Actions  []string `json:"actions"` // ["emotion"] for expression scoring
	Detector string   `json:"detector"`
}

// AnalyzeResponse from POST /analyze
type AnalyzeResponse struct {
	Results []AnalyzeResult `json:"results"`
}

type AnalyzeResult struct {
	Region  FacialArea         `json:"region"`
	Emotion map[string]float64 `json:"emotion"`
}

// LoadModelRequest for POST /models/load
type LoadModelRequest struct {
	Kind string `json:"kind"`
}

// LoadModelResponse from POST /models/load
type LoadModelResponse struct {
	Loaded bool   `json:"loaded"`
	Kind   string `json:"kind"`
}
