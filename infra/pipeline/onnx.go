package pipeline

// ONNXConfig configures the ONNX backend. The artifact supplies the encoder
// whose output feeds the network; its regressor block is ignored.
type ONNXConfig struct {
	ModelPath   string `json:"model_path"`
	EncoderPath string `json:"encoder_path"`
	LibraryPath string `json:"library_path"`
	InputName   string `json:"input_name"`
	OutputName  string `json:"output_name"`
	Version     string `json:"version"`
}

func (c *ONNXConfig) setDefaults() {
	if c.InputName == "" {
		c.InputName = "input"
	}
	if c.OutputName == "" {
		c.OutputName = "variable"
	}
	if c.Version == "" {
		c.Version = "onnx"
	}
}
