package testbed

// Config holds configuration for the testbed server.
type Config struct {
	// Port is the port on which the testbed listens.
	Port int `mapstructure:"port"`

	// DocumentRoot is the directory static files are served from and deleted in.
	DocumentRoot string `mapstructure:"document_root"`

	// UploadsDir receives files posted to /upload.
	UploadsDir string `mapstructure:"uploads_dir"`

	// WasmDir, when set, is served under /wasm/. It should hold
	// formfetch.wasm and the matching wasm_exec.js; the form page then
	// dispatches through the WebAssembly build instead of its script.
	WasmDir string `mapstructure:"wasm_dir"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:         8080,
		DocumentRoot: "www",
		UploadsDir:   "www/uploads",
	}
}
