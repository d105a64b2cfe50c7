package engine

import (
	"fmt"
	"os"

	_ "embed"
)

//go:embed data/intents.json
var defaultIntentsJSON []byte

//go:embed data/model_manifest.json
var defaultManifestJSON []byte

//go:embed data/chat_flow.json
var defaultFlowGraphJSON []byte

// LoadCatalogueFromFiles loads the catalogue from the given paths, using
// the embedded defaults for any empty path.
func LoadCatalogueFromFiles(intentsPath, manifestPath string) (*Catalogue, error) {
	intentsJSON := defaultIntentsJSON
	if intentsPath != "" {
		data, err := os.ReadFile(intentsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read intents catalogue: %w", err)
		}
		intentsJSON = data
	}
	manifestJSON := defaultManifestJSON
	if manifestPath != "" {
		data, err := os.ReadFile(manifestPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read model manifest: %w", err)
		}
		manifestJSON = data
	}
	return LoadCatalogue(intentsJSON, manifestJSON)
}

// LoadFlowGraphFromFile loads a flow graph from the given path, or the
// embedded default graph when the path is empty.
func LoadFlowGraphFromFile(path string) (*FlowGraph, error) {
	graphJSON := defaultFlowGraphJSON
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read flow graph: %w", err)
		}
		graphJSON = data
	}
	return LoadFlowGraph(graphJSON)
}
