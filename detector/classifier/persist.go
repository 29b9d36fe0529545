package classifier

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const modelFileName = "model.json"

// saveCachedModel writes the model atomically so a crash mid-write never
// leaves a truncated cache file.
func saveCachedModel(dir string, model *trainedModel) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating model cache dir: %w", err)
	}
	data, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}
	tmp := filepath.Join(dir, modelFileName+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing model cache: %w", err)
	}
	return os.Rename(tmp, filepath.Join(dir, modelFileName))
}

func loadCachedModel(dir string) (*trainedModel, error) {
	data, err := os.ReadFile(filepath.Join(dir, modelFileName))
	if err != nil {
		return nil, err
	}
	var model trainedModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("decoding model cache: %w", err)
	}
	if model.Forest == nil || model.Scaler == nil {
		return nil, fmt.Errorf("model cache incomplete")
	}
	return &model, nil
}
