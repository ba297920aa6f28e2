package director

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// GenerateTourPath creates a timestamped tour filename in dir
func GenerateTourPath(dir string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("tour_%s.yaml", timestamp))
}

// WriteTour writes a tour to a YAML file
func WriteTour(tour *Tour, path string) error {
	data, err := yaml.Marshal(tour)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadTour reads a tour from a YAML file
func ReadTour(path string) (*Tour, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tour Tour
	if err := yaml.Unmarshal(data, &tour); err != nil {
		return nil, err
	}
	if len(tour.Stops) == 0 {
		return nil, fmt.Errorf("%s: в туре нет остановок", path)
	}

	return &tour, nil
}
