package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/oceansim/internal/config"
	"github.com/san-kum/oceansim/internal/mesh"
)

const (
	metadataFile    = "metadata.json"
	diagnosticsFile = "diagnostics.csv"
	configFile      = "config.yaml"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) BaseDir() string { return s.baseDir }

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID            string             `json:"id"`
	Label         string             `json:"label"`
	Timestamp     time.Time          `json:"timestamp"`
	Source        string             `json:"source"`
	Dt            float64            `json:"dt"`
	Steps         int                `json:"steps"`
	SimTime       float64            `json:"sim_time"`
	WallTime      float64            `json:"wall_time"`
	Termination   string             `json:"termination"`
	Error         string             `json:"error,omitempty"`
	Field         string             `json:"field"`
	Palette       string             `json:"palette"`
	RangeMin      float64            `json:"range_min"`
	RangeMax      float64            `json:"range_max"`
	ImagePath     string             `json:"image_path,omitempty"`
	AnimationPath string             `json:"animation_path,omitempty"`
	SeichePeriod  float64            `json:"seiche_period,omitempty"`
	Mesh          mesh.Summary       `json:"mesh"`
	Metrics       map[string]float64 `json:"metrics"`
}

// Allocate creates a fresh run directory and returns its id.
func (s *Store) Allocate(label string) (string, error) {
	if err := s.Init(); err != nil {
		return "", fmt.Errorf("storage: %w", err)
	}

	base := fmt.Sprintf("%s_%d", label, time.Now().Unix())
	for k := 0; k < 1000; k++ {
		runID := base
		if k > 0 {
			runID = fmt.Sprintf("%s_%d", base, k)
		}
		err := os.Mkdir(s.Dir(runID), 0755)
		if err == nil {
			return runID, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("storage: %w", err)
		}
	}
	return "", fmt.Errorf("storage: no free run id for %s", base)
}

// Save writes metadata, the configuration and the diagnostic series into the
// run directory named by meta.ID.
func (s *Store) Save(meta *RunMetadata, cfg *config.Config, times []float64, series map[string][]float64) error {
	runDir := s.Dir(meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return fmt.Errorf("storage: encode metadata: %w", err)
	}

	if cfg != nil {
		if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	}

	return writeSeries(filepath.Join(runDir, diagnosticsFile), times, series)
}

func writeSeries(path string, times []float64, series map[string][]float64) error {
	csvFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer csvFile.Close()

	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	w := csv.NewWriter(csvFile)
	if err := w.Write(append([]string{"time"}, names...)); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	for i, t := range times {
		row := []string{strconv.FormatFloat(t, 'f', 3, 64)}
		for _, name := range names {
			val := ""
			if col := series[name]; i < len(col) {
				val = strconv.FormatFloat(col[i], 'g', 10, 64)
			}
			row = append(row, val)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

// List returns every stored run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}

	return &meta, nil
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.Dir(runID), configFile))
}

// LoadSeries reads the diagnostics of a run. Missing values are dropped from
// their column.
func (s *Store) LoadSeries(runID string) ([]float64, map[string][]float64, error) {
	file, err := os.Open(filepath.Join(s.Dir(runID), diagnosticsFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("storage: %s: %w", runID, err)
	}

	series := make(map[string][]float64)
	if len(records) < 2 {
		return []float64{}, series, nil
	}

	header := records[0]
	times := make([]float64, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) == 0 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		times = append(times, t)

		for j := 1; j < len(record) && j < len(header); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				continue
			}
			series[header[j]] = append(series[header[j]], val)
		}
	}

	return times, series, nil
}
