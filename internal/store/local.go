package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"growthai-backend/internal/model"
	"growthai-backend/internal/parse"
)

// localGarden is the on-disk shape of one garden: the garden metadata with
// its plants inlined.
type localGarden struct {
	Name        string                  `json:"name"`
	Personality string                  `json:"personality"`
	Latitude    float64                 `json:"latitude"`
	Longitude   float64                 `json:"longitude"`
	CreatedAt   time.Time               `json:"created_at"`
	History     []model.MoistureReading `json:"history,omitempty"`
	Plants      map[string]model.Plant  `json:"plants"`
}

// localData is the whole dataset held in a single JSON document.
type localData struct {
	Gardens map[string]localGarden `json:"gardens"`
}

// localStore is the file-backed simulation backend. Every call performs a
// full read-modify-write of one file; concurrent writers are last-writer-wins,
// which is acceptable only because this backend exists for local development.
type localStore struct {
	path string
	mu   sync.Mutex
}

// NewLocal creates the file-backed store. The file is created lazily on the
// first write.
func NewLocal(path string) Store {
	return &localStore{path: path}
}

func (s *localStore) load() localData {
	empty := localData{Gardens: map[string]localGarden{}}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("store: cannot read %s: %v", s.path, err)
		}
		return empty
	}

	var data localData
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Printf("store: malformed dataset %s, starting empty: %v", s.path, err)
		return empty
	}
	if data.Gardens == nil {
		data.Gardens = map[string]localGarden{}
	}
	return data
}

func (s *localStore) save(data localData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}

func (s *localStore) ListGardens(_ context.Context) (map[string]model.Garden, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.load()
	gardens := make(map[string]model.Garden, len(data.Gardens))
	for id, g := range data.Gardens {
		gardens[id] = toGarden(id, g)
	}
	return gardens, nil
}

func (s *localStore) GetGarden(_ context.Context, gardenID string) (*model.Garden, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.load().Gardens[gardenID]
	if !ok {
		return nil, fmt.Errorf("garden %s: %w", gardenID, ErrNotFound)
	}
	garden := toGarden(gardenID, g)
	return &garden, nil
}

func (s *localStore) GetGardenPlants(_ context.Context, gardenID string) (map[string]model.Plant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.load().Gardens[gardenID]
	if !ok {
		return nil, fmt.Errorf("garden %s: %w", gardenID, ErrNotFound)
	}
	plants := make(map[string]model.Plant, len(g.Plants))
	for id, p := range g.Plants {
		p.ID = id
		p.GardenID = gardenID
		plants[id] = p
	}
	return plants, nil
}

func (s *localStore) GetPlant(_ context.Context, gardenID, plantID string) (*model.Plant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.load().Gardens[gardenID]
	if !ok {
		return nil, fmt.Errorf("garden %s: %w", gardenID, ErrNotFound)
	}
	p, ok := g.Plants[plantID]
	if !ok {
		return nil, fmt.Errorf("plant %s/%s: %w", gardenID, plantID, ErrNotFound)
	}
	p.ID = plantID
	p.GardenID = gardenID
	return &p, nil
}

func (s *localStore) GetPlantHistory(ctx context.Context, gardenID, plantID string, window int) ([]model.MoistureReading, error) {
	p, err := s.GetPlant(ctx, gardenID, plantID)
	if err != nil {
		return nil, err
	}
	if window > 0 && len(p.History) > window {
		return p.History[:window], nil
	}
	return p.History, nil
}

func (s *localStore) UpdatePlantMoisture(_ context.Context, gardenID, plantID string, moisture int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.load()
	g, ok := data.Gardens[gardenID]
	if !ok {
		return fmt.Errorf("garden %s: %w", gardenID, ErrNotFound)
	}
	p, ok := g.Plants[plantID]
	if !ok {
		return fmt.Errorf("plant %s/%s: %w", gardenID, plantID, ErrNotFound)
	}

	now := time.Now().UTC()
	m := model.ClampMoisture(moisture)
	p.CurrentMoisture = &m
	p.LastUpdated = now
	// History is kept most-recent-first.
	p.History = append([]model.MoistureReading{{Moisture: m, Timestamp: now}}, p.History...)
	g.Plants[plantID] = p
	data.Gardens[gardenID] = g
	return s.save(data)
}

func (s *localStore) TriggerIrrigation(_ context.Context, gardenID, plantID string, durationSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.load()
	g, ok := data.Gardens[gardenID]
	if !ok {
		return fmt.Errorf("garden %s: %w", gardenID, ErrNotFound)
	}
	p, ok := g.Plants[plantID]
	if !ok {
		return fmt.Errorf("plant %s/%s: %w", gardenID, plantID, ErrNotFound)
	}
	if p.CurrentMoisture == nil {
		return fmt.Errorf("plant %s/%s has no moisture reading", gardenID, plantID)
	}

	delta := irrigationDelta(durationSeconds)
	if delta == 0 {
		return nil
	}

	now := time.Now().UTC()
	m := model.ClampMoisture(*p.CurrentMoisture + delta)
	p.CurrentMoisture = &m
	p.LastIrrigation = &now
	p.LastUpdated = now
	g.Plants[plantID] = p
	data.Gardens[gardenID] = g
	return s.save(data)
}

func (s *localStore) SeedGarden(_ context.Context, gardenID string, req SeedRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	data := s.load()

	g, exists := data.Gardens[gardenID]
	if !exists {
		g = localGarden{
			Name:        req.Name,
			Personality: req.Personality,
			Latitude:    req.Latitude,
			Longitude:   req.Longitude,
			CreatedAt:   now,
			Plants:      map[string]model.Plant{},
		}
	}
	if g.Plants == nil {
		g.Plants = map[string]model.Plant{}
	}
	// Seed history is appended, never replaced.
	g.History = append(g.History, req.History...)

	ids := make([]string, 0, len(g.Plants))
	for id := range g.Plants {
		ids = append(ids, id)
	}
	next := parse.NextPlantSuffix(ids)

	base := model.ClampMoisture(req.BaseMoisture)
	for i := 0; i < req.PlantCount; i++ {
		id := parse.FormatPlantID(next + i)
		m := base
		g.Plants[id] = model.Plant{
			Name:            fmt.Sprintf("Plant %d", next+i),
			CurrentMoisture: &m,
			LastUpdated:     now,
		}
	}

	data.Gardens[gardenID] = g
	if err := s.save(data); err != nil {
		return "", err
	}
	return uuid.NewString(), nil
}

func toGarden(id string, g localGarden) model.Garden {
	return model.Garden{
		ID:          id,
		Name:        g.Name,
		Personality: g.Personality,
		Latitude:    g.Latitude,
		Longitude:   g.Longitude,
		CreatedAt:   g.CreatedAt,
		History:     g.History,
	}
}
