package store

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"growthai-backend/internal/model"
	"growthai-backend/internal/parse"
)

const (
	gardensCollection = "gardens"
	plantsCollection  = "plants"
)

// firestoreStore is the remote document backend: gardens are documents with a
// plants sub-collection. Per-record updates are independent, so no
// cross-record locking is needed.
type firestoreStore struct {
	client *firestore.Client
}

// NewFirestore connects to the remote document backend. credentialsFile may
// be empty, in which case application default credentials are used.
func NewFirestore(ctx context.Context, projectID, credentialsFile string) (Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &firestoreStore{client: client}, nil
}

func (s *firestoreStore) gardenRef(gardenID string) *firestore.DocumentRef {
	return s.client.Collection(gardensCollection).Doc(gardenID)
}

func (s *firestoreStore) plantRef(gardenID, plantID string) *firestore.DocumentRef {
	return s.gardenRef(gardenID).Collection(plantsCollection).Doc(plantID)
}

func (s *firestoreStore) ListGardens(ctx context.Context) (map[string]model.Garden, error) {
	gardens := map[string]model.Garden{}

	iter := s.client.Collection(gardensCollection).Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Printf("store: listing gardens: %v", err)
			return map[string]model.Garden{}, fmt.Errorf("list gardens: %w", err)
		}
		var g model.Garden
		if err := doc.DataTo(&g); err != nil {
			log.Printf("store: malformed garden document %s: %v", doc.Ref.ID, err)
			continue
		}
		g.ID = doc.Ref.ID
		gardens[g.ID] = g
	}
	return gardens, nil
}

func (s *firestoreStore) GetGarden(ctx context.Context, gardenID string) (*model.Garden, error) {
	doc, err := s.gardenRef(gardenID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("garden %s: %w", gardenID, ErrNotFound)
		}
		log.Printf("store: reading garden %s: %v", gardenID, err)
		return nil, fmt.Errorf("get garden %s: %w", gardenID, err)
	}
	var g model.Garden
	if err := doc.DataTo(&g); err != nil {
		log.Printf("store: malformed garden document %s: %v", gardenID, err)
		return nil, fmt.Errorf("decode garden %s: %w", gardenID, err)
	}
	g.ID = doc.Ref.ID
	return &g, nil
}

func (s *firestoreStore) GetGardenPlants(ctx context.Context, gardenID string) (map[string]model.Plant, error) {
	plants := map[string]model.Plant{}

	iter := s.gardenRef(gardenID).Collection(plantsCollection).Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Printf("store: listing plants for garden %s: %v", gardenID, err)
			return map[string]model.Plant{}, fmt.Errorf("list plants %s: %w", gardenID, err)
		}
		var p model.Plant
		if err := doc.DataTo(&p); err != nil {
			log.Printf("store: malformed plant document %s/%s: %v", gardenID, doc.Ref.ID, err)
			continue
		}
		p.ID = doc.Ref.ID
		p.GardenID = gardenID
		plants[p.ID] = p
	}
	return plants, nil
}

func (s *firestoreStore) GetPlant(ctx context.Context, gardenID, plantID string) (*model.Plant, error) {
	doc, err := s.plantRef(gardenID, plantID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("plant %s/%s: %w", gardenID, plantID, ErrNotFound)
		}
		log.Printf("store: reading plant %s/%s: %v", gardenID, plantID, err)
		return nil, fmt.Errorf("get plant %s/%s: %w", gardenID, plantID, err)
	}
	var p model.Plant
	if err := doc.DataTo(&p); err != nil {
		log.Printf("store: malformed plant document %s/%s: %v", gardenID, plantID, err)
		return nil, fmt.Errorf("decode plant %s/%s: %w", gardenID, plantID, err)
	}
	p.ID = doc.Ref.ID
	p.GardenID = gardenID
	return &p, nil
}

func (s *firestoreStore) GetPlantHistory(ctx context.Context, gardenID, plantID string, window int) ([]model.MoistureReading, error) {
	p, err := s.GetPlant(ctx, gardenID, plantID)
	if err != nil {
		return nil, err
	}
	// The document stores readings in arrival order; callers get newest-first.
	history := make([]model.MoistureReading, len(p.History))
	copy(history, p.History)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Timestamp.After(history[j].Timestamp)
	})
	if window > 0 && len(history) > window {
		return history[:window], nil
	}
	return history, nil
}

func (s *firestoreStore) UpdatePlantMoisture(ctx context.Context, gardenID, plantID string, moisture int) error {
	m := model.ClampMoisture(moisture)
	_, err := s.plantRef(gardenID, plantID).Update(ctx, []firestore.Update{
		{Path: "current_moisture", Value: m},
		{Path: "last_updated", Value: firestore.ServerTimestamp},
		{Path: "history", Value: firestore.ArrayUnion(model.MoistureReading{
			Moisture:  m,
			Timestamp: time.Now().UTC(),
		})},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("plant %s/%s: %w", gardenID, plantID, ErrNotFound)
		}
		log.Printf("store: updating moisture %s/%s: %v", gardenID, plantID, err)
		return fmt.Errorf("update moisture %s/%s: %w", gardenID, plantID, err)
	}
	return nil
}

func (s *firestoreStore) TriggerIrrigation(ctx context.Context, gardenID, plantID string, durationSeconds int) error {
	p, err := s.GetPlant(ctx, gardenID, plantID)
	if err != nil {
		return err
	}
	if p.CurrentMoisture == nil {
		return fmt.Errorf("plant %s/%s has no moisture reading", gardenID, plantID)
	}

	delta := irrigationDelta(durationSeconds)
	if delta == 0 {
		return nil
	}

	_, err = s.plantRef(gardenID, plantID).Update(ctx, []firestore.Update{
		{Path: "current_moisture", Value: model.ClampMoisture(*p.CurrentMoisture + delta)},
		{Path: "last_irrigation", Value: firestore.ServerTimestamp},
		{Path: "last_updated", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		log.Printf("store: irrigation write %s/%s: %v", gardenID, plantID, err)
		return fmt.Errorf("trigger irrigation %s/%s: %w", gardenID, plantID, err)
	}
	return nil
}

func (s *firestoreStore) SeedGarden(ctx context.Context, gardenID string, req SeedRequest) (string, error) {
	now := time.Now().UTC()
	ref := s.gardenRef(gardenID)

	_, err := ref.Get(ctx)
	switch {
	case err != nil && status.Code(err) == codes.NotFound:
		_, err = ref.Create(ctx, map[string]any{
			"name":        req.Name,
			"personality": req.Personality,
			"latitude":    req.Latitude,
			"longitude":   req.Longitude,
			"created_at":  now,
		})
		if err != nil {
			return "", fmt.Errorf("create garden %s: %w", gardenID, err)
		}
	case err != nil:
		return "", fmt.Errorf("seed garden %s: %w", gardenID, err)
	}
	// Existing metadata is left untouched; only history grows.
	if len(req.History) > 0 {
		entries := make([]any, len(req.History))
		for i, h := range req.History {
			entries[i] = h
		}
		if _, err := ref.Update(ctx, []firestore.Update{
			{Path: "history", Value: firestore.ArrayUnion(entries...)},
		}); err != nil {
			return "", fmt.Errorf("append history %s: %w", gardenID, err)
		}
	}

	existing, err := s.GetGardenPlants(ctx, gardenID)
	if err != nil {
		return "", err
	}
	ids := make([]string, 0, len(existing))
	for id := range existing {
		ids = append(ids, id)
	}
	next := parse.NextPlantSuffix(ids)

	base := model.ClampMoisture(req.BaseMoisture)
	for i := 0; i < req.PlantCount; i++ {
		id := parse.FormatPlantID(next + i)
		_, err := ref.Collection(plantsCollection).Doc(id).Create(ctx, map[string]any{
			"name":             fmt.Sprintf("Plant %d", next+i),
			"current_moisture": base,
			"last_updated":     now,
		})
		if err != nil {
			return "", fmt.Errorf("seed plant %s/%s: %w", gardenID, id, err)
		}
	}
	return uuid.NewString(), nil
}
