package firestore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/krishisakhi/sakhi-agent/internal/domain"
)

// Store implements the profile, plot and message ports on Firestore,
// using the layout users/{uid} -> plots/{pid} -> messages/{mid}.
type Store struct {
	client *firestore.Client
}

func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) userDoc(userID domain.UserID) *firestore.DocumentRef {
	return s.client.Collection("users").Doc(string(userID))
}

func (s *Store) plotsCol(userID domain.UserID) *firestore.CollectionRef {
	return s.userDoc(userID).Collection("plots")
}

func (s *Store) plotDoc(userID domain.UserID, plotID domain.PlotID) *firestore.DocumentRef {
	return s.plotsCol(userID).Doc(string(plotID))
}

func (s *Store) messagesCol(userID domain.UserID, plotID domain.PlotID) *firestore.CollectionRef {
	return s.plotDoc(userID, plotID).Collection("messages")
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type profileDoc struct {
	Name     string `firestore:"name"`
	Language string `firestore:"language"`
}

type plotDoc struct {
	PlotName         string     `firestore:"plotName"`
	Location         string     `firestore:"location"`
	LandSize         string     `firestore:"landSize"`
	IrrigationSource string     `firestore:"irrigationSource"`
	SoilType         string     `firestore:"soilType"`
	SoilPH           string     `firestore:"soilPH"`
	Nitrogen         string     `firestore:"nitrogen"`
	Phosphorus       string     `firestore:"phosphorus"`
	Potassium        string     `firestore:"potassium"`
	Crop             string     `firestore:"crop"`
	SowingDate       *time.Time `firestore:"sowingDate"`
	PreviousCrop     string     `firestore:"previousCrop"`
}

type messageDoc struct {
	Text               string    `firestore:"text"`
	IsUser             bool      `firestore:"isUser"`
	Timestamp          time.Time `firestore:"timestamp"`
	ImageURL           string    `firestore:"imageUrl,omitempty"`
	IsUpdateSuggestion bool      `firestore:"isUpdateSuggestion,omitempty"`
	Crop               string    `firestore:"crop,omitempty"`
}

// ─────────────────────────────────────────
// ProfileStore implementation
// ─────────────────────────────────────────

func (s *Store) GetProfile(ctx context.Context, userID domain.UserID) (*domain.UserProfile, error) {
	snap, err := s.userDoc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("firestore GetProfile: %w", err)
	}

	var doc profileDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetProfile decode: %w", err)
	}

	return &domain.UserProfile{
		ID:       userID,
		Name:     doc.Name,
		Language: domain.Language(doc.Language),
	}, nil
}

// ─────────────────────────────────────────
// PlotStore implementation
// ─────────────────────────────────────────

func (s *Store) GetPlot(ctx context.Context, userID domain.UserID, plotID domain.PlotID) (*domain.Plot, error) {
	snap, err := s.plotDoc(userID, plotID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrPlotNotFound
		}
		return nil, fmt.Errorf("firestore GetPlot: %w", err)
	}

	var doc plotDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetPlot decode: %w", err)
	}

	return toPlot(userID, plotID, doc), nil
}

func (s *Store) ListPlots(ctx context.Context, userID domain.UserID) ([]*domain.Plot, error) {
	iter := s.plotsCol(userID).OrderBy("plotName", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []*domain.Plot
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListPlots: %w", err)
		}

		var doc plotDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode plotDoc: %w", err)
		}
		out = append(out, toPlot(userID, domain.PlotID(snap.Ref.ID), doc))
	}
	return out, nil
}

func (s *Store) SavePlot(ctx context.Context, plot *domain.Plot) error {
	if plot.ID == "" {
		plot.ID = domain.PlotID(s.plotsCol(plot.UserID).NewDoc().ID)
	}

	doc := plotDoc{
		PlotName:         plot.Name,
		Location:         plot.Location,
		LandSize:         plot.LandSize,
		IrrigationSource: plot.IrrigationSource,
		SoilType:         plot.SoilType,
		SoilPH:           plot.SoilPH,
		Nitrogen:         plot.Nitrogen,
		Phosphorus:       plot.Phosphorus,
		Potassium:        plot.Potassium,
		Crop:             plot.Crop,
		SowingDate:       plot.SowingDate,
		PreviousCrop:     plot.PreviousCrop,
	}

	if _, err := s.plotDoc(plot.UserID, plot.ID).Set(ctx, doc, firestore.MergeAll); err != nil {
		return fmt.Errorf("firestore SavePlot: %w", err)
	}
	return nil
}

func (s *Store) SetCrop(ctx context.Context, userID domain.UserID, plotID domain.PlotID, crop string) error {
	_, err := s.plotDoc(userID, plotID).Set(ctx, map[string]interface{}{
		"crop": crop,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("firestore SetCrop: %w", err)
	}
	return nil
}

func toPlot(userID domain.UserID, plotID domain.PlotID, doc plotDoc) *domain.Plot {
	return &domain.Plot{
		ID:               plotID,
		UserID:           userID,
		Name:             doc.PlotName,
		Location:         doc.Location,
		LandSize:         doc.LandSize,
		IrrigationSource: doc.IrrigationSource,
		SoilType:         doc.SoilType,
		SoilPH:           doc.SoilPH,
		Nitrogen:         doc.Nitrogen,
		Phosphorus:       doc.Phosphorus,
		Potassium:        doc.Potassium,
		Crop:             doc.Crop,
		SowingDate:       doc.SowingDate,
		PreviousCrop:     doc.PreviousCrop,
	}
}

// ─────────────────────────────────────────
// MessageStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendMessage(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	if msg.ID == "" {
		msg.ID = domain.MessageID(s.messagesCol(msg.UserID, msg.PlotID).NewDoc().ID)
	}

	doc := messageDoc{
		Text:               msg.Text,
		IsUser:             msg.Author == domain.RoleFarmer,
		Timestamp:          msg.CreatedAt,
		ImageURL:           msg.ImageURL,
		IsUpdateSuggestion: msg.UpdateSuggestion,
		Crop:               msg.Crop,
	}

	if _, err := s.messagesCol(msg.UserID, msg.PlotID).Doc(string(msg.ID)).Set(ctx, doc); err != nil {
		return nil, fmt.Errorf("firestore AppendMessage: %w", err)
	}
	return msg, nil
}

func (s *Store) ListMessages(ctx context.Context, userID domain.UserID, plotID domain.PlotID) ([]*domain.Message, error) {
	iter := s.messagesCol(userID, plotID).OrderBy("timestamp", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []*domain.Message
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListMessages: %w", err)
		}

		msg, err := toMessage(userID, plotID, snap)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

// SubscribeMessages streams the log via Firestore snapshot listeners.
// The first snapshot replays every existing document as an add, then
// each append arrives as a change.
func (s *Store) SubscribeMessages(ctx context.Context, userID domain.UserID, plotID domain.PlotID) (domain.MessageSubscription, error) {
	subCtx, cancel := context.WithCancel(ctx)

	sub := &snapshotSubscription{
		events: make(chan *domain.Message, 64),
		cancel: cancel,
	}

	snaps := s.messagesCol(userID, plotID).OrderBy("timestamp", firestore.Asc).Snapshots(subCtx)
	go sub.pump(subCtx, snaps, userID, plotID)

	return sub, nil
}

type snapshotSubscription struct {
	events    chan *domain.Message
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func (s *snapshotSubscription) Events() <-chan *domain.Message {
	return s.events
}

func (s *snapshotSubscription) Close() {
	s.closeOnce.Do(s.cancel)
}

func (s *snapshotSubscription) pump(ctx context.Context, snaps *firestore.QuerySnapshotIterator, userID domain.UserID, plotID domain.PlotID) {
	defer close(s.events)
	defer snaps.Stop()

	for {
		snap, err := snaps.Next()
		if err != nil {
			// cancellation via Close ends the stream
			return
		}
		for _, change := range snap.Changes {
			if change.Kind != firestore.DocumentAdded {
				continue
			}
			msg, err := toMessage(userID, plotID, change.Doc)
			if err != nil {
				continue
			}
			select {
			case s.events <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
}

func toMessage(userID domain.UserID, plotID domain.PlotID, snap *firestore.DocumentSnapshot) (*domain.Message, error) {
	var doc messageDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode messageDoc: %w", err)
	}

	author := domain.RoleAdvisor
	if doc.IsUser {
		author = domain.RoleFarmer
	}

	return &domain.Message{
		ID:               domain.MessageID(snap.Ref.ID),
		UserID:           userID,
		PlotID:           plotID,
		Author:           author,
		Text:             doc.Text,
		CreatedAt:        doc.Timestamp,
		ImageURL:         doc.ImageURL,
		UpdateSuggestion: doc.IsUpdateSuggestion,
		Crop:             doc.Crop,
	}, nil
}
