// internal/services/reconciliation_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/beycollection/internal/apperrors"
	"github.com/javajoker/beycollection/internal/models"
	"github.com/javajoker/beycollection/internal/repository"
	"github.com/javajoker/beycollection/internal/utils"
)

type ConfirmOutcome string

const (
	ConfirmAdded        ConfirmOutcome = "added"
	ConfirmAlreadyOwned ConfirmOutcome = "already_owned"
)

// ConfirmRequest is a result the user accepted plus their own details.
// Photo is an optional data URL.
type ConfirmRequest struct {
	Result        *models.IdentificationResult
	Photo         string
	CustomName    string
	Condition     models.Condition
	Notes         string
	AcquiredAt    *time.Time
	SpinDirection models.SpinDirection
}

type ConfirmResult struct {
	Outcome ConfirmOutcome         `json:"outcome"`
	Entry   *models.CatalogEntry   `json:"beyblade"`
	Item    *models.CollectionItem `json:"item,omitempty"`
}

// ReconciliationService turns a confirmed identification into a shared
// catalog entry and a collection item. The steps are not atomic: a catalog
// entry written before a failed collection insert is kept.
type ReconciliationService struct {
	catalog     CatalogStore
	collection  CollectionStore
	store       ObjectStore
	photoPrefix string
}

func NewReconciliationService(catalog CatalogStore, collection CollectionStore, store ObjectStore, photoPrefix string) *ReconciliationService {
	return &ReconciliationService{
		catalog:     catalog,
		collection:  collection,
		store:       store,
		photoPrefix: strings.Trim(photoPrefix, "/"),
	}
}

func (s *ReconciliationService) Confirm(ctx context.Context, userID uuid.UUID, req ConfirmRequest) (*ConfirmResult, error) {
	r := req.Result
	if r == nil || !r.Identified {
		return nil, apperrors.Validation("beyblade.not_identified", "Only identified Beyblades can be saved")
	}
	if strings.TrimSpace(r.Name) == "" {
		return nil, apperrors.Validation("beyblade.name_required", "Beyblade name is required")
	}
	if req.SpinDirection != "" && !req.SpinDirection.Valid() {
		return nil, apperrors.Validation("collection.invalid_spin_direction", "Invalid spin direction")
	}
	if req.Condition != "" && !req.Condition.Valid() {
		return nil, apperrors.Validation("validation.invalid", "Invalid condition")
	}

	logger := logrus.WithFields(logrus.Fields{"user_id": userID, "name": r.Name})

	photoURL, photoCreated := "", false
	if req.Photo != "" {
		url, created, err := uploadUserPhoto(ctx, s.store, s.photoPrefix, userID, req.Photo)
		if err != nil {
			logger.WithError(err).Warn("Photo upload failed, saving without photo")
		} else {
			photoURL, photoCreated = url, created
		}
	}

	entry, err := s.resolveEntry(ctx, r, photoURL)
	if err != nil {
		return nil, err
	}

	alreadyOwned := func() *ConfirmResult {
		if photoCreated && entry.ImageURL != photoURL {
			deleteOwnedPhoto(ctx, s.store, photoURL)
		}
		return &ConfirmResult{Outcome: ConfirmAlreadyOwned, Entry: entry}
	}

	owned, err := s.collection.Exists(ctx, userID, entry.ID)
	if err != nil {
		return nil, err
	}
	if owned {
		return alreadyOwned(), nil
	}

	condition := req.Condition
	if condition == "" {
		condition = models.ConditionGood
	}

	item := &models.CollectionItem{
		UserID:         userID,
		CatalogEntryID: entry.ID,
		CustomName:     strings.TrimSpace(req.CustomName),
		PhotoURL:       photoURL,
		Condition:      condition,
		Notes:          req.Notes,
		AcquiredAt:     req.AcquiredAt,
		SpinDirection:  req.SpinDirection,
	}
	if err := s.collection.Create(ctx, item); err != nil {
		if errors.Is(err, repository.ErrAlreadyOwned) {
			logger.WithField("beyblade_id", entry.ID).Debug("Concurrent confirm already added this Beyblade")
			return alreadyOwned(), nil
		}
		logger.WithError(err).WithField("beyblade_id", entry.ID).Warn("Catalog entry saved but collection insert failed")
		return nil, err
	}
	item.CatalogEntry = entry

	logger.WithField("beyblade_id", entry.ID).Info("Beyblade added to collection")
	return &ConfirmResult{Outcome: ConfirmAdded, Entry: entry, Item: item}, nil
}

// AddExisting adds a catalog entry the user picked from the catalog.
func (s *ReconciliationService) AddExisting(ctx context.Context, userID, catalogID uuid.UUID, spin models.SpinDirection) (*ConfirmResult, error) {
	if spin != "" && !spin.Valid() {
		return nil, apperrors.Validation("collection.invalid_spin_direction", "Invalid spin direction")
	}

	entry, err := s.catalog.FindByID(ctx, catalogID)
	if err != nil {
		return nil, err
	}

	owned, err := s.collection.Exists(ctx, userID, entry.ID)
	if err != nil {
		return nil, err
	}
	if owned {
		return &ConfirmResult{Outcome: ConfirmAlreadyOwned, Entry: entry}, nil
	}

	item := &models.CollectionItem{
		UserID:         userID,
		CatalogEntryID: entry.ID,
		Condition:      models.ConditionGood,
		SpinDirection:  spin,
	}
	if err := s.collection.Create(ctx, item); err != nil {
		if errors.Is(err, repository.ErrAlreadyOwned) {
			return &ConfirmResult{Outcome: ConfirmAlreadyOwned, Entry: entry}, nil
		}
		return nil, err
	}
	item.CatalogEntry = entry

	return &ConfirmResult{Outcome: ConfirmAdded, Entry: entry, Item: item}, nil
}

// resolveEntry finds the catalog entry by exact name and merges the result
// into it, or inserts a new one. Losing an insert race to another user falls
// back to the row they wrote.
func (s *ReconciliationService) resolveEntry(ctx context.Context, r *models.IdentificationResult, imageURL string) (*models.CatalogEntry, error) {
	name := strings.TrimSpace(r.Name)

	entry, err := s.catalog.FindByName(ctx, name)
	if err == nil {
		return s.merge(ctx, entry, r, imageURL)
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	entry = models.NewCatalogEntry(r, imageURL)
	err = s.catalog.Create(ctx, entry)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, repository.ErrDuplicateName) {
		return nil, err
	}

	entry, err = s.catalog.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.merge(ctx, entry, r, imageURL)
}

func (s *ReconciliationService) merge(ctx context.Context, entry *models.CatalogEntry, r *models.IdentificationResult, imageURL string) (*models.CatalogEntry, error) {
	updates := entry.MergeIdentification(r, imageURL)
	if len(updates) == 0 {
		return entry, nil
	}
	if err := s.catalog.Update(ctx, entry.ID, updates); err != nil {
		return nil, err
	}
	return entry, nil
}

// uploadUserPhoto decodes a data URL and stores it under a content-addressed
// key in the user's photo folder. created is false when the same bytes were
// already stored, in which case the object may be referenced elsewhere.
func uploadUserPhoto(ctx context.Context, store ObjectStore, prefix string, userID uuid.UUID, photo string) (url string, created bool, err error) {
	data, contentType, err := utils.DecodeDataURL(photo)
	if err != nil {
		return "", false, apperrors.Validation("file.invalid_type", "Invalid photo")
	}
	if err := ValidateImage(data); err != nil {
		return "", false, err
	}

	key := utils.ContentKey(prefix+"/"+userID.String(), data, contentType)
	exists, err := store.Exists(ctx, key)
	if err != nil {
		return "", false, err
	}
	if exists {
		return store.PublicURL(key), false, nil
	}

	result, err := store.Upload(ctx, key, data, contentType)
	if err != nil {
		return "", false, err
	}
	return result.URL, true, nil
}

func deleteOwnedPhoto(ctx context.Context, store ObjectStore, photoURL string) {
	if photoURL == "" {
		return
	}
	key, ok := store.KeyFromURL(photoURL)
	if !ok {
		return
	}
	if err := store.Delete(ctx, key); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Failed to delete photo")
	}
}
