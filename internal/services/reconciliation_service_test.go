package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/beycollection/internal/apperrors"
	"github.com/javajoker/beycollection/internal/models"
)

const pngDataURL = "data:image/png;base64,iVBORw0KGgo="

type ReconciliationServiceTestSuite struct {
	suite.Suite
	catalog    *fakeCatalog
	collection *fakeCollection
	store      *memStore
	service    *ReconciliationService
	userID     uuid.UUID
}

func (suite *ReconciliationServiceTestSuite) SetupTest() {
	suite.catalog = &fakeCatalog{}
	suite.collection = &fakeCollection{catalog: suite.catalog}
	suite.store = newMemStore()
	suite.service = NewReconciliationService(suite.catalog, suite.collection, suite.store, "photos")
	suite.userID = uuid.New()
}

func dranSwordResult() *models.IdentificationResult {
	components := models.NewXComponents("Dran Sword", "3-60", "Flat")
	return &models.IdentificationResult{
		Identified:  true,
		Name:        "Dran Sword 3-60F",
		Series:      "Beyblade X",
		Generation:  "Basic Line",
		Type:        models.TypeAttack,
		Components:  &components,
		Description: "Attack type with three blades.",
		ImageURL:    dranSwordImage,
		WikiURL:     "https://beyblade.fandom.com/wiki/DranSword",
	}
}

func (suite *ReconciliationServiceTestSuite) TestConfirmCreatesEntryAndItem() {
	acquired := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	result, err := suite.service.Confirm(context.Background(), suite.userID, ConfirmRequest{
		Result:        dranSwordResult(),
		Photo:         jpegDataURL,
		AcquiredAt:    &acquired,
		SpinDirection: models.SpinRight,
	})
	suite.Require().NoError(err)

	suite.Equal(ConfirmAdded, result.Outcome)
	suite.True(strings.HasPrefix(result.Item.PhotoURL, memStoreURL+"/photos/"+suite.userID.String()+"/"))
	suite.True(strings.HasSuffix(result.Item.PhotoURL, ".jpg"))
	suite.Equal(result.Item.PhotoURL, result.Entry.ImageURL, "the user photo is the preferred catalog image")
	suite.Equal(models.ConditionGood, result.Item.Condition)
	suite.Equal(models.SpinRight, result.Item.SpinDirection)
	suite.Equal(&acquired, result.Item.AcquiredAt)
	suite.Equal(result.Entry.ID, result.Item.CatalogEntryID)

	suite.Len(suite.catalog.entries, 1)
	suite.Len(suite.collection.items, 1)
}

func (suite *ReconciliationServiceTestSuite) TestConfirmWithoutPhotoUsesResultImage() {
	result, err := suite.service.Confirm(context.Background(), suite.userID, ConfirmRequest{Result: dranSwordResult()})
	suite.Require().NoError(err)
	suite.Equal(dranSwordImage, result.Entry.ImageURL)
	suite.Empty(result.Item.PhotoURL)
}

func (suite *ReconciliationServiceTestSuite) TestConfirmMergesIntoExistingEntry() {
	existing := entry("Dran Sword 3-60F", "Beyblade X", "", "")
	existing.ImageURL = memStoreURL + "/wiki-cache/DranSword-400.jpg"
	suite.catalog.entries = append(suite.catalog.entries, existing)

	result, err := suite.service.Confirm(context.Background(), suite.userID, ConfirmRequest{
		Result: dranSwordResult(),
		Photo:  jpegDataURL,
	})
	suite.Require().NoError(err)

	suite.Equal(existing.ID, result.Entry.ID)
	suite.Equal(memStoreURL+"/wiki-cache/DranSword-400.jpg", result.Entry.ImageURL, "a populated image is kept")
	suite.Equal("Basic Line", result.Entry.Generation)
	suite.Equal(models.TypeAttack, result.Entry.Type)
	suite.Equal("Attack type with three blades.", result.Entry.Description)
	suite.Len(suite.catalog.entries, 1)

	suite.Require().Len(suite.catalog.updates, 1)
	suite.NotContains(suite.catalog.updates[0], "image_url")
	suite.NotContains(suite.catalog.updates[0], "series")
}

func (suite *ReconciliationServiceTestSuite) TestConfirmAlreadyOwned() {
	first, err := suite.service.Confirm(context.Background(), suite.userID, ConfirmRequest{Result: dranSwordResult(), Photo: jpegDataURL})
	suite.Require().NoError(err)

	second, err := suite.service.Confirm(context.Background(), suite.userID, ConfirmRequest{Result: dranSwordResult(), Photo: pngDataURL})
	suite.Require().NoError(err)
	suite.Equal(ConfirmAlreadyOwned, second.Outcome)
	suite.Nil(second.Item)
	suite.Equal(first.Entry.ID, second.Entry.ID)
	suite.Len(suite.collection.items, 1)

	suite.Require().Len(suite.store.deleted, 1, "the unused photo is removed")
	suite.True(strings.HasSuffix(suite.store.deleted[0], ".png"))

	key, _ := suite.store.KeyFromURL(first.Item.PhotoURL)
	suite.True(suite.store.has(key))
}

func (suite *ReconciliationServiceTestSuite) TestConfirmSamePhotoTwiceKeepsIt() {
	first, err := suite.service.Confirm(context.Background(), suite.userID, ConfirmRequest{Result: dranSwordResult(), Photo: jpegDataURL})
	suite.Require().NoError(err)

	second, err := suite.service.Confirm(context.Background(), suite.userID, ConfirmRequest{Result: dranSwordResult(), Photo: jpegDataURL})
	suite.Require().NoError(err)
	suite.Equal(ConfirmAlreadyOwned, second.Outcome)
	suite.Empty(suite.store.deleted)

	key, _ := suite.store.KeyFromURL(first.Item.PhotoURL)
	suite.True(suite.store.has(key))
}

func (suite *ReconciliationServiceTestSuite) TestConfirmSharesEntryAcrossUsers() {
	_, err := suite.service.Confirm(context.Background(), suite.userID, ConfirmRequest{Result: dranSwordResult()})
	suite.Require().NoError(err)

	other, err := suite.service.Confirm(context.Background(), uuid.New(), ConfirmRequest{Result: dranSwordResult()})
	suite.Require().NoError(err)
	suite.Equal(ConfirmAdded, other.Outcome)
	suite.Len(suite.catalog.entries, 1)
	suite.Len(suite.collection.items, 2)
}

func (suite *ReconciliationServiceTestSuite) TestConfirmLosesInsertRace() {
	winner := entry("Dran Sword 3-60F", "Beyblade X", "Basic Line", models.TypeAttack)
	suite.catalog.raceEntry = winner

	result, err := suite.service.Confirm(context.Background(), suite.userID, ConfirmRequest{Result: dranSwordResult()})
	suite.Require().NoError(err)
	suite.Equal(winner.ID, result.Entry.ID)
	suite.Equal(ConfirmAdded, result.Outcome)
	suite.Len(suite.catalog.entries, 1)
}

func (suite *ReconciliationServiceTestSuite) TestConcurrentConfirmReportsAlreadyOwned() {
	_, err := suite.service.Confirm(context.Background(), uuid.New(), ConfirmRequest{Result: dranSwordResult()})
	suite.Require().NoError(err)

	suite.collection.concurrentInsert = true
	result, err := suite.service.Confirm(context.Background(), suite.userID, ConfirmRequest{Result: dranSwordResult(), Photo: jpegDataURL})
	suite.Require().NoError(err)
	suite.Equal(ConfirmAlreadyOwned, result.Outcome)
	suite.Nil(result.Item)
	suite.Len(suite.collection.items, 2)

	suite.Require().Len(suite.store.deleted, 1, "the photo uploaded for the losing insert is removed")
	suite.True(strings.HasPrefix(suite.store.deleted[0], "photos/"+suite.userID.String()+"/"))
}

func (suite *ReconciliationServiceTestSuite) TestConcurrentAddExistingReportsAlreadyOwned() {
	existing := entry("Phoenix Wing 9-60GF", "Beyblade X", "Basic Line", models.TypeAttack)
	suite.catalog.entries = append(suite.catalog.entries, existing)

	suite.collection.concurrentInsert = true
	result, err := suite.service.AddExisting(context.Background(), suite.userID, existing.ID, "")
	suite.Require().NoError(err)
	suite.Equal(ConfirmAlreadyOwned, result.Outcome)
	suite.Equal(existing.ID, result.Entry.ID)
	suite.Len(suite.collection.items, 1)
}

func (suite *ReconciliationServiceTestSuite) TestConfirmRejectsUnidentified() {
	_, err := suite.service.Confirm(context.Background(), suite.userID, ConfirmRequest{Result: &models.IdentificationResult{Suggestions: []string{"Dran Sword"}}})
	suite.True(apperrors.Is(err, apperrors.TypeValidation))

	nameless := dranSwordResult()
	nameless.Name = "  "
	_, err = suite.service.Confirm(context.Background(), suite.userID, ConfirmRequest{Result: nameless})
	suite.True(apperrors.Is(err, apperrors.TypeValidation))

	_, err = suite.service.Confirm(context.Background(), suite.userID, ConfirmRequest{Result: nil})
	suite.True(apperrors.Is(err, apperrors.TypeValidation))

	_, err = suite.service.Confirm(context.Background(), suite.userID, ConfirmRequest{Result: dranSwordResult(), SpinDirection: "up"})
	suite.True(apperrors.Is(err, apperrors.TypeValidation))

	suite.Empty(suite.catalog.entries)
}

func (suite *ReconciliationServiceTestSuite) TestConfirmInvalidPhotoIsNotFatal() {
	result, err := suite.service.Confirm(context.Background(), suite.userID, ConfirmRequest{
		Result: dranSwordResult(),
		Photo:  "data:image/jpeg;base64,PGh0bWw+",
	})
	suite.Require().NoError(err)
	suite.Equal(ConfirmAdded, result.Outcome)
	suite.Empty(result.Item.PhotoURL)
	suite.Equal(0, suite.store.uploads)
}

func (suite *ReconciliationServiceTestSuite) TestCollectionFailureKeepsCatalogEntry() {
	suite.collection.createErr = errors.New("connection reset")

	_, err := suite.service.Confirm(context.Background(), suite.userID, ConfirmRequest{Result: dranSwordResult()})
	suite.Error(err)
	suite.NotNil(suite.catalog.byName("Dran Sword 3-60F"))
	suite.Empty(suite.collection.items)
}

func (suite *ReconciliationServiceTestSuite) TestAddExisting() {
	existing := entry("Phoenix Wing 9-60GF", "Beyblade X", "Basic Line", models.TypeAttack)
	suite.catalog.entries = append(suite.catalog.entries, existing)

	result, err := suite.service.AddExisting(context.Background(), suite.userID, existing.ID, models.SpinDual)
	suite.Require().NoError(err)
	suite.Equal(ConfirmAdded, result.Outcome)
	suite.Equal(models.SpinDual, result.Item.SpinDirection)

	result, err = suite.service.AddExisting(context.Background(), suite.userID, existing.ID, "")
	suite.Require().NoError(err)
	suite.Equal(ConfirmAlreadyOwned, result.Outcome)

	_, err = suite.service.AddExisting(context.Background(), suite.userID, uuid.New(), "")
	suite.True(apperrors.IsNotFound(err))
}

func TestReconciliationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceTestSuite))
}

func TestUploadUserPhotoIsContentAddressed(t *testing.T) {
	store := newMemStore()
	userID := uuid.New()

	url, created, err := uploadUserPhoto(context.Background(), store, "photos", userID, jpegDataURL)
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := uploadUserPhoto(context.Background(), store, "photos", userID, jpegDataURL)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, url, again)
	assert.Equal(t, 1, store.uploads)

	_, _, err = uploadUserPhoto(context.Background(), store, "photos", userID, "not base64!")
	assert.True(t, apperrors.Is(err, apperrors.TypeValidation))
}
