package deal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/usecase/entity"
)

func TestStore_AddBuildsDefaultStages(t *testing.T) {
	store := New(nil, entity.Deps{})
	d, err := store.Add(context.Background(), domain.AcquisitionDeal{BuyerID: "b1", SellerID: "s1", Title: "Harbor Coffee"})
	require.NoError(t, err)

	assert.Equal(t, domain.DealActive, d.Status)
	require.Len(t, d.Stages, len(domain.DefaultDealStages))
	assert.Equal(t, domain.StageInProgress, d.Stages[0].Status)
	assert.Equal(t, domain.StagePending, d.Stages[1].Status)
	assert.Zero(t, d.OverallProgress)
}

func TestStore_ChecklistDrivesProgress(t *testing.T) {
	store := New(nil, entity.Deps{})
	ctx := context.Background()
	d, err := store.Add(ctx, domain.AcquisitionDeal{
		BuyerID:  "b1",
		SellerID: "s1",
		Stages: []domain.DealStageProgress{
			{ID: "st1", Name: "Review", Checklist: []domain.ChecklistItem{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}, {ID: "c4"}}},
			{ID: "st2", Name: "Close", Checklist: []domain.ChecklistItem{{ID: "c5"}, {ID: "c6"}}},
		},
	})
	require.NoError(t, err)

	_, err = store.SetChecklistItem(ctx, d.ID, "st1", "c1", true)
	require.NoError(t, err)
	updated, err := store.SetChecklistItem(ctx, d.ID, "st2", "c5", true)
	require.NoError(t, err)

	assert.Equal(t, 25, updated.Stages[0].Progress)
	assert.Equal(t, 50, updated.Stages[1].Progress)
	assert.Equal(t, 38, updated.OverallProgress)
	assert.NotNil(t, updated.Stages[0].Checklist[0].CompletedAt)

	updated, err = store.SetChecklistItem(ctx, d.ID, "st1", "c1", false)
	require.NoError(t, err)
	assert.Zero(t, updated.Stages[0].Progress)
	assert.Nil(t, updated.Stages[0].Checklist[0].CompletedAt)
}

func TestStore_StageErrors(t *testing.T) {
	store := New(nil, entity.Deps{})
	ctx := context.Background()
	d, _ := store.Add(ctx, domain.AcquisitionDeal{BuyerID: "b1", SellerID: "s1"})

	_, err := store.SetChecklistItem(ctx, "nope", "st", "c", true)
	assert.ErrorIs(t, err, domain.ErrDealNotFound)

	_, err = store.SetChecklistItem(ctx, d.ID, "nope", "c", true)
	assert.ErrorIs(t, err, domain.ErrStageNotFound)

	_, err = store.SetChecklistItem(ctx, d.ID, d.Stages[0].ID, "nope", true)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
	assert.Equal(t, err.Error(), store.Error())

	_, err = store.UpdateStageStatus(ctx, d.ID, d.Stages[0].ID, "bogus")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestStore_StageAttachments(t *testing.T) {
	store := New(nil, entity.Deps{})
	ctx := context.Background()
	d, _ := store.Add(ctx, domain.AcquisitionDeal{BuyerID: "b1", SellerID: "s1"})
	stageID := d.Stages[1].ID

	_, err := store.AddChecklistItem(ctx, d.ID, stageID, domain.ChecklistItem{Title: "Tax returns"})
	require.NoError(t, err)
	_, err = store.AddDocument(ctx, d.ID, stageID, domain.DealDocument{Name: "p&l.pdf", URL: "https://files/p&l.pdf", UploadedBy: "s1"})
	require.NoError(t, err)
	_, err = store.AddComment(ctx, d.ID, stageID, domain.DealComment{AuthorID: "b1", Content: "Looks good"})
	require.NoError(t, err)
	updated, err := store.UpdateStageStatus(ctx, d.ID, stageID, domain.StageDone)
	require.NoError(t, err)

	stage := updated.Stages[1]
	assert.Len(t, stage.Checklist, len(domain.DefaultDealStages[1].Checklist)+1)
	assert.Len(t, stage.Documents, 1)
	assert.Len(t, stage.Comments, 1)
	assert.Equal(t, domain.StageDone, stage.Status)
	assert.NotNil(t, stage.CompletedAt)

	original, _ := store.GetByID(d.ID)
	assert.Len(t, original.Stages[0].Documents, 0)
}

func TestMatches(t *testing.T) {
	d := domain.AcquisitionDeal{Title: "Harbor Coffee acquisition", BuyerID: "b1", SellerID: "s1", Status: domain.DealActive}
	assert.True(t, Matches(d, domain.DealFilters{BuyerID: "b1"}, "harbor"))
	assert.False(t, Matches(d, domain.DealFilters{Status: domain.DealCompleted}, ""))
	assert.False(t, Matches(d, domain.DealFilters{SellerID: "s2"}, ""))
}
