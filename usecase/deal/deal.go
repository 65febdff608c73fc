package deal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/usecase/entity"
)

// Store holds acquisition deals and keeps their progress figures derived from the checklists.
type Store struct {
	*entity.Store[domain.AcquisitionDeal, domain.DealFilters]
}

func New(repo entity.Repository[domain.AcquisitionDeal], deps entity.Deps) *Store {
	return &Store{Store: entity.New(repo, entity.Options[domain.AcquisitionDeal, domain.DealFilters]{
		Name:    "deals",
		Prepare: prepare,
		Refresh: refresh,
		Match:   Matches,
		Clone:   Clone,
		Buffer:  deps.Buffer,
		Metrics: deps.Metrics,
		Logger:  deps.Logger,
	})}
}

func prepare(d *domain.AcquisitionDeal, id string, now time.Time) {
	if d.ID == "" {
		d.ID = id
	}
	if d.Status == "" {
		d.Status = domain.DealActive
	}
	if len(d.Stages) == 0 {
		d.Stages = DefaultStages(now)
	}
	for i := range d.Stages {
		if d.Stages[i].ID == "" {
			d.Stages[i].ID = entity.NewID()
		}
		if d.Stages[i].Status == "" {
			d.Stages[i].Status = domain.StagePending
		}
	}
	d.Recompute()
	d.CreatedAt = now
	d.UpdatedAt = now
}

func refresh(d *domain.AcquisitionDeal, now time.Time) {
	d.Recompute()
	d.UpdatedAt = now
}

// DefaultStages builds the stage template for a new deal. The first stage starts in progress.
func DefaultStages(now time.Time) []domain.DealStageProgress {
	stages := make([]domain.DealStageProgress, 0, len(domain.DefaultDealStages))
	for i, tpl := range domain.DefaultDealStages {
		stage := domain.DealStageProgress{
			ID:     entity.NewID(),
			Name:   tpl.Name,
			Order:  i + 1,
			Status: domain.StagePending,
		}
		for _, title := range tpl.Checklist {
			stage.Checklist = append(stage.Checklist, domain.ChecklistItem{ID: entity.NewID(), Title: title})
		}
		if i == 0 {
			started := now
			stage.Status = domain.StageInProgress
			stage.StartedAt = &started
		}
		stages = append(stages, stage)
	}
	return stages
}

// Matches applies deal filters and the search term.
func Matches(d domain.AcquisitionDeal, f domain.DealFilters, search string) bool {
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.BuyerID != "" && d.BuyerID != f.BuyerID {
		return false
	}
	if f.SellerID != "" && d.SellerID != f.SellerID {
		return false
	}
	stageNames := make([]string, 0, len(d.Stages))
	for _, s := range d.Stages {
		stageNames = append(stageNames, s.Name)
	}
	return domain.MatchesSearch(search, d.Title, d.BusinessName, strings.Join(stageNames, " "))
}

// Update merges a partial deal edit.
func (s *Store) Update(ctx context.Context, id string, patch domain.DealPatch) (*domain.AcquisitionDeal, error) {
	return s.Store.Update(ctx, id, patch)
}

// ForUser lists deals in which userID is buyer or seller.
func (s *Store) ForUser(userID string) []domain.AcquisitionDeal {
	return s.Where(func(d domain.AcquisitionDeal) bool {
		return d.BuyerID == userID || d.SellerID == userID
	})
}

// SetChecklistItem marks a checklist item done or open and recomputes progress.
func (s *Store) SetChecklistItem(ctx context.Context, dealID, stageID, itemID string, completed bool) (*domain.AcquisitionDeal, error) {
	return s.mutateStage(ctx, "set_checklist_item", dealID, stageID, func(stage *domain.DealStageProgress, now time.Time) error {
		for i := range stage.Checklist {
			if stage.Checklist[i].ID != itemID {
				continue
			}
			stage.Checklist[i].Completed = completed
			if completed {
				at := now
				stage.Checklist[i].CompletedAt = &at
			} else {
				stage.Checklist[i].CompletedAt = nil
			}
			return nil
		}
		return domain.WrapError(domain.ErrCodeNotFound, "checklist item not found", fmt.Errorf("item %s", itemID))
	})
}

// AddChecklistItem appends an open checklist item to a stage.
func (s *Store) AddChecklistItem(ctx context.Context, dealID, stageID string, item domain.ChecklistItem) (*domain.AcquisitionDeal, error) {
	if strings.TrimSpace(item.Title) == "" {
		return nil, s.RecordError("add_checklist_item", domain.ErrInvalidPayload)
	}
	return s.mutateStage(ctx, "add_checklist_item", dealID, stageID, func(stage *domain.DealStageProgress, _ time.Time) error {
		if item.ID == "" {
			item.ID = entity.NewID()
		}
		item.Completed = false
		item.CompletedAt = nil
		stage.Checklist = append(stage.Checklist, item)
		return nil
	})
}

// UpdateStageStatus moves a stage to a new status, stamping start and completion times.
func (s *Store) UpdateStageStatus(ctx context.Context, dealID, stageID string, status domain.StageStatus) (*domain.AcquisitionDeal, error) {
	if !status.Valid() {
		return nil, s.RecordError("update_stage_status", domain.WrapError(domain.ErrCodeInvalid, "invalid stage status", fmt.Errorf("%q", status)))
	}
	return s.mutateStage(ctx, "update_stage_status", dealID, stageID, func(stage *domain.DealStageProgress, now time.Time) error {
		stage.Status = status
		at := now
		switch status {
		case domain.StageInProgress:
			if stage.StartedAt == nil {
				stage.StartedAt = &at
			}
			stage.CompletedAt = nil
		case domain.StageDone:
			stage.CompletedAt = &at
		}
		return nil
	})
}

// AddDocument attaches a document to a stage.
func (s *Store) AddDocument(ctx context.Context, dealID, stageID string, doc domain.DealDocument) (*domain.AcquisitionDeal, error) {
	return s.mutateStage(ctx, "add_document", dealID, stageID, func(stage *domain.DealStageProgress, now time.Time) error {
		if doc.ID == "" {
			doc.ID = entity.NewID()
		}
		if doc.UploadedAt.IsZero() {
			doc.UploadedAt = now
		}
		stage.Documents = append(stage.Documents, doc)
		return nil
	})
}

// AddComment appends a comment to a stage.
func (s *Store) AddComment(ctx context.Context, dealID, stageID string, comment domain.DealComment) (*domain.AcquisitionDeal, error) {
	if strings.TrimSpace(comment.Content) == "" {
		return nil, s.RecordError("add_comment", domain.ErrInvalidPayload)
	}
	return s.mutateStage(ctx, "add_comment", dealID, stageID, func(stage *domain.DealStageProgress, now time.Time) error {
		if comment.ID == "" {
			comment.ID = entity.NewID()
		}
		if comment.CreatedAt.IsZero() {
			comment.CreatedAt = now
		}
		stage.Comments = append(stage.Comments, comment)
		return nil
	})
}

func (s *Store) mutateStage(
	ctx context.Context,
	operation, dealID, stageID string,
	fn func(stage *domain.DealStageProgress, now time.Time) error,
) (*domain.AcquisitionDeal, error) {
	return s.Mutate(ctx, operation, dealID, domain.ErrDealNotFound, func(d *domain.AcquisitionDeal) error {
		idx := d.Stage(stageID)
		if idx < 0 {
			return domain.ErrStageNotFound
		}
		return fn(&d.Stages[idx], time.Now())
	})
}

// Clone deep-copies a deal so stage edits never alias the stored value.
func Clone(d domain.AcquisitionDeal) domain.AcquisitionDeal {
	stages := make([]domain.DealStageProgress, len(d.Stages))
	for i, st := range d.Stages {
		st.Checklist = append([]domain.ChecklistItem(nil), st.Checklist...)
		st.Documents = append([]domain.DealDocument(nil), st.Documents...)
		st.Comments = append([]domain.DealComment(nil), st.Comments...)
		stages[i] = st
	}
	d.Stages = stages
	return d
}
