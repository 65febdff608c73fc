package domain

import (
	"math"
	"time"
)

type DealStatus string

const (
	DealActive    DealStatus = "active"
	DealOnHold    DealStatus = "on-hold"
	DealCompleted DealStatus = "completed"
	DealCancelled DealStatus = "cancelled"
)

type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageInProgress StageStatus = "in-progress"
	StageDone       StageStatus = "completed"
	StageBlocked    StageStatus = "blocked"
)

func (s StageStatus) Valid() bool {
	switch s {
	case StagePending, StageInProgress, StageDone, StageBlocked:
		return true
	}
	return false
}

type ChecklistItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	AssignedTo  string     `json:"assigned_to,omitempty"`
}

type DealDocument struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	UploadedBy string    `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type DealComment struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// DealStageProgress is one step of an acquisition.
type DealStageProgress struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Order       int             `json:"order"`
	Status      StageStatus     `json:"status"`
	Progress    int             `json:"progress"`
	Checklist   []ChecklistItem `json:"checklist,omitempty"`
	Documents   []DealDocument  `json:"documents,omitempty"`
	Comments    []DealComment   `json:"comments,omitempty"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Recompute derives progress from the checklist.
func (s *DealStageProgress) Recompute() {
	if len(s.Checklist) == 0 {
		if s.Status == StageDone {
			s.Progress = 100
		} else {
			s.Progress = 0
		}
		return
	}
	done := 0
	for _, item := range s.Checklist {
		if item.Completed {
			done++
		}
	}
	s.Progress = int(math.Round(float64(done) * 100 / float64(len(s.Checklist))))
}

// AcquisitionDeal tracks a buyer/seller transaction through ordered stages.
type AcquisitionDeal struct {
	ID              string              `json:"id"`
	BuyerID         string              `json:"buyer_id"`
	SellerID        string              `json:"seller_id"`
	MatchID         string              `json:"match_id,omitempty"`
	Title           string              `json:"title"`
	BusinessName    string              `json:"business_name,omitempty"`
	Status          DealStatus          `json:"status"`
	DealValue       float64             `json:"deal_value"`
	Stages          []DealStageProgress `json:"stages"`
	OverallProgress int                 `json:"overall_progress"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func (d AcquisitionDeal) EntityID() string { return d.ID }

// Recompute refreshes every stage's progress and the overall mean.
func (d *AcquisitionDeal) Recompute() {
	if len(d.Stages) == 0 {
		d.OverallProgress = 0
		return
	}
	total := 0
	for i := range d.Stages {
		d.Stages[i].Recompute()
		total += d.Stages[i].Progress
	}
	d.OverallProgress = int(math.Round(float64(total) / float64(len(d.Stages))))
}

// Stage returns the index of the stage with the given id, or -1.
func (d *AcquisitionDeal) Stage(stageID string) int {
	for i := range d.Stages {
		if d.Stages[i].ID == stageID {
			return i
		}
	}
	return -1
}

// DealPatch is a partial deal update.
type DealPatch struct {
	Title        *string     `json:"title,omitempty"`
	BusinessName *string     `json:"business_name,omitempty"`
	Status       *DealStatus `json:"status,omitempty"`
	DealValue    *float64    `json:"deal_value,omitempty"`
}

func (p DealPatch) Apply(d *AcquisitionDeal) {
	setIf(&d.Title, p.Title)
	setIf(&d.BusinessName, p.BusinessName)
	setIf(&d.Status, p.Status)
	setIf(&d.DealValue, p.DealValue)
}

// DefaultDealStages is the stage template used for new deals.
var DefaultDealStages = []struct {
	Name      string
	Checklist []string
}{
	{"Initial Review", []string{"Sign NDA", "Review teaser", "Intro call"}},
	{"Due Diligence", []string{"Financial statements", "Legal review", "Customer contracts"}},
	{"Negotiation", []string{"Letter of intent", "Agree valuation", "Deal structure"}},
	{"Closing", []string{"Purchase agreement", "Funds transfer", "Handover plan"}},
}
