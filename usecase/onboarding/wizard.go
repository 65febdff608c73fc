// Package onboarding runs the buyer and seller questionnaires that turn a new
// account into a marketplace profile.
package onboarding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/usecase/buyer"
	"github.com/dealease/backend/usecase/entity"
	"github.com/dealease/backend/usecase/seller"
	"github.com/dealease/backend/usecase/ui"
)

// Wizard is one user's pass through a questionnaire.
type Wizard struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Role      string         `json:"role"`
	Current   int            `json:"current"`
	Answers   map[string]any `json:"answers"`
	Completed bool           `json:"completed"`
	ProfileID string         `json:"profile_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Progress summarises where a wizard stands.
type Progress struct {
	WizardID   string `json:"wizard_id"`
	Step       string `json:"step,omitempty"`
	Title      string `json:"title,omitempty"`
	StepIndex  int    `json:"step_index"`
	TotalSteps int    `json:"total_steps"`
	Percent    int    `json:"percent"`
	Completed  bool   `json:"completed"`
}

// FormID is the UI form key that receives a wizard's validation errors.
func FormID(wizardID string) string { return "onboarding:" + wizardID }

// UseCase coordinates wizards with the profile stores and the UI form maps.
type UseCase struct {
	buyers  *buyer.Store
	sellers *seller.Store
	forms   *ui.Registry
	logger  *zap.Logger

	mu      sync.Mutex
	wizards map[string]*Wizard
}

// New wires the onboarding flow. forms may be nil.
func New(buyers *buyer.Store, sellers *seller.Store, forms *ui.Registry, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		buyers:  buyers,
		sellers: sellers,
		forms:   forms,
		logger:  logger.With(zap.String("usecase", "onboarding")),
		wizards: make(map[string]*Wizard),
	}
}

func stepsFor(role string) []Step {
	if role == domain.RoleSeller {
		return SellerSteps
	}
	return BuyerSteps
}

// Steps returns the questionnaire for a role.
func Steps(role string) []Step {
	return stepsFor(role)
}

// Start opens a wizard for the user's role.
func (uc *UseCase) Start(userID, role string) (Wizard, error) {
	if userID == "" || !domain.ValidRole(role) {
		return Wizard{}, domain.ErrInvalidPayload
	}
	now := time.Now()
	w := &Wizard{
		ID:        entity.NewID(),
		UserID:    userID,
		Role:      role,
		Answers:   make(map[string]any),
		CreatedAt: now,
		UpdatedAt: now,
	}
	uc.mu.Lock()
	uc.wizards[w.ID] = w
	uc.mu.Unlock()
	uc.logger.Info("onboarding started", zap.String("wizard_id", w.ID), zap.String("role", role))
	return cloneWizard(w), nil
}

// Get returns a copy of the wizard.
func (uc *UseCase) Get(wizardID string) (Wizard, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	w, ok := uc.wizards[wizardID]
	if !ok {
		return Wizard{}, domain.ErrWizardNotFound
	}
	return cloneWizard(w), nil
}

// Answer validates one step. The current step or any earlier one may be
// answered; answering the current step advances the wizard.
func (uc *UseCase) Answer(ctx context.Context, wizardID, stepName string, answers map[string]any) (Progress, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	w, ok := uc.wizards[wizardID]
	if !ok {
		return Progress{}, domain.ErrWizardNotFound
	}
	if w.Completed {
		return Progress{}, domain.WrapError(domain.ErrCodeConflict, "onboarding already completed", fmt.Errorf("wizard %s", wizardID))
	}
	steps := stepsFor(w.Role)
	idx := stepIndex(steps, stepName)
	if idx < 0 || idx > w.Current || idx >= len(steps) {
		return Progress{}, domain.ErrInvalidStep
	}
	step := steps[idx]

	formID := FormID(wizardID)
	if errs := step.validate(answers); len(errs) > 0 {
		if uc.forms != nil {
			uc.forms.For(ctx, w.UserID).SetFormErrors(formID, errs)
		}
		return progressOf(w), domain.WrapError(domain.ErrCodeInvalid, "invalid onboarding answers", errs)
	}

	values := make(map[string]any, len(step.Fields))
	for _, f := range step.Fields {
		if v, ok := answers[f.Name]; ok {
			w.Answers[f.Name] = v
			values[f.Name] = v
		}
	}
	if idx == w.Current {
		w.Current++
	}
	w.UpdatedAt = time.Now()
	if uc.forms != nil {
		forms := uc.forms.For(ctx, w.UserID)
		forms.ClearFormErrors(formID)
		forms.SetFormData(formID, values)
	}
	return progressOf(w), nil
}

// Back moves to the previous step. Answers are kept.
func (uc *UseCase) Back(wizardID string) (Progress, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	w, ok := uc.wizards[wizardID]
	if !ok {
		return Progress{}, domain.ErrWizardNotFound
	}
	if w.Current > 0 && !w.Completed {
		w.Current--
		w.UpdatedAt = time.Now()
	}
	return progressOf(w), nil
}

func (uc *UseCase) Progress(wizardID string) (Progress, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	w, ok := uc.wizards[wizardID]
	if !ok {
		return Progress{}, domain.ErrWizardNotFound
	}
	return progressOf(w), nil
}

// Complete builds the profile from the collected answers and adds it to the
// matching store. Every step must have been answered.
func (uc *UseCase) Complete(ctx context.Context, wizardID string) (string, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	w, ok := uc.wizards[wizardID]
	if !ok {
		return "", domain.ErrWizardNotFound
	}
	if w.Completed {
		return w.ProfileID, nil
	}
	if w.Current < len(stepsFor(w.Role)) {
		return "", domain.ErrInvalidStep
	}

	var (
		profileID string
		err       error
	)
	switch w.Role {
	case domain.RoleSeller:
		var created domain.Seller
		created, err = uc.sellers.Add(ctx, sellerFrom(w))
		profileID = created.ID
	default:
		var created domain.Buyer
		created, err = uc.buyers.Add(ctx, buyerFrom(w))
		profileID = created.ID
	}
	if err != nil {
		return "", err
	}

	w.Completed = true
	w.ProfileID = profileID
	w.UpdatedAt = time.Now()
	if uc.forms != nil {
		forms := uc.forms.For(ctx, w.UserID)
		forms.ClearFormErrors(FormID(wizardID))
		forms.ClearFormData(FormID(wizardID))
	}
	uc.logger.Info("onboarding completed", zap.String("wizard_id", wizardID), zap.String("profile_id", profileID))
	return profileID, nil
}

// Discard forgets the wizard.
func (uc *UseCase) Discard(wizardID string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	delete(uc.wizards, wizardID)
}

// Reset forgets every wizard.
func (uc *UseCase) Reset() {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.wizards = make(map[string]*Wizard)
}

func buyerFrom(w *Wizard) domain.Buyer {
	a := w.Answers
	b := domain.Buyer{
		UserID:                 w.UserID,
		Name:                   str(a["name"]),
		Email:                  str(a["email"]),
		Company:                str(a["company"]),
		Location:               str(a["location"]),
		Bio:                    str(a["bio"]),
		Industries:             asStrings(a["industries"]),
		AcquisitionTimeline:    str(a["acquisition_timeline"]),
		PreferredDealStructure: asStrings(a["preferred_deal_structure"]),
	}
	b.InvestmentRangeMin = num(a["investment_min"])
	b.InvestmentRangeMax = num(a["investment_max"])
	b.ExperienceYears = int(num(a["experience_years"]))
	b.RemoteOK = flag(a["remote_ok"])
	return b
}

func sellerFrom(w *Wizard) domain.Seller {
	a := w.Answers
	s := domain.Seller{
		UserID:           w.UserID,
		Name:             str(a["name"]),
		Email:            str(a["email"]),
		BusinessName:     str(a["business_name"]),
		Location:         str(a["location"]),
		Description:      str(a["description"]),
		Industries:       asStrings(a["industries"]),
		ReasonForSelling: str(a["reason_for_selling"]),
	}
	s.AskingPrice = num(a["asking_price"])
	s.AnnualRevenue = num(a["annual_revenue"])
	s.Employees = int(num(a["employees"]))
	s.YearEstablished = int(num(a["year_established"]))
	s.RemoteOperable = flag(a["remote_operable"])
	return s
}

// The readers below run only on answers that passed Step.validate, so a
// present value always parses. An optional answer that was skipped reads as
// the zero value.

func str(v any) string {
	s, _ := asString(v)
	return s
}

func num(v any) float64 {
	n, _ := asNumber(v)
	return n
}

func flag(v any) bool {
	b, _ := asBool(v)
	return b
}

func stepIndex(steps []Step, name string) int {
	for i, s := range steps {
		if s.Name == name {
			return i
		}
	}
	return -1
}

func progressOf(w *Wizard) Progress {
	steps := stepsFor(w.Role)
	p := Progress{
		WizardID:   w.ID,
		StepIndex:  w.Current,
		TotalSteps: len(steps),
		Percent:    w.Current * 100 / len(steps),
		Completed:  w.Completed,
	}
	if w.Current < len(steps) {
		p.Step = steps[w.Current].Name
		p.Title = steps[w.Current].Title
	}
	return p
}

func cloneWizard(w *Wizard) Wizard {
	out := *w
	out.Answers = make(map[string]any, len(w.Answers))
	for k, v := range w.Answers {
		out.Answers[k] = v
	}
	return out
}
