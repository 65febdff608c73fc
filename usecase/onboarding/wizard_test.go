package onboarding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/usecase/buyer"
	"github.com/dealease/backend/usecase/entity"
	"github.com/dealease/backend/usecase/seller"
	"github.com/dealease/backend/usecase/ui"
)

func newUseCase() (*UseCase, *buyer.Store, *seller.Store, *ui.Registry) {
	buyers := buyer.New(nil, entity.Deps{})
	sellers := seller.New(nil, entity.Deps{})
	forms := ui.NewRegistry(nil, ui.Config{}, nil)
	return New(buyers, sellers, forms, nil), buyers, sellers, forms
}

var buyerAnswers = []struct {
	step    string
	answers map[string]any
}{
	{"basics", map[string]any{"name": "Dana Reyes", "email": "dana@example.com", "location": "Denver, CO"}},
	{"investment", map[string]any{"industries": []any{"SaaS", "Healthcare"}, "investment_min": 250000.0, "investment_max": 1000000.0}},
	{"experience", map[string]any{"experience_years": 8.0, "acquisition_timeline": "3-6 months"}},
	{"profile", map[string]any{"bio": "Operator looking for a recurring revenue business.", "remote_ok": true}},
}

func TestUseCase_BuyerFlowCreatesProfile(t *testing.T) {
	uc, buyers, _, _ := newUseCase()
	ctx := context.Background()

	w, err := uc.Start("u1", domain.RoleBuyer)
	require.NoError(t, err)

	for i, a := range buyerAnswers {
		p, err := uc.Answer(ctx, w.ID, a.step, a.answers)
		require.NoError(t, err, a.step)
		assert.Equal(t, i+1, p.StepIndex)
	}
	p, err := uc.Progress(w.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, p.Percent)

	profileID, err := uc.Complete(ctx, w.ID)
	require.NoError(t, err)

	b, ok := buyers.GetByID(profileID)
	require.True(t, ok)
	assert.Equal(t, "u1", b.UserID)
	assert.Equal(t, []string{"SaaS", "Healthcare"}, b.Industries)
	assert.Equal(t, 1000000.0, b.InvestmentRangeMax)
	assert.Equal(t, 8, b.ExperienceYears)
	assert.True(t, b.RemoteOK)
	assert.False(t, b.VerifiedStatus)

	again, err := uc.Complete(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, profileID, again)
	assert.Equal(t, 1, buyers.Len())
}

func TestUseCase_InvalidAnswersReachFormErrors(t *testing.T) {
	uc, _, _, forms := newUseCase()
	ctx := context.Background()
	w, _ := uc.Start("u1", domain.RoleBuyer)

	p, err := uc.Answer(ctx, w.ID, "basics", map[string]any{"name": "D", "email": "nope"})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	assert.Zero(t, p.StepIndex)

	var fields FieldErrors
	require.True(t, errors.As(err, &fields))
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "email")

	formErrs := forms.For(ctx, "u1").FormErrors(FormID(w.ID))
	assert.Equal(t, map[string]string(fields), formErrs)

	_, err = uc.Answer(ctx, w.ID, "basics", buyerAnswers[0].answers)
	require.NoError(t, err)
	assert.Empty(t, forms.For(ctx, "u1").FormErrors(FormID(w.ID)))
	assert.Equal(t, "Dana Reyes", forms.For(ctx, "u1").FormData(FormID(w.ID))["name"])
}

func TestUseCase_InvestmentRangeCheck(t *testing.T) {
	uc, _, _, _ := newUseCase()
	ctx := context.Background()
	w, _ := uc.Start("u1", domain.RoleBuyer)
	_, err := uc.Answer(ctx, w.ID, "basics", buyerAnswers[0].answers)
	require.NoError(t, err)

	_, err = uc.Answer(ctx, w.ID, "investment", map[string]any{
		"industries": []any{"SaaS"}, "investment_min": 500000.0, "investment_max": 100000.0,
	})
	var fields FieldErrors
	require.True(t, errors.As(err, &fields))
	assert.Contains(t, fields, "investment_max")
}

func TestUseCase_StepOrdering(t *testing.T) {
	uc, _, _, _ := newUseCase()
	ctx := context.Background()
	w, _ := uc.Start("u1", domain.RoleBuyer)

	_, err := uc.Answer(ctx, w.ID, "investment", buyerAnswers[1].answers)
	assert.ErrorIs(t, err, domain.ErrInvalidStep)
	_, err = uc.Answer(ctx, w.ID, "shipping", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidStep)

	_, err = uc.Complete(ctx, w.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStep)

	_, err = uc.Answer(ctx, w.ID, "basics", buyerAnswers[0].answers)
	require.NoError(t, err)
	p, err := uc.Back(w.ID)
	require.NoError(t, err)
	assert.Equal(t, "basics", p.Step)

	got, err := uc.Get(w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dana Reyes", got.Answers["name"])

	_, err = uc.Progress("missing")
	assert.ErrorIs(t, err, domain.ErrWizardNotFound)
}

func TestUseCase_SellerFlow(t *testing.T) {
	uc, _, sellers, _ := newUseCase()
	ctx := context.Background()
	w, err := uc.Start("u2", domain.RoleSeller)
	require.NoError(t, err)

	steps := []struct {
		name    string
		answers map[string]any
	}{
		{"basics", map[string]any{"name": "Sam Ortiz", "email": "sam@example.com", "business_name": "Ortiz Bakery"}},
		{"business", map[string]any{"industries": "Food & Beverage, Retail", "description": "Neighbourhood bakery with wholesale accounts.", "year_established": 2009.0, "employees": 12.0}},
		{"financials", map[string]any{"asking_price": "850000", "annual_revenue": 1200000.0}},
		{"sale", map[string]any{"reason_for_selling": "Retiring", "remote_operable": "false"}},
	}
	for _, s := range steps {
		_, err := uc.Answer(ctx, w.ID, s.name, s.answers)
		require.NoError(t, err, s.name)
	}

	profileID, err := uc.Complete(ctx, w.ID)
	require.NoError(t, err)
	s, ok := sellers.GetByID(profileID)
	require.True(t, ok)
	assert.Equal(t, "Ortiz Bakery", s.BusinessName)
	assert.Equal(t, []string{"Food & Beverage", "Retail"}, s.Industries)
	assert.Equal(t, 850000.0, s.AskingPrice)
	assert.Equal(t, 2009, s.YearEstablished)
	assert.Equal(t, 12, s.Employees)
	assert.False(t, s.RemoteOperable)
}

func TestUseCase_SkippedOptionalAnswersReadAsZero(t *testing.T) {
	uc, _, sellers, _ := newUseCase()
	ctx := context.Background()
	w, err := uc.Start("u3", domain.RoleSeller)
	require.NoError(t, err)

	steps := []struct {
		name    string
		answers map[string]any
	}{
		{"basics", map[string]any{"name": "Lee Park", "email": "lee@example.com", "business_name": "Park Print"}},
		{"business", map[string]any{"industries": []any{"Printing"}, "description": "Commercial print shop with steady contracts."}},
		{"financials", map[string]any{"asking_price": 400000.0, "annual_revenue": "0"}},
		{"sale", map[string]any{"reason_for_selling": "Relocating"}},
	}
	for _, s := range steps {
		_, err := uc.Answer(ctx, w.ID, s.name, s.answers)
		require.NoError(t, err, s.name)
	}

	_, err = uc.Answer(ctx, w.ID, "business", map[string]any{
		"industries": []any{"Printing"}, "description": "Commercial print shop with steady contracts.", "employees": "many",
	})
	require.Error(t, err)

	profileID, err := uc.Complete(ctx, w.ID)
	require.NoError(t, err)
	s, ok := sellers.GetByID(profileID)
	require.True(t, ok)
	assert.Zero(t, s.Employees)
	assert.Zero(t, s.YearEstablished)
	assert.Zero(t, s.AnnualRevenue)
	assert.False(t, s.RemoteOperable)
}

func TestUseCase_StartValidatesRole(t *testing.T) {
	uc, _, _, _ := newUseCase()
	_, err := uc.Start("u1", "broker")
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}
