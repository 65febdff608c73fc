package domain

import "time"

// Badge is an achievement shown on a profile.
type Badge struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	EarnedAt    time.Time `json:"earned_at"`
}

// Endorsement is a short recommendation left by another marketplace member.
type Endorsement struct {
	ID         string    `json:"id"`
	FromUserID string    `json:"from_user_id"`
	FromName   string    `json:"from_name"`
	Skill      string    `json:"skill,omitempty"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Reference is a contactable professional reference.
type Reference struct {
	Name         string `json:"name"`
	Company      string `json:"company,omitempty"`
	Relationship string `json:"relationship,omitempty"`
	Email        string `json:"email,omitempty"`
	Verified     bool   `json:"verified"`
}

// Buyer is an acquirer profile.
type Buyer struct {
	ID                     string        `json:"id"`
	UserID                 string        `json:"user_id,omitempty"`
	Name                   string        `json:"name"`
	Email                  string        `json:"email,omitempty"`
	Company                string        `json:"company,omitempty"`
	Location               string        `json:"location,omitempty"`
	Bio                    string        `json:"bio,omitempty"`
	Industries             []string      `json:"industries"`
	InvestmentRangeMin     float64       `json:"investment_range_min"`
	InvestmentRangeMax     float64       `json:"investment_range_max"`
	ExperienceYears        int           `json:"experience_years"`
	AcquisitionTimeline    string        `json:"acquisition_timeline,omitempty"`
	PreferredDealStructure []string      `json:"preferred_deal_structure,omitempty"`
	RemoteOK               bool          `json:"remote_ok"`
	ProfileCompleteness    int           `json:"profile_completeness"`
	VerifiedStatus         bool          `json:"verified_status"`
	Badges                 []Badge       `json:"badges,omitempty"`
	Endorsements           []Endorsement `json:"endorsements,omitempty"`
	References             []Reference   `json:"references,omitempty"`
	CreatedAt              time.Time     `json:"created_at"`
	UpdatedAt              time.Time     `json:"updated_at"`
}

func (b Buyer) EntityID() string { return b.ID }

// InvestmentRange returns the buyer's own budget as a range.
func (b Buyer) InvestmentRange() Range {
	return Range{Min: b.InvestmentRangeMin, Max: b.InvestmentRangeMax}
}

// Completeness reports how much of the buyer profile is filled in, as a percentage.
func (b Buyer) Completeness() int {
	return percentFilled(
		b.Name != "",
		b.Email != "",
		b.Company != "",
		b.Location != "",
		b.Bio != "",
		len(b.Industries) > 0,
		b.InvestmentRangeMin > 0 || b.InvestmentRangeMax > 0,
		b.ExperienceYears > 0,
		b.AcquisitionTimeline != "",
		len(b.PreferredDealStructure) > 0,
	)
}

// Seller is a business owner profile.
type Seller struct {
	ID                  string        `json:"id"`
	UserID              string        `json:"user_id,omitempty"`
	Name                string        `json:"name"`
	Email               string        `json:"email,omitempty"`
	BusinessName        string        `json:"business_name"`
	Industries          []string      `json:"industries"`
	Location            string        `json:"location,omitempty"`
	Description         string        `json:"description,omitempty"`
	AskingPrice         float64       `json:"asking_price"`
	ValuationMin        float64       `json:"valuation_min"`
	ValuationMax        float64       `json:"valuation_max"`
	AnnualRevenue       float64       `json:"annual_revenue"`
	RevenueRangeMin     float64       `json:"revenue_range_min"`
	RevenueRangeMax     float64       `json:"revenue_range_max"`
	Employees           int           `json:"employees"`
	YearEstablished     int           `json:"year_established,omitempty"`
	RemoteOperable      bool          `json:"remote_operable"`
	ReasonForSelling    string        `json:"reason_for_selling,omitempty"`
	ProfileCompleteness int           `json:"profile_completeness"`
	VerifiedStatus      bool          `json:"verified_status"`
	Badges              []Badge       `json:"badges,omitempty"`
	Endorsements        []Endorsement `json:"endorsements,omitempty"`
	References          []Reference   `json:"references,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

func (s Seller) EntityID() string { return s.ID }

// ValuationRange returns the seller's valuation window, falling back to the asking price.
func (s Seller) ValuationRange() Range {
	if s.ValuationMin == 0 && s.ValuationMax == 0 {
		return Range{Min: s.AskingPrice, Max: s.AskingPrice}
	}
	return Range{Min: s.ValuationMin, Max: s.ValuationMax}
}

// RevenueRange returns the seller's revenue window, falling back to annual revenue.
func (s Seller) RevenueRange() Range {
	if s.RevenueRangeMin == 0 && s.RevenueRangeMax == 0 {
		return Range{Min: s.AnnualRevenue, Max: s.AnnualRevenue}
	}
	return Range{Min: s.RevenueRangeMin, Max: s.RevenueRangeMax}
}

// Completeness reports how much of the seller profile is filled in, as a percentage.
func (s Seller) Completeness() int {
	return percentFilled(
		s.Name != "",
		s.Email != "",
		s.BusinessName != "",
		len(s.Industries) > 0,
		s.Location != "",
		s.Description != "",
		s.AskingPrice > 0 || s.ValuationMax > 0,
		s.AnnualRevenue > 0 || s.RevenueRangeMax > 0,
		s.Employees > 0,
		s.YearEstablished > 0,
		s.ReasonForSelling != "",
	)
}

func percentFilled(fields ...bool) int {
	if len(fields) == 0 {
		return 0
	}
	filled := 0
	for _, ok := range fields {
		if ok {
			filled++
		}
	}
	return filled * 100 / len(fields)
}

// BuyerPatch carries the fields of a partial buyer update. Nil fields are left untouched.
type BuyerPatch struct {
	Name                   *string       `json:"name,omitempty"`
	Email                  *string       `json:"email,omitempty"`
	Company                *string       `json:"company,omitempty"`
	Location               *string       `json:"location,omitempty"`
	Bio                    *string       `json:"bio,omitempty"`
	Industries             []string      `json:"industries,omitempty"`
	InvestmentRangeMin     *float64      `json:"investment_range_min,omitempty"`
	InvestmentRangeMax     *float64      `json:"investment_range_max,omitempty"`
	ExperienceYears        *int          `json:"experience_years,omitempty"`
	AcquisitionTimeline    *string       `json:"acquisition_timeline,omitempty"`
	PreferredDealStructure []string      `json:"preferred_deal_structure,omitempty"`
	RemoteOK               *bool         `json:"remote_ok,omitempty"`
	VerifiedStatus         *bool         `json:"verified_status,omitempty"`
	Badges                 []Badge       `json:"badges,omitempty"`
	Endorsements           []Endorsement `json:"endorsements,omitempty"`
	References             []Reference   `json:"references,omitempty"`
}

func (p BuyerPatch) Apply(b *Buyer) {
	setIf(&b.Name, p.Name)
	setIf(&b.Email, p.Email)
	setIf(&b.Company, p.Company)
	setIf(&b.Location, p.Location)
	setIf(&b.Bio, p.Bio)
	setIf(&b.InvestmentRangeMin, p.InvestmentRangeMin)
	setIf(&b.InvestmentRangeMax, p.InvestmentRangeMax)
	setIf(&b.ExperienceYears, p.ExperienceYears)
	setIf(&b.AcquisitionTimeline, p.AcquisitionTimeline)
	setIf(&b.RemoteOK, p.RemoteOK)
	setIf(&b.VerifiedStatus, p.VerifiedStatus)
	if p.Industries != nil {
		b.Industries = append([]string(nil), p.Industries...)
	}
	if p.PreferredDealStructure != nil {
		b.PreferredDealStructure = append([]string(nil), p.PreferredDealStructure...)
	}
	if p.Badges != nil {
		b.Badges = append([]Badge(nil), p.Badges...)
	}
	if p.Endorsements != nil {
		b.Endorsements = append([]Endorsement(nil), p.Endorsements...)
	}
	if p.References != nil {
		b.References = append([]Reference(nil), p.References...)
	}
}

// SellerPatch carries the fields of a partial seller update. Nil fields are left untouched.
type SellerPatch struct {
	Name             *string       `json:"name,omitempty"`
	Email            *string       `json:"email,omitempty"`
	BusinessName     *string       `json:"business_name,omitempty"`
	Industries       []string      `json:"industries,omitempty"`
	Location         *string       `json:"location,omitempty"`
	Description      *string       `json:"description,omitempty"`
	AskingPrice      *float64      `json:"asking_price,omitempty"`
	ValuationMin     *float64      `json:"valuation_min,omitempty"`
	ValuationMax     *float64      `json:"valuation_max,omitempty"`
	AnnualRevenue    *float64      `json:"annual_revenue,omitempty"`
	RevenueRangeMin  *float64      `json:"revenue_range_min,omitempty"`
	RevenueRangeMax  *float64      `json:"revenue_range_max,omitempty"`
	Employees        *int          `json:"employees,omitempty"`
	YearEstablished  *int          `json:"year_established,omitempty"`
	RemoteOperable   *bool         `json:"remote_operable,omitempty"`
	ReasonForSelling *string       `json:"reason_for_selling,omitempty"`
	VerifiedStatus   *bool         `json:"verified_status,omitempty"`
	Badges           []Badge       `json:"badges,omitempty"`
	Endorsements     []Endorsement `json:"endorsements,omitempty"`
	References       []Reference   `json:"references,omitempty"`
}

func (p SellerPatch) Apply(s *Seller) {
	setIf(&s.Name, p.Name)
	setIf(&s.Email, p.Email)
	setIf(&s.BusinessName, p.BusinessName)
	setIf(&s.Location, p.Location)
	setIf(&s.Description, p.Description)
	setIf(&s.AskingPrice, p.AskingPrice)
	setIf(&s.ValuationMin, p.ValuationMin)
	setIf(&s.ValuationMax, p.ValuationMax)
	setIf(&s.AnnualRevenue, p.AnnualRevenue)
	setIf(&s.RevenueRangeMin, p.RevenueRangeMin)
	setIf(&s.RevenueRangeMax, p.RevenueRangeMax)
	setIf(&s.Employees, p.Employees)
	setIf(&s.YearEstablished, p.YearEstablished)
	setIf(&s.RemoteOperable, p.RemoteOperable)
	setIf(&s.ReasonForSelling, p.ReasonForSelling)
	setIf(&s.VerifiedStatus, p.VerifiedStatus)
	if p.Industries != nil {
		s.Industries = append([]string(nil), p.Industries...)
	}
	if p.Badges != nil {
		s.Badges = append([]Badge(nil), p.Badges...)
	}
	if p.Endorsements != nil {
		s.Endorsements = append([]Endorsement(nil), p.Endorsements...)
	}
	if p.References != nil {
		s.References = append([]Reference(nil), p.References...)
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
