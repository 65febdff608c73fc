package demo

import (
	"time"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/usecase/app"
	"github.com/dealease/backend/usecase/deal"
)

// Demo accounts. Each profile's UserID is the account that logs in with the email.
var Users = []domain.User{
	{ID: "demo-buyer-1", Email: "sarah.chen@dealease.demo", Name: "Sarah Chen", Role: domain.RoleBuyer, Status: "active", ProfileID: "buyer-1", IsOnboarded: true},
	{ID: "demo-buyer-2", Email: "marcus.johnson@dealease.demo", Name: "Marcus Johnson", Role: domain.RoleBuyer, Status: "active", ProfileID: "buyer-2", IsOnboarded: true},
	{ID: "demo-buyer-3", Email: "priya.patel@dealease.demo", Name: "Priya Patel", Role: domain.RoleBuyer, Status: "active", ProfileID: "buyer-3", IsOnboarded: true},
	{ID: "demo-seller-1", Email: "tom.wilson@dealease.demo", Name: "Tom Wilson", Role: domain.RoleSeller, Status: "active", ProfileID: "seller-1", IsOnboarded: true},
	{ID: "demo-seller-2", Email: "elena.garcia@dealease.demo", Name: "Elena Garcia", Role: domain.RoleSeller, Status: "active", ProfileID: "seller-2", IsOnboarded: true},
	{ID: "demo-seller-3", Email: "david.kim@dealease.demo", Name: "David Kim", Role: domain.RoleSeller, Status: "active", ProfileID: "seller-3", IsOnboarded: true},
}

// Dataset builds the demo marketplace relative to now.
func Dataset(now time.Time) app.Dataset {
	ago := func(d time.Duration) time.Time { return now.Add(-d) }
	day := 24 * time.Hour

	buyers := []domain.Buyer{
		{
			ID: "buyer-1", UserID: "demo-buyer-1", Name: "Sarah Chen", Email: "sarah.chen@dealease.demo",
			Company: "Chen Capital Partners", Location: "San Francisco, CA",
			Bio:                "Former SaaS operator acquiring profitable B2B software businesses.",
			Industries:         []string{"SaaS", "Technology"},
			InvestmentRangeMin: 500_000, InvestmentRangeMax: 2_000_000, ExperienceYears: 12,
			AcquisitionTimeline: "3-6 months", PreferredDealStructure: []string{"Asset purchase", "Seller financing"},
			RemoteOK: true, VerifiedStatus: true,
			Endorsements: []domain.Endorsement{{ID: "end-1", FromUserID: "demo-seller-2", FromName: "Elena Garcia", Skill: "Due diligence", CreatedAt: ago(40 * day)}},
			CreatedAt:    ago(120 * day),
		},
		{
			ID: "buyer-2", UserID: "demo-buyer-2", Name: "Marcus Johnson", Email: "marcus.johnson@dealease.demo",
			Company: "Johnson Holdings", Location: "Austin, TX",
			Bio:                "Searcher focused on home services and light manufacturing.",
			Industries:         []string{"Home Services", "Manufacturing"},
			InvestmentRangeMin: 1_000_000, InvestmentRangeMax: 5_000_000, ExperienceYears: 6,
			AcquisitionTimeline: "6-12 months", PreferredDealStructure: []string{"SBA loan"},
			VerifiedStatus: true,
			CreatedAt:      ago(90 * day),
		},
		{
			ID: "buyer-3", UserID: "demo-buyer-3", Name: "Priya Patel", Email: "priya.patel@dealease.demo",
			Location:           "Chicago, IL",
			Bio:                "First-time buyer looking at healthcare practices.",
			Industries:         []string{"Healthcare"},
			InvestmentRangeMin: 200_000, InvestmentRangeMax: 800_000, ExperienceYears: 2,
			AcquisitionTimeline: "12+ months", RemoteOK: true,
			CreatedAt: ago(14 * day),
		},
	}

	sellers := []domain.Seller{
		{
			ID: "seller-1", UserID: "demo-seller-1", Name: "Tom Wilson", Email: "tom.wilson@dealease.demo",
			BusinessName: "CloudMetrics Analytics", Industries: []string{"SaaS", "Technology"},
			Location: "Remote", Description: "Analytics dashboards for e-commerce brands with 400 paying customers.",
			AskingPrice: 1_500_000, ValuationMin: 1_200_000, ValuationMax: 1_800_000,
			AnnualRevenue: 620_000, Employees: 6, YearEstablished: 2016, RemoteOperable: true,
			ReasonForSelling: "Founder moving on to a new venture", VerifiedStatus: true,
			CreatedAt: ago(100 * day),
		},
		{
			ID: "seller-2", UserID: "demo-seller-2", Name: "Elena Garcia", Email: "elena.garcia@dealease.demo",
			BusinessName: "Garcia Family HVAC", Industries: []string{"Home Services"},
			Location: "Austin, TX", Description: "Residential HVAC installer and service provider with 3,000 maintenance contracts.",
			AskingPrice: 3_200_000, AnnualRevenue: 4_100_000, RevenueRangeMin: 3_800_000, RevenueRangeMax: 4_300_000,
			Employees: 28, YearEstablished: 1998, ReasonForSelling: "Retirement", VerifiedStatus: true,
			CreatedAt: ago(75 * day),
		},
		{
			ID: "seller-3", UserID: "demo-seller-3", Name: "David Kim", Email: "david.kim@dealease.demo",
			BusinessName: "Lakeside Physical Therapy", Industries: []string{"Healthcare"},
			Location: "Chicago, IL", Description: "Two-clinic physical therapy practice with strong referral network.",
			AskingPrice: 650_000, AnnualRevenue: 900_000, Employees: 9, YearEstablished: 2011,
			ReasonForSelling: "Relocating",
			CreatedAt:        ago(20 * day),
		},
	}
	for i := range buyers {
		buyers[i].UpdatedAt = buyers[i].CreatedAt
		buyers[i].ProfileCompleteness = buyers[i].Completeness()
	}
	for i := range sellers {
		sellers[i].UpdatedAt = sellers[i].CreatedAt
		sellers[i].ProfileCompleteness = sellers[i].Completeness()
	}

	messages := []domain.Message{
		message("msg-1", "match-1", "demo-buyer-1", "demo-seller-1", "Hi Tom, CloudMetrics looks like a great fit. Could you share churn numbers?", ago(3*day)),
		message("msg-2", "match-1", "demo-seller-1", "demo-buyer-1", "Sure, monthly logo churn is under 2%. Happy to walk through the cohort data.", ago(3*day-2*time.Hour)),
		message("msg-3", "match-1", "demo-buyer-1", "demo-seller-1", "Great. Does Thursday work for a call?", ago(2*day)),
		message("msg-4", "match-2", "demo-seller-2", "demo-buyer-2", "Thanks for the LOI, our accountant is reviewing it now.", ago(5*time.Hour)),
		message("msg-5", "match-3", "demo-buyer-3", "demo-seller-3", "Hello David, I'd love to learn more about the practice.", ago(day)),
	}
	read := ago(3*day - time.Hour)
	messages[0].ReadAt = &read
	readReply := ago(2*day + time.Hour)
	messages[1].ReadAt = &readReply

	matches := []domain.Match{
		{
			ID: "match-1", BuyerID: "demo-buyer-1", SellerID: "demo-seller-1", BusinessID: "seller-1",
			Status: domain.MatchActive, DealStage: domain.StageDueDiligence, MatchScore: 92,
			MatchReasons: []string{"Industry alignment", "Investment range fit", "Remote friendly"},
			UnreadCount:  domain.UnreadCount{Buyer: 0, Seller: 1},
			NextSteps:    []string{"Review cohort data", "Schedule management call"},
			ScheduledMeetings: []domain.Meeting{{
				ID: "meeting-1", Title: "Management call", ScheduledAt: now.Add(2 * day), Duration: 45,
				Type: "video", MeetingLink: "https://meet.dealease.demo/cloudmetrics", Status: domain.MeetingScheduled,
				CreatedBy: "demo-buyer-1",
			}},
			CreatedAt: ago(30 * day),
		},
		{
			ID: "match-2", BuyerID: "demo-buyer-2", SellerID: "demo-seller-2", BusinessID: "seller-2",
			Status: domain.MatchActive, DealStage: domain.StageNegotiation, MatchScore: 88,
			MatchReasons: []string{"Industry alignment", "Location compatibility"},
			UnreadCount:  domain.UnreadCount{Buyer: 1, Seller: 0},
			NextSteps:    []string{"Finalize LOI terms"},
			CreatedAt:    ago(45 * day),
		},
		{
			ID: "match-3", BuyerID: "demo-buyer-3", SellerID: "demo-seller-3", BusinessID: "seller-3",
			Status: domain.MatchActive, DealStage: domain.StageInitialContact, MatchScore: 79,
			MatchReasons: []string{"Industry alignment", "Location compatibility", "Investment range fit"},
			UnreadCount:  domain.UnreadCount{Buyer: 0, Seller: 1},
			CreatedAt:    ago(2 * day),
		},
	}
	for i := range matches {
		last := latest(messages, matches[i].ID)
		matches[i].LastActivity = matches[i].CreatedAt
		if last != nil {
			matches[i].LastMessage = last.Summary()
			matches[i].LastActivity = last.Timestamp
		}
	}

	notifications := []domain.Notification{
		{ID: "notif-1", UserID: "demo-seller-1", Type: domain.NotifyMessage, Priority: domain.PriorityMedium, Title: "New message", Content: messages[2].Content, MatchID: "match-1", MessageID: "msg-3", CreatedAt: messages[2].Timestamp},
		{ID: "notif-2", UserID: "demo-buyer-2", Type: domain.NotifyDealUpdate, Priority: domain.PriorityHigh, Title: "LOI under review", Content: "Garcia Family HVAC is reviewing your letter of intent.", MatchID: "match-2", CreatedAt: ago(5 * time.Hour)},
		{ID: "notif-3", UserID: "demo-buyer-3", Type: domain.NotifyMatch, Priority: domain.PriorityMedium, Title: "New match", Content: "You matched with Lakeside Physical Therapy.", MatchID: "match-3", CreatedAt: ago(2 * day)},
		{ID: "notif-4", UserID: "demo-buyer-1", Type: domain.NotifyMeeting, Priority: domain.PriorityMedium, Title: "Meeting scheduled", Content: "Management call with CloudMetrics Analytics.", MatchID: "match-1", CreatedAt: ago(day)},
	}

	dealOne := domain.AcquisitionDeal{
		ID: "deal-1", BuyerID: "demo-buyer-1", SellerID: "demo-seller-1", MatchID: "match-1",
		Title: "Acquisition of CloudMetrics Analytics", BusinessName: "CloudMetrics Analytics",
		Status: domain.DealActive, DealValue: 1_500_000,
		Stages:    deal.DefaultStages(ago(20 * day)),
		CreatedAt: ago(20 * day), UpdatedAt: ago(day),
	}
	completeFirst(&dealOne.Stages[0], ago(10*day), 3)
	completeFirst(&dealOne.Stages[1], ago(day), 1)
	dealOne.Stages[1].Status = domain.StageInProgress
	dealOne.Recompute()

	return app.Dataset{
		Buyers:        buyers,
		Sellers:       sellers,
		Matches:       matches,
		Messages:      messages,
		Notifications: notifications,
		Deals:         []domain.AcquisitionDeal{dealOne},
		SavedAt:       now,
	}
}

func message(id, matchID, from, to, content string, at time.Time) domain.Message {
	return domain.Message{ID: id, MatchID: matchID, SenderID: from, ReceiverID: to, Content: content, Type: domain.MessageText, Timestamp: at}
}

func latest(messages []domain.Message, matchID string) *domain.Message {
	var out *domain.Message
	for i := range messages {
		if messages[i].MatchID == matchID && (out == nil || messages[i].Timestamp.After(out.Timestamp)) {
			out = &messages[i]
		}
	}
	return out
}

func completeFirst(stage *domain.DealStageProgress, at time.Time, n int) {
	for i := 0; i < n && i < len(stage.Checklist); i++ {
		stage.Checklist[i].Completed = true
		stage.Checklist[i].CompletedAt = &at
	}
	if n >= len(stage.Checklist) {
		stage.Status = domain.StageDone
		stage.CompletedAt = &at
	}
	stage.Recompute()
}
