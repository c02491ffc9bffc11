// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

// Package financials computes the revenue, cost and profit picture of a game.
//
// Calculate is pure: the same game, costs, rate and timestamp always produce
// the same snapshot. Money is rounded to whole units, per-player metrics to
// two decimals and the profit margin to four.
package financials

import (
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/kingsroom/internal/models"
)

// DefaultDealerRatePerEntry is the dealer cost per entry when neither the
// venue nor configuration overrides it.
const DefaultDealerRatePerEntry = 15.0

// Costs are the optional per-venue cost parameters for one game.
type Costs struct {
	DealerRatePerEntry      *float64 `json:"dealerRatePerEntry,omitempty" validate:"omitempty,gte=0"`
	TournamentDirectorCost  float64  `json:"tournamentDirectorCost" validate:"gte=0"`
	FloorCost               float64  `json:"floorCost" validate:"gte=0"`
	SecurityCost            float64  `json:"securityCost" validate:"gte=0"`
	JackpotContribution     float64  `json:"jackpotContribution" validate:"gte=0"`
	BountyCost              float64  `json:"bountyCost" validate:"gte=0"`
	VenueRentalCost         float64  `json:"venueRentalCost" validate:"gte=0"`
	EquipmentRentalCost     float64  `json:"equipmentRentalCost" validate:"gte=0"`
	FoodBeverageCost        float64  `json:"foodBeverageCost" validate:"gte=0"`
	MarketingCost           float64  `json:"marketingCost" validate:"gte=0"`
	StreamingCost           float64  `json:"streamingCost" validate:"gte=0"`
	InsuranceCost           float64  `json:"insuranceCost" validate:"gte=0"`
	LicensingCost           float64  `json:"licensingCost" validate:"gte=0"`
	StaffTravelCost         float64  `json:"staffTravelCost" validate:"gte=0"`
	PlayerAccommodationCost float64  `json:"playerAccommodationCost" validate:"gte=0"`
	PromotionCost           float64  `json:"promotionCost" validate:"gte=0"`
	OtherCost               float64  `json:"otherCost" validate:"gte=0"`
}

// Result is the computed snapshot and cost breakdown.
type Result struct {
	Snapshot *models.GameFinancialSnapshot `json:"snapshot"`
	Cost     *models.GameCost              `json:"cost"`
}

// Calculator holds the deployment default dealer rate.
type Calculator struct {
	DealerRatePerEntry float64
}

// NewCalculator returns a Calculator, falling back to DefaultDealerRatePerEntry
// when rate is not positive.
func NewCalculator(rate float64) *Calculator {
	if rate <= 0 {
		rate = DefaultDealerRatePerEntry
	}
	return &Calculator{DealerRatePerEntry: rate}
}

// Calculate computes the financials of g. costs may be nil.
func (c *Calculator) Calculate(g *models.Game, costs *Costs, now time.Time) Result {
	if costs == nil {
		costs = &Costs{}
	}
	rate := c.DealerRatePerEntry
	if costs.DealerRatePerEntry != nil {
		rate = *costs.DealerRatePerEntry
	}

	w := &warnings{}
	entries := float64(g.TotalEntries)

	venueFee := 0.0
	if g.VenueFee != nil {
		venueFee = *g.VenueFee
	}

	totalBuyIns := entries * g.BuyIn
	rakeRevenue := entries * g.Rake
	venueFeeRevenue := entries * venueFee

	perEntryContribution := g.BuyIn - g.Rake - venueFee
	if perEntryContribution < 0 {
		w.add("prizepoolPlayerContributions", "rake and venue fee exceed the buy-in; contributions clamped to zero")
		perEntryContribution = 0
	}
	contributions := entries * perEntryContribution

	var overlay float64
	var guaranteeMet *bool
	if g.HasGuarantee {
		overlay = math.Max(0, g.GuaranteeAmount-contributions)
		met := contributions >= g.GuaranteeAmount
		guaranteeMet = &met
		if g.GuaranteeAmount == 0 {
			w.add("guaranteeOverlayCost", "hasGuarantee is set without a guarantee amount")
		}
	}

	// The overlay is paid out of the host's pocket, so only what was paid
	// beyond contributions and overlay counts as promotional added value.
	addedValue := math.Max(0, g.PrizepoolPaid-contributions-overlay)

	dealerCost := entries * rate
	staffCost := dealerCost + costs.TournamentDirectorCost + costs.FloorCost + costs.SecurityCost

	totalCost := staffCost +
		addedValue +
		costs.JackpotContribution +
		costs.BountyCost +
		costs.VenueRentalCost +
		costs.EquipmentRentalCost +
		costs.FoodBeverageCost +
		costs.MarketingCost +
		costs.StreamingCost +
		costs.InsuranceCost +
		costs.LicensingCost +
		costs.StaffTravelCost +
		costs.PlayerAccommodationCost +
		costs.PromotionCost +
		costs.OtherCost +
		overlay

	totalRevenue := rakeRevenue + venueFeeRevenue

	snap := &models.GameFinancialSnapshot{
		GameID:                       g.ID,
		EntityID:                     g.EntityID,
		VenueID:                      g.VenueID,
		TotalBuyInsCollected:         w.money("totalBuyInsCollected", totalBuyIns),
		RakeRevenue:                  w.money("rakeRevenue", rakeRevenue),
		VenueFeeRevenue:              w.money("venueFeeRevenue", venueFeeRevenue),
		TotalRevenue:                 w.money("totalRevenue", totalRevenue),
		PrizepoolPlayerContributions: w.money("prizepoolPlayerContributions", contributions),
		PrizepoolAddedValue:          w.money("prizepoolAddedValue", addedValue),
		GuaranteeOverlayCost:         w.money("guaranteeOverlayCost", overlay),
		GuaranteeMet:                 guaranteeMet,
		ComputedAt:                   now.UTC(),
	}
	snap.TotalCost = w.money("totalCost", totalCost)
	snap.NetProfit = snap.TotalRevenue - snap.TotalCost

	if snap.TotalRevenue > 0 {
		snap.ProfitMargin = w.ratio("profitMargin", snap.NetProfit/snap.TotalRevenue, 4)
	} else {
		w.add("profitMargin", "no revenue")
	}

	players := g.TotalUniquePlayers
	if players == 0 {
		players = g.TotalEntries
	}
	if players > 0 {
		n := float64(players)
		snap.RevenuePerPlayer = w.ratio("revenuePerPlayer", snap.TotalRevenue/n, 2)
		snap.CostPerPlayer = w.ratio("costPerPlayer", snap.TotalCost/n, 2)
		snap.ProfitPerPlayer = w.ratio("profitPerPlayer", snap.NetProfit/n, 2)
		snap.GuaranteeOverlayPerPlayer = w.ratio("guaranteeOverlayPerPlayer", snap.GuaranteeOverlayCost/n, 2)
	} else {
		w.add("perPlayer", "no players or entries recorded")
	}
	if g.TotalEntries > 0 {
		snap.RakePerEntry = w.ratio("rakePerEntry", snap.RakeRevenue/entries, 2)
	} else {
		w.add("rakePerEntry", "no entries recorded")
	}
	snap.Warnings = w.list

	cost := &models.GameCost{
		GameID:                   g.ID,
		EntityID:                 g.EntityID,
		VenueID:                  g.VenueID,
		DealerRatePerEntry:       rate,
		TotalDealerCost:          roundMoney(dealerCost),
		TournamentDirectorCost:   roundMoney(costs.TournamentDirectorCost),
		FloorCost:                roundMoney(costs.FloorCost),
		SecurityCost:             roundMoney(costs.SecurityCost),
		TotalStaffCost:           roundMoney(staffCost),
		TotalPrizeContribution:   snap.PrizepoolAddedValue,
		TotalJackpotContribution: roundMoney(costs.JackpotContribution),
		TotalBountyCost:          roundMoney(costs.BountyCost),
		VenueRentalCost:          roundMoney(costs.VenueRentalCost),
		EquipmentRentalCost:      roundMoney(costs.EquipmentRentalCost),
		FoodBeverageCost:         roundMoney(costs.FoodBeverageCost),
		MarketingCost:            roundMoney(costs.MarketingCost),
		StreamingCost:            roundMoney(costs.StreamingCost),
		InsuranceCost:            roundMoney(costs.InsuranceCost),
		LicensingCost:            roundMoney(costs.LicensingCost),
		StaffTravelCost:          roundMoney(costs.StaffTravelCost),
		PlayerAccommodationCost:  roundMoney(costs.PlayerAccommodationCost),
		PromotionCost:            roundMoney(costs.PromotionCost),
		OtherCost:                roundMoney(costs.OtherCost),
		GuaranteeOverlayCost:     snap.GuaranteeOverlayCost,
		TotalCost:                snap.TotalCost,
	}

	return Result{Snapshot: snap, Cost: cost}
}

// SumCost adds up every cost component of c, overlay included.
func SumCost(c *models.GameCost) float64 {
	return c.TotalStaffCost +
		c.TotalPrizeContribution +
		c.TotalJackpotContribution +
		c.TotalBountyCost +
		c.VenueRentalCost +
		c.EquipmentRentalCost +
		c.FoodBeverageCost +
		c.MarketingCost +
		c.StreamingCost +
		c.InsuranceCost +
		c.LicensingCost +
		c.StaffTravelCost +
		c.PlayerAccommodationCost +
		c.PromotionCost +
		c.OtherCost +
		c.GuaranteeOverlayCost
}

// RepairSnapshot rewrites the totals of a stored snapshot and cost record
// from the cost components. Legacy records summed the total without the
// guarantee overlay. It reports whether anything changed.
func RepairSnapshot(snap *models.GameFinancialSnapshot, cost *models.GameCost) bool {
	if snap == nil || cost == nil {
		return false
	}
	total := roundMoney(SumCost(cost))
	net := snap.TotalRevenue - total
	if total == cost.TotalCost && total == snap.TotalCost && net == snap.NetProfit {
		return false
	}

	cost.TotalCost = total
	snap.TotalCost = total
	snap.NetProfit = net
	snap.GuaranteeOverlayCost = cost.GuaranteeOverlayCost
	if snap.TotalRevenue > 0 {
		m := roundTo(net/snap.TotalRevenue, 4)
		snap.ProfitMargin = &m
	} else {
		snap.ProfitMargin = nil
	}
	return true
}

type warnings struct {
	list []string
}

func (w *warnings) add(metric, msg string) {
	w.list = append(w.list, fmt.Sprintf("%s: %s", metric, msg))
}

// money rounds v to whole units, zeroing and warning on non-finite values.
func (w *warnings) money(metric string, v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		w.add(metric, "not a finite number")
		return 0
	}
	return roundMoney(v)
}

// ratio rounds v to places decimals, returning nil and warning on non-finite values.
func (w *warnings) ratio(metric string, v float64, places int) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		w.add(metric, "not a finite number")
		return nil
	}
	r := roundTo(v, places)
	return &r
}

func roundMoney(v float64) float64 {
	return math.Round(v)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
