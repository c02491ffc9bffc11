// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package models

import "time"

// GameFinancialSnapshot is the denormalized financial picture of one game.
// Nullable metrics are pointers; a nil value means the metric could not be computed.
type GameFinancialSnapshot struct {
	GameID   string `json:"gameId"`
	EntityID string `json:"entityId"`
	VenueID  string `json:"venueId,omitempty"`

	TotalBuyInsCollected         float64 `json:"totalBuyInsCollected"`
	RakeRevenue                  float64 `json:"rakeRevenue"`
	VenueFeeRevenue              float64 `json:"venueFeeRevenue"`
	TotalRevenue                 float64 `json:"totalRevenue"`
	PrizepoolPlayerContributions float64 `json:"prizepoolPlayerContributions"`
	PrizepoolAddedValue          float64 `json:"prizepoolAddedValue"`
	GuaranteeOverlayCost         float64 `json:"guaranteeOverlayCost"`
	GuaranteeMet                 *bool   `json:"guaranteeMet"`
	TotalCost                    float64 `json:"totalCost"`
	NetProfit                    float64 `json:"netProfit"`

	ProfitMargin              *float64 `json:"profitMargin"`
	RevenuePerPlayer          *float64 `json:"revenuePerPlayer"`
	CostPerPlayer             *float64 `json:"costPerPlayer"`
	ProfitPerPlayer           *float64 `json:"profitPerPlayer"`
	GuaranteeOverlayPerPlayer *float64 `json:"guaranteeOverlayPerPlayer"`
	RakePerEntry              *float64 `json:"rakePerEntry"`

	Warnings   []string  `json:"warnings,omitempty"`
	ComputedAt time.Time `json:"computedAt"`

	Version       int64     `json:"_version"`
	LastChangedAt time.Time `json:"_lastChangedAt"`
}

// GameCost is the cost breakdown of one game.
type GameCost struct {
	GameID   string `json:"gameId"`
	EntityID string `json:"entityId"`
	VenueID  string `json:"venueId,omitempty"`

	DealerRatePerEntry        float64 `json:"dealerRatePerEntry"`
	TotalDealerCost           float64 `json:"totalDealerCost"`
	TournamentDirectorCost    float64 `json:"tournamentDirectorCost"`
	FloorCost                 float64 `json:"floorCost"`
	SecurityCost              float64 `json:"securityCost"`
	TotalStaffCost            float64 `json:"totalStaffCost"`
	TotalPrizeContribution    float64 `json:"totalPrizeContribution"`
	TotalJackpotContribution  float64 `json:"totalJackpotContribution"`
	TotalBountyCost           float64 `json:"totalBountyCost"`
	VenueRentalCost           float64 `json:"venueRentalCost"`
	EquipmentRentalCost       float64 `json:"equipmentRentalCost"`
	FoodBeverageCost          float64 `json:"foodBeverageCost"`
	MarketingCost             float64 `json:"marketingCost"`
	StreamingCost             float64 `json:"streamingCost"`
	InsuranceCost             float64 `json:"insuranceCost"`
	LicensingCost             float64 `json:"licensingCost"`
	StaffTravelCost           float64 `json:"staffTravelCost"`
	PlayerAccommodationCost   float64 `json:"playerAccommodationCost"`
	PromotionCost             float64 `json:"promotionCost"`
	OtherCost                 float64 `json:"otherCost"`
	GuaranteeOverlayCost      float64 `json:"guaranteeOverlayCost"`
	TotalCost                 float64 `json:"totalCost"`

	Version       int64     `json:"_version"`
	LastChangedAt time.Time `json:"_lastChangedAt"`
}
