// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

// Package recurring matches games to recurring-game templates, creates
// templates for new schedules and maintains their scheduled instances.
//
// Matching is lock-free and read-only. Resolve returns a Resolution carrying
// any template to create; Commit performs the writes: template creation under
// a per-schedule lock, rolling statistics, instance confirmation and the
// unlink from a previous template.
package recurring

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/kingsroom/internal/database"
	"github.com/tomtom215/kingsroom/internal/logging"
	"github.com/tomtom215/kingsroom/internal/metrics"
	"github.com/tomtom215/kingsroom/internal/models"
	"github.com/tomtom215/kingsroom/internal/normalize"
	"github.com/tomtom215/kingsroom/internal/rollingstats"
	"github.com/tomtom215/kingsroom/internal/series"
	"github.com/tomtom215/kingsroom/internal/similarity"
)

// Status is the outcome of recurring resolution.
type Status string

const (
	StatusMatchedExisting Status = "MATCHED_EXISTING"
	StatusCreatedNew      Status = "CREATED_NEW"
	StatusNotRecurring    Status = "NOT_RECURRING"
	StatusNoMatch         Status = "NO_MATCH"
	StatusSkipped         Status = "SKIPPED"
	StatusFailed          Status = "FAILED"
)

// Match reasons.
const (
	ReasonExactMatch  = "exact_match"
	ReasonStrongMatch = "strong_match"
	ReasonFuzzyMatch  = "fuzzy_match"
	ReasonGrowthTrend = similarity.ReasonGrowthTrend
	ReasonCreated     = "created_from_game"
)

// Score weights.
const (
	nameWeight      = 0.5
	buyInWeight     = 0.3
	guaranteeWeight = 0.2
	strongScore     = 0.9
	scoreEpsilon    = 1e-9
)

// maxGenerations bounds the id probe for a new template.
const maxGenerations = 16

var (
	templateNamespace = uuid.MustParse("3d9b7f2e-61a4-5e0c-b8d3-47c2f1a9e605")
	instanceNamespace = uuid.MustParse("a51e08c7-2f9d-5b36-8e14-90d6c3b7f212")
)

// Config holds the matching thresholds.
type Config struct {
	NameGate        float64
	AcceptThreshold float64
	ToleranceRatio  float64
	EvolutionWindow int
	// Location dates instances when no venue zone applies.
	Location *time.Location
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		NameGate:        0.6,
		AcceptThreshold: 0.75,
		ToleranceRatio:  similarity.DefaultToleranceRatio,
		EvolutionWindow: models.DefaultEvolutionWindow,
		Location:        time.UTC,
	}
}

// Options control resolution of one game.
type Options struct {
	AutoCreate bool
	Skip       bool
}

// Candidate is one scored template.
type Candidate struct {
	RecurringGameID string                   `json:"recurringGameId"`
	Name            string                   `json:"name"`
	NameScore       float64                  `json:"nameScore"`
	BuyIn           similarity.Compatibility `json:"buyIn"`
	Guarantee       similarity.Compatibility `json:"guarantee"`
	Score           float64                  `json:"score"`
	Accepted        bool                     `json:"accepted"`

	template *models.RecurringGame
}

// Resolution is the recurring decision for one game.
type Resolution struct {
	Status          Status  `json:"status"`
	RecurringGameID string  `json:"recurringGameId,omitempty"`
	Confidence      float64 `json:"confidence"`
	MatchReason     string  `json:"matchReason,omitempty"`
	Diagnostic      string  `json:"diagnostic,omitempty"`

	NormalizedName string `json:"normalizedName,omitempty"`
	DayOfWeek      string `json:"dayOfWeek,omitempty"`
	ExpectedDate   string `json:"expectedDate,omitempty"`
	WeekKey        string `json:"weekKey,omitempty"`

	InstanceID            string `json:"instanceId,omitempty"`
	InstanceNumber        int    `json:"instanceNumber,omitempty"`
	WasScheduledInstance  bool   `json:"wasScheduledInstance"`
	IsReplacementInstance bool   `json:"isReplacementInstance"`
	ReplacementReason     string `json:"replacementReason,omitempty"`
	DeviationNotes        string `json:"deviationNotes,omitempty"`

	Candidates []Candidate `json:"candidates,omitempty"`

	// Template is the matched or pending template as read.
	Template *models.RecurringGame `json:"-"`
	// Pending is a template to create at commit.
	Pending *models.RecurringGame `json:"-"`
}

// Linked reports whether res assigns the game to a template.
func (res *Resolution) Linked() bool {
	return res.Status == StatusMatchedExisting || res.Status == StatusCreatedNew
}

// Resolver matches games to templates.
type Resolver struct {
	db    *database.DB
	cfg   Config
	locks *KeyedMutex
	now   func() time.Time
}

// NewResolver returns a Resolver. Zero thresholds in cfg take their defaults.
func NewResolver(db *database.DB, cfg Config, now func() time.Time) *Resolver {
	def := DefaultConfig()
	if cfg.NameGate <= 0 {
		cfg.NameGate = def.NameGate
	}
	if cfg.AcceptThreshold <= 0 {
		cfg.AcceptThreshold = def.AcceptThreshold
	}
	if cfg.ToleranceRatio <= 1 {
		cfg.ToleranceRatio = def.ToleranceRatio
	}
	if cfg.EvolutionWindow <= 0 {
		cfg.EvolutionWindow = def.EvolutionWindow
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	if now == nil {
		now = time.Now
	}
	return &Resolver{db: db, cfg: cfg, locks: NewKeyedMutex(), now: now}
}

// Config returns the effective configuration.
func (r *Resolver) Config() Config {
	return r.cfg
}

// TemplateID derives a template id. generation 0 is the first template of a
// schedule; later generations exist when an earlier one was retired or has
// drifted away from the games it used to match.
func TemplateID(entityID, venueID, day, normalizedName, bucket string, generation int) string {
	parts := []string{"template", entityID, venueID, day, normalizedName, bucket}
	if generation > 0 {
		parts = append(parts, strconv.Itoa(generation))
	}
	return uuid.NewSHA1(templateNamespace, []byte(strings.Join(parts, "|"))).String()
}

// InstanceID derives the id of a template's instance on a calendar date.
func InstanceID(templateID, expectedDate string) string {
	return uuid.NewSHA1(instanceNamespace, []byte(templateID+"|"+expectedDate)).String()
}

func lockKey(entityID, venueID, day, normalizedName string) string {
	return strings.Join([]string{entityID, venueID, day, normalizedName}, "|")
}

// Resolve decides the template of g. prior is the stored version of the game
// or nil; loc is the venue zone that dates the game.
func (r *Resolver) Resolve(ctx context.Context, g, prior *models.Game, loc *time.Location, opts Options) Resolution {
	res := r.resolve(ctx, g, prior, loc, opts)
	metrics.RecordResolverOutcome("recurring", string(res.Status))
	logging.Ctx(ctx).Debug().
		Str("game_id", g.ID).
		Str("entity_id", g.EntityID).
		Str("recurring_game_id", res.RecurringGameID).
		Str("status", string(res.Status)).
		Str("reason", res.MatchReason).
		Float64("confidence", res.Confidence).
		Int("candidates", len(res.Candidates)).
		Msg("Recurring template resolved")
	return res
}

func (r *Resolver) resolve(ctx context.Context, g, prior *models.Game, loc *time.Location, opts Options) Resolution {
	if opts.Skip {
		return Resolution{Status: StatusSkipped}
	}
	if g.GameStartDateTime.IsZero() {
		return Resolution{Status: StatusFailed, Diagnostic: "game has no start time"}
	}
	if loc == nil {
		loc = r.cfg.Location
	}

	res := Resolution{
		NormalizedName: normalize.Name(g.Name),
		DayOfWeek:      models.DayName(g.GameStartDateTime, loc),
		ExpectedDate:   models.LocalDate(g.GameStartDateTime, loc),
		WeekKey:        models.WeekKey(g.GameStartDateTime, loc),
	}

	switch {
	case g.IsSeries || g.HasSeriesFields():
		res.Status = StatusNotRecurring
		res.Diagnostic = "series event"
		return res
	case series.IsMultiDay(g):
		res.Status = StatusNotRecurring
		res.Diagnostic = "multi-day event"
		return res
	case IsOneOff(g.Name):
		res.Status = StatusNotRecurring
		res.Diagnostic = "one-off event name"
		return res
	case res.NormalizedName == "":
		res.Status = StatusFailed
		res.Diagnostic = "name is empty after normalization"
		return res
	}

	venueID := g.VenueID
	if models.IsSentinelVenue(venueID) {
		venueID = ""
	}

	var (
		templates []*models.RecurringGame
		err       error
	)
	if venueID != "" {
		templates, err = r.db.ListRecurringGamesByVenueDay(ctx, g.EntityID, venueID, res.DayOfWeek)
	} else {
		templates, err = r.db.ListRecurringGamesByEntityDay(ctx, g.EntityID, res.DayOfWeek)
	}
	if err != nil {
		res.Status = StatusFailed
		res.Diagnostic = err.Error()
		return res
	}

	res.Candidates = r.score(g, res.NormalizedName, templates)
	if best := r.pick(ctx, g, res.Candidates); best != nil {
		res.Status = StatusMatchedExisting
		res.RecurringGameID = best.RecurringGameID
		res.Confidence = round4(best.Score)
		res.MatchReason = matchReason(best)
		res.Template = best.template
		res.DeviationNotes = deviationNotes(g, best)
		if err := r.locateInstance(ctx, g, prior, &res); err != nil {
			res.Status = StatusFailed
			res.Diagnostic = err.Error()
		}
		return res
	}

	if !opts.AutoCreate {
		res.Status = StatusNoMatch
		res.Diagnostic = "no template scored above the acceptance threshold"
		return res
	}

	pending, err := r.newTemplate(ctx, g, venueID, res.DayOfWeek, res.NormalizedName)
	if err != nil {
		res.Status = StatusFailed
		res.Diagnostic = err.Error()
		return res
	}
	res.Status = StatusCreatedNew
	res.RecurringGameID = pending.ID
	res.Confidence = 1.0
	res.MatchReason = ReasonCreated
	res.Template = pending
	res.Pending = pending
	res.InstanceID = InstanceID(pending.ID, res.ExpectedDate)
	res.InstanceNumber = 1
	return res
}

// score rates every active template against g, best first.
func (r *Resolver) score(g *models.Game, normalizedName string, templates []*models.RecurringGame) []Candidate {
	out := make([]Candidate, 0, len(templates))
	for _, t := range templates {
		if !t.IsActive {
			continue
		}
		c := Candidate{
			RecurringGameID: t.ID,
			Name:            t.Name,
			NameScore:       round4(similarity.Similarity(normalizedName, templateName(t))),
			BuyIn:           similarity.BuyInCompatibility(g.BuyIn, rollingstats.EffectiveBuyIn(t), t.BuyInTrend, r.cfg.ToleranceRatio),
			Guarantee:       similarity.BuyInCompatibility(g.GuaranteeValue(), rollingstats.EffectiveGuarantee(t), t.GuaranteeTrend, r.cfg.ToleranceRatio),
			template:        t,
		}
		if c.NameScore >= r.cfg.NameGate {
			c.Score = nameWeight*c.NameScore + buyInWeight*c.BuyIn.Confidence + guaranteeWeight*c.Guarantee.Confidence
			c.Accepted = c.Score >= r.cfg.AcceptThreshold-scoreEpsilon && c.BuyIn.Compatible
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return better(&out[i], &out[j]) })
	return out
}

// better orders candidates by score, then name score, then the most recent
// last game, then the lower id.
func better(a, b *Candidate) bool {
	if math.Abs(a.Score-b.Score) > scoreEpsilon {
		return a.Score > b.Score
	}
	if math.Abs(a.NameScore-b.NameScore) > scoreEpsilon {
		return a.NameScore > b.NameScore
	}
	al, bl := lastGame(a.template), lastGame(b.template)
	if !al.Equal(bl) {
		return al.After(bl)
	}
	return a.RecurringGameID < b.RecurringGameID
}

func lastGame(t *models.RecurringGame) time.Time {
	if t == nil || t.LastGameDate == nil {
		return time.Time{}
	}
	return *t.LastGameDate
}

// pick returns the best accepted candidate. A tie that only the id breaks is
// logged as a possible duplicate template.
func (r *Resolver) pick(ctx context.Context, g *models.Game, candidates []Candidate) *Candidate {
	var best *Candidate
	for i := range candidates {
		c := &candidates[i]
		if !c.Accepted {
			continue
		}
		if best == nil {
			best = c
			continue
		}
		if math.Abs(best.Score-c.Score) <= scoreEpsilon &&
			math.Abs(best.NameScore-c.NameScore) <= scoreEpsilon &&
			lastGame(best.template).Equal(lastGame(c.template)) {
			metrics.RecordTemplateTie()
			logging.Ctx(ctx).Warn().
				Str("game_id", g.ID).
				Str("chosen_id", best.RecurringGameID).
				Str("other_id", c.RecurringGameID).
				Float64("score", best.Score).
				Msg("Templates tied on every criterion, possible duplicate")
		}
		break
	}
	return best
}

func templateName(t *models.RecurringGame) string {
	if t.NormalizedName != "" {
		return t.NormalizedName
	}
	return normalize.Name(t.Name)
}

func matchReason(c *Candidate) string {
	switch {
	case c.BuyIn.Reason == similarity.ReasonGrowthTrend:
		return ReasonGrowthTrend
	case c.NameScore >= 1 && c.BuyIn.Reason == similarity.ReasonExact:
		return ReasonExactMatch
	case c.Score >= strongScore:
		return ReasonStrongMatch
	}
	return ReasonFuzzyMatch
}

func deviationNotes(g *models.Game, c *Candidate) string {
	var notes []string
	switch c.BuyIn.Reason {
	case similarity.ReasonTolerated, similarity.ReasonGrowthTrend:
		notes = append(notes, fmt.Sprintf("buy-in %.0f vs expected %.0f (%s)",
			g.BuyIn, rollingstats.EffectiveBuyIn(c.template), c.BuyIn.Reason))
	}
	if !c.Guarantee.Compatible {
		notes = append(notes, fmt.Sprintf("guarantee %.0f vs expected %.0f",
			g.GuaranteeValue(), rollingstats.EffectiveGuarantee(c.template)))
	}
	return strings.Join(notes, "; ")
}

// locateInstance fills the instance fields of a matched resolution.
func (r *Resolver) locateInstance(ctx context.Context, g, prior *models.Game, res *Resolution) error {
	inst, err := r.db.FindInstanceByDate(ctx, res.RecurringGameID, res.ExpectedDate)
	if err != nil {
		return err
	}
	all, err := r.db.ListInstancesByTemplate(ctx, res.RecurringGameID)
	if err != nil {
		return err
	}
	confirmed := 0
	for _, i := range all {
		if i.Status == models.InstanceConfirmed && i.ExpectedDate < res.ExpectedDate {
			confirmed++
		}
	}
	res.InstanceNumber = confirmed + 1
	res.InstanceID = InstanceID(res.RecurringGameID, res.ExpectedDate)
	if inst == nil {
		return nil
	}
	res.InstanceID = inst.ID

	switch inst.Status {
	case models.InstanceExpected, models.InstanceMissed:
		res.WasScheduledInstance = true
	case models.InstanceCancelled:
		res.IsReplacementInstance = true
		res.ReplacementReason = "scheduled instance on " + inst.ExpectedDate + " was cancelled"
	case models.InstanceConfirmed:
		if inst.GameID == g.ID {
			res.WasScheduledInstance = prior != nil && prior.WasScheduledInstance
			return nil
		}
		res.InstanceID = ""
		note := "instance on " + inst.ExpectedDate + " already confirmed by game " + inst.GameID
		if res.DeviationNotes != "" {
			note = res.DeviationNotes + "; " + note
		}
		res.DeviationNotes = note
	}
	return nil
}

// newTemplate builds the template a game would create. The id is derived
// from the schedule so that concurrent creators converge; generations skip
// ids already taken by templates that did not match.
func (r *Resolver) newTemplate(ctx context.Context, g *models.Game, venueID, day, normalizedName string) (*models.RecurringGame, error) {
	bucket := models.BuyInBucket(g.BuyIn)
	var id string
	for gen := 0; gen < maxGenerations; gen++ {
		candidate := TemplateID(g.EntityID, venueID, day, normalizedName, bucket, gen)
		existing, err := r.db.FindRecurringGame(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			id = candidate
			break
		}
	}
	if id == "" {
		return nil, fmt.Errorf("no free template id for %q after %d generations", normalizedName, maxGenerations)
	}

	guarantee := g.GuaranteeValue()
	start := g.GameStartDateTime.UTC()
	t := &models.RecurringGame{
		ID:               id,
		EntityID:         g.EntityID,
		VenueID:          venueID,
		Name:             strings.TrimSpace(g.Name),
		NormalizedName:   normalizedName,
		GameVariant:      g.GameVariant,
		Frequency:        DetectFrequency(g.Name),
		DayOfWeek:        day,
		IsActive:         true,
		TypicalBuyIn:     g.BuyIn,
		TypicalGuarantee: guarantee,
		BuyInTrend:       models.TrendStable,
		GuaranteeTrend:   models.TrendStable,
		EntriesTrend:     models.TrendStable,
		EvolutionWindow:  r.cfg.EvolutionWindow,
		CreatedAt:        r.now().UTC(),
	}
	if t.GameVariant == "" {
		t.GameVariant = DetectVariant(g.Name)
	}
	if g.BuyIn > 0 {
		t.BaselineBuyIn = g.BuyIn
	}
	if guarantee > 0 {
		t.BaselineGuarantee = guarantee
	}
	if t.BaselineBuyIn > 0 || t.BaselineGuarantee > 0 {
		t.BaselineDate = &start
	}
	return t, nil
}

// Apply copies the recurring linkage of res onto g. Skipped and failed
// resolutions leave g as it was.
func Apply(g *models.Game, res Resolution) {
	switch res.Status {
	case StatusMatchedExisting, StatusCreatedNew:
		g.RecurringGameID = res.RecurringGameID
		g.RecurringGameInstanceID = res.InstanceID
		g.RecurringGameAssignmentStatus = models.AssignmentAssigned
		g.RecurringGameAssignmentConfidence = res.Confidence
		g.WasScheduledInstance = res.WasScheduledInstance
		g.InstanceNumber = res.InstanceNumber
		g.IsReplacementInstance = res.IsReplacementInstance
		g.ReplacementReason = res.ReplacementReason
		g.DeviationNotes = res.DeviationNotes
		if g.GameVariant == "" && res.Template != nil {
			g.GameVariant = res.Template.GameVariant
		}
	case StatusNotRecurring:
		clearLinkage(g)
		g.RecurringGameAssignmentStatus = models.AssignmentNotRecurring
	case StatusNoMatch:
		clearLinkage(g)
		g.RecurringGameAssignmentStatus = models.AssignmentPending
	}
}

func clearLinkage(g *models.Game) {
	g.RecurringGameID = ""
	g.RecurringGameInstanceID = ""
	g.RecurringGameAssignmentConfidence = 0
	g.WasScheduledInstance = false
	g.InstanceNumber = 0
	g.IsReplacementInstance = false
	g.ReplacementReason = ""
	g.DeviationNotes = ""
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
