package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ptpal/internal/cache"
	"ptpal/internal/insight"
	"ptpal/internal/model"
	"ptpal/internal/notify"
	"ptpal/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrMemberNotFound  = errors.New("member not found")
	ErrTrainerMismatch = errors.New("member does not belong to trainer")
)

const (
	// dedupWindow suppresses a repeat insight of the same (member, type)
	// key inside this trailing period.
	dedupWindow = 24 * time.Hour

	// eventHorizon is how far back raw events are fetched per evaluation.
	eventHorizon = 56 * 24 * time.Hour

	// churnExpiry is how long a churn-risk insight stays in the feed.
	churnExpiry = 7 * 24 * time.Hour
)

// InsightService runs the risk engine over fetched records and owns every
// side effect: insight persistence and notification fan-out. The engine
// itself (internal/insight) stays pure.
type InsightService struct {
	members  repository.MemberRepo
	trainers repository.TrainerRepo
	events   repository.EventRepo
	insights repository.InsightRepo
	cooldown cache.CooldownCache
	notifier notify.Dispatcher
	logger   zerolog.Logger
}

// NewInsightService creates a new insight service
func NewInsightService(
	members repository.MemberRepo,
	trainers repository.TrainerRepo,
	events repository.EventRepo,
	insights repository.InsightRepo,
	cooldown cache.CooldownCache,
	notifier notify.Dispatcher,
	logger zerolog.Logger,
) *InsightService {
	return &InsightService{
		members:  members,
		trainers: trainers,
		events:   events,
		insights: insights,
		cooldown: cooldown,
		notifier: notifier,
		logger:   logger.With().Str("component", "insight").Logger(),
	}
}

// EmitResult reports what EvaluateAndEmit did for one member.
type EmitResult struct {
	Emitted   bool         `json:"emitted"`
	InsightID string       `json:"insightId,omitempty"`
	Tier      insight.Tier `json:"riskTier,omitempty"`
}

// SweepStats summarizes one trainer sweep.
type SweepStats struct {
	TotalMembers      int `json:"totalMembers"`
	TotalGenerated    int `json:"totalGenerated"`
	NewSaved          int `json:"newSaved"`
	SkippedDuplicates int `json:"skippedDuplicates"`
}

// EvaluateMember runs the churn-risk pipeline for one member without side
// effects. Returns (nil, nil) when the result is suppressed, either by the
// LOW tier floor or by the deduplication window.
func (s *InsightService) EvaluateMember(ctx context.Context, memberID string, now time.Time) (*insight.RiskResult, error) {
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("load member: %w", err)
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}

	events, err := s.fetchEvents(ctx, member.TrainerID, []string{memberID}, now)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	result := insight.EvaluateChurnRisk(*member, events, now)
	if result.Suppressed() {
		return nil, nil
	}
	if s.isDuplicate(ctx, member.TrainerID, memberID, model.InsightChurnRisk, now) {
		return nil, nil
	}
	return &result, nil
}

// EvaluateAndEmit runs the full pipeline including persistence and, for
// CRITICAL/HIGH tiers, a notification. Persistence or notification failure
// is reported in the returned error but never aborts an enclosing sweep:
// callers log it and move on to the next member.
func (s *InsightService) EvaluateAndEmit(ctx context.Context, memberID, trainerID string, now time.Time) (EmitResult, error) {
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return EmitResult{}, fmt.Errorf("load member: %w", err)
	}
	if member == nil {
		return EmitResult{}, ErrMemberNotFound
	}
	if member.TrainerID != trainerID {
		return EmitResult{}, ErrTrainerMismatch
	}

	events, err := s.fetchEvents(ctx, trainerID, []string{memberID}, now)
	if err != nil {
		return EmitResult{}, fmt.Errorf("load events: %w", err)
	}

	result := insight.EvaluateChurnRisk(*member, events, now)
	if result.Suppressed() {
		return EmitResult{Emitted: false, Tier: result.Tier}, nil
	}
	if s.isDuplicate(ctx, trainerID, memberID, model.InsightChurnRisk, now) {
		return EmitResult{Emitted: false, Tier: result.Tier}, nil
	}

	ins := buildChurnInsight(*member, result, now)
	ins.ID = newInsightID()
	if err := s.insights.Save(ctx, ins); err != nil {
		return EmitResult{Emitted: false, Tier: result.Tier}, fmt.Errorf("persist insight: %w", err)
	}
	s.notifyIfHigh(ctx, ins)

	return EmitResult{Emitted: true, InsightID: ins.ID, Tier: result.Tier}, nil
}

// GenerateForTrainer sweeps every active member of one trainer, running
// the churn engine plus the auxiliary analyzers, deduplicating against the
// 24-hour history and persisting each survivor independently. One member's
// failure never aborts the rest.
func (s *InsightService) GenerateForTrainer(ctx context.Context, trainerID string, now time.Time, extended bool) (SweepStats, error) {
	start := time.Now()

	members, err := s.members.ListActiveByTrainer(ctx, trainerID)
	if err != nil {
		return SweepStats{}, fmt.Errorf("list members: %w", err)
	}
	stats := SweepStats{TotalMembers: len(members)}
	if len(members) == 0 {
		return stats, nil
	}

	memberIDs := make([]string, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.ID)
	}
	all, err := s.fetchEvents(ctx, trainerID, memberIDs, now)
	if err != nil {
		return stats, fmt.Errorf("load events: %w", err)
	}

	// Dedup key set for the whole sweep. A failed lookup fails open:
	// a possible duplicate beats a lost alert.
	seen, err := s.insights.KeysSince(ctx, trainerID, now.Add(-dedupWindow))
	if err != nil {
		s.logger.Warn().Err(err).Str("trainer", trainerID).Msg("dedup lookup failed, assuming no duplicates")
		seen = make(map[string]bool)
	}

	var candidates []*model.Insight
	for _, m := range members {
		events := filterEvents(all, m.ID)

		result := insight.EvaluateChurnRisk(m, events, now)
		if !result.Suppressed() {
			candidates = append(candidates, buildChurnInsight(m, result, now))
		}
		if ins := insight.AnalyzePTExpiry(m, now); ins != nil {
			candidates = append(candidates, ins)
		}
		if ins := insight.AnalyzePlateau(m, events, now); ins != nil {
			candidates = append(candidates, ins)
		}
		if ins := insight.AnalyzeRenewalLikelihood(m, events, now); ins != nil {
			candidates = append(candidates, ins)
		}
	}
	if extended {
		if ins := insight.AnalyzeNoshowPattern(trainerID, all.Sessions, now); ins != nil {
			candidates = append(candidates, ins)
		}
	}
	stats.TotalGenerated = len(candidates)

	for _, ins := range candidates {
		key := ins.DedupKey()
		if seen[key] {
			stats.SkippedDuplicates++
			continue
		}
		ins.ID = newInsightID()
		if err := s.insights.Save(ctx, ins); err != nil {
			s.logger.Error().Err(err).Str("trainer", trainerID).Str("type", string(ins.Type)).
				Str("member", ins.MemberID).Msg("insight persist failed")
			continue
		}
		seen[key] = true
		stats.NewSaved++
		s.notifyIfHigh(ctx, ins)
	}

	if err := s.cooldown.Mark(ctx, trainerID); err != nil {
		s.logger.Warn().Err(err).Str("trainer", trainerID).Msg("cooldown mark failed")
	}

	s.logger.Info().
		Str("trainer", trainerID).
		Int("members", stats.TotalMembers).
		Int("generated", stats.TotalGenerated).
		Int("saved", stats.NewSaved).
		Int("duplicates", stats.SkippedDuplicates).
		Dur("duration", time.Since(start)).
		Msg("trainer sweep done")
	return stats, nil
}

// OnBodyRecordCreated persists a new body record and re-evaluates the
// affected member, unless the trainer's cooldown is still running.
func (s *InsightService) OnBodyRecordCreated(ctx context.Context, record *model.BodyRecord, now time.Time) error {
	if err := s.events.InsertBodyRecord(ctx, record); err != nil {
		return fmt.Errorf("insert body record: %w", err)
	}

	member, err := s.members.GetByID(ctx, record.MemberID)
	if err != nil {
		return fmt.Errorf("load member: %w", err)
	}
	if member == nil {
		return ErrMemberNotFound
	}

	active, err := s.cooldown.Active(ctx, member.TrainerID)
	if err != nil {
		// Cache trouble never blocks an evaluation.
		s.logger.Warn().Err(err).Str("trainer", member.TrainerID).Msg("cooldown check failed, proceeding")
		active = false
	}
	if active {
		s.logger.Debug().Str("trainer", member.TrainerID).Str("member", member.ID).Msg("cooldown active, skipping re-evaluation")
		return nil
	}

	if _, err := s.EvaluateAndEmit(ctx, member.ID, member.TrainerID, now); err != nil {
		s.logger.Error().Err(err).Str("member", member.ID).Msg("reactive evaluation failed")
	}
	if err := s.cooldown.Mark(ctx, member.TrainerID); err != nil {
		s.logger.Warn().Err(err).Str("trainer", member.TrainerID).Msg("cooldown mark failed")
	}
	return nil
}

// ListForTrainer returns the trainer's unexpired insights in feed order.
func (s *InsightService) ListForTrainer(ctx context.Context, trainerID string, now time.Time) ([]model.Insight, error) {
	insights, err := s.insights.ListUnexpired(ctx, trainerID, now)
	if err != nil {
		return nil, err
	}
	insight.SortForFeed(insights)
	return insights, nil
}

// MarkRead flags an insight as read.
func (s *InsightService) MarkRead(ctx context.Context, id string) error {
	return s.insights.MarkRead(ctx, id)
}

// MarkActionTaken flags an insight as acted on.
func (s *InsightService) MarkActionTaken(ctx context.Context, id string) error {
	return s.insights.MarkActionTaken(ctx, id)
}

func (s *InsightService) fetchEvents(ctx context.Context, trainerID string, memberIDs []string, now time.Time) (insight.EventSet, error) {
	since := now.Add(-eventHorizon)

	sessions, err := s.events.SessionsSince(ctx, trainerID, memberIDs, since)
	if err != nil {
		return insight.EventSet{}, err
	}
	bodyRecords, err := s.events.BodyRecordsSince(ctx, memberIDs, since)
	if err != nil {
		return insight.EventSet{}, err
	}
	messages, err := s.events.MessagesSince(ctx, trainerID, memberIDs, since)
	if err != nil {
		return insight.EventSet{}, err
	}

	return insight.EventSet{
		Sessions:    sessions,
		BodyRecords: bodyRecords,
		Messages:    messages,
	}, nil
}

// isDuplicate consults the insight history; lookup failure fails open.
func (s *InsightService) isDuplicate(ctx context.Context, trainerID, memberID string, t model.InsightType, now time.Time) bool {
	exists, err := s.insights.ExistsSince(ctx, trainerID, memberID, t, now.Add(-dedupWindow))
	if err != nil {
		s.logger.Warn().Err(err).Str("trainer", trainerID).Str("member", memberID).
			Msg("dedup lookup failed, assuming not duplicate")
		return false
	}
	return exists
}

func (s *InsightService) notifyIfHigh(ctx context.Context, ins *model.Insight) {
	if ins.Priority != model.PriorityHigh {
		return
	}
	n := &notify.Notification{
		RecipientID: ins.TrainerID,
		Title:       notificationTitle(ins.Type),
		Body:        fmt.Sprintf("[%s] %s", displayName(ins), ins.Title),
		Data: map[string]string{
			"type":        "insight",
			"insightId":   ins.ID,
			"insightType": string(ins.Type),
			"memberId":    ins.MemberID,
			"priority":    string(ins.Priority),
		},
	}
	if err := s.notifier.Dispatch(ctx, n); err != nil {
		// Best effort: the insight is already persisted.
		s.logger.Warn().Err(err).Str("insight", ins.ID).Msg("notification dispatch failed")
	}
}

func newInsightID() string {
	return "ins_" + uuid.New().String()
}

func buildChurnInsight(member model.Member, result insight.RiskResult, now time.Time) *model.Insight {
	priority := model.PriorityMedium
	if result.Tier == insight.TierCritical || result.Tier == insight.TierHigh {
		priority = model.PriorityHigh
	}

	return &model.Insight{
		TrainerID:  member.TrainerID,
		MemberID:   member.ID,
		MemberName: member.Name,
		Type:       model.InsightChurnRisk,
		Priority:   priority,
		Title:      fmt.Sprintf("%s: churn risk %d%%", member.Name, result.Composite),
		Message: fmt.Sprintf("%s is at %d%% churn risk (%s) - %s",
			member.Name, result.Composite, result.Tier, strings.Join(result.RiskFactors, ", ")),
		ActionSuggestion: "Reach out personally to keep the member motivated.",
		Data: map[string]interface{}{
			"composite":   result.Composite,
			"tier":        string(result.Tier),
			"riskFactors": result.RiskFactors,
			"breakdown":   result.Breakdown,
		},
		CreatedAt: now,
		ExpiresAt: now.Add(churnExpiry),
	}
}

func notificationTitle(t model.InsightType) string {
	switch t {
	case model.InsightChurnRisk:
		return "Churn risk alert"
	case model.InsightPTExpiry:
		return "PT ending soon"
	case model.InsightNoshowPattern:
		return "No-show pattern"
	default:
		return "New insight"
	}
}

func displayName(ins *model.Insight) string {
	if ins.MemberName != "" {
		return ins.MemberName
	}
	return "All members"
}

func filterEvents(all insight.EventSet, memberID string) insight.EventSet {
	var out insight.EventSet
	for _, s := range all.Sessions {
		if s.MemberID == memberID {
			out.Sessions = append(out.Sessions, s)
		}
	}
	for _, b := range all.BodyRecords {
		if b.MemberID == memberID {
			out.BodyRecords = append(out.BodyRecords, b)
		}
	}
	for _, m := range all.Messages {
		if m.MemberID == memberID {
			out.Messages = append(out.Messages, m)
		}
	}
	return out
}
