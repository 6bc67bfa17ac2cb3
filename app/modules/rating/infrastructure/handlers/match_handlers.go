package ratinghandlers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	ratingservice "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/application"
	ratingdomain "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/domain"
	"github.com/Black-And-White-Club/mahjong-bot/pkg/attr"
	"github.com/nats-io/nats.go"
)

// RulesPayload overrides the event's stored rule set for one match.
type RulesPayload struct {
	NumberOfParticipants  int     `json:"number_of_participants"`
	UmaTable              []int64 `json:"uma_table"`
	StartingPoints        int64   `json:"starting_points"`
	ReturnPoints          int64   `json:"return_points,omitempty"`
	StartingRating        int64   `json:"starting_rating"`
	MinimumGamesForRating int     `json:"minimum_games_for_rating"`
}

func (p *RulesPayload) toDomain() ratingdomain.RuleSet {
	return ratingdomain.RuleSet{
		NumberOfParticipants:  p.NumberOfParticipants,
		UmaTable:              p.UmaTable,
		StartingPoints:        p.StartingPoints,
		ReturnPoints:          p.ReturnPoints,
		StartingRating:        p.StartingRating,
		MinimumGamesForRating: p.MinimumGamesForRating,
	}
}

// MatchCreatedPayload is published once a validated match is stored.
type MatchCreatedPayload struct {
	CorrelationID string             `json:"correlation_id,omitempty"`
	Match         ratingdomain.Match `json:"match"`
	Rules         *RulesPayload      `json:"rules,omitempty"`
}

// MatchDeletedPayload carries the match as it was applied.
type MatchDeletedPayload struct {
	CorrelationID string             `json:"correlation_id,omitempty"`
	Match         ratingdomain.Match `json:"match"`
}

// MatchUpdatedPayload carries both versions of an edited match.
type MatchUpdatedPayload struct {
	CorrelationID string             `json:"correlation_id,omitempty"`
	Previous      ratingdomain.Match `json:"previous"`
	Updated       ratingdomain.Match `json:"updated"`
	Rules         *RulesPayload      `json:"rules,omitempty"`
}

// MatchReply is sent back when the message carries a reply subject.
type MatchReply struct {
	MatchID string                       `json:"match_id,omitempty"`
	Success bool                         `json:"success"`
	Error   string                       `json:"error,omitempty"`
	Fatal   bool                         `json:"fatal,omitempty"`
	Changes []ratingservice.RatingChange `json:"changes,omitempty"`
}

// HandleMatchCreated applies a new match to the ledger.
func (h *RatingHandlers) HandleMatchCreated(msg *nats.Msg) {
	ctx, span := h.tracer.Start(context.Background(), "RatingHandlers.HandleMatchCreated")
	defer span.End()

	var req MatchCreatedPayload
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		h.logger.ErrorContext(ctx, "Failed to unmarshal match created payload", attr.Error(err))
		h.reply(ctx, msg, MatchReply{Error: "invalid payload"})
		return
	}
	ctx = attr.WithCorrelationID(ctx, sanitizeCorrelationID(req.CorrelationID))

	rules, err := h.rulesFor(ctx, req.Match.EventID, req.Rules)
	if err != nil {
		h.fail(ctx, msg, req.Match, "Failed to resolve event rules", err)
		return
	}

	changes, err := h.service.ApplyMatch(ctx, req.Match, rules)
	if err != nil {
		h.fail(ctx, msg, req.Match, "Failed to apply match", err)
		return
	}

	h.logger.InfoContext(ctx, "Match applied to rating ledger",
		attr.ExtractCorrelationID(ctx),
		attr.GameID(req.Match.ID.String()),
		attr.EventID(req.Match.EventID),
		attr.Int("participants", len(changes)),
	)
	h.reply(ctx, msg, MatchReply{MatchID: req.Match.ID.String(), Success: true, Changes: changes})
}

// HandleMatchDeleted reverses a deleted match.
func (h *RatingHandlers) HandleMatchDeleted(msg *nats.Msg) {
	ctx, span := h.tracer.Start(context.Background(), "RatingHandlers.HandleMatchDeleted")
	defer span.End()

	var req MatchDeletedPayload
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		h.logger.ErrorContext(ctx, "Failed to unmarshal match deleted payload", attr.Error(err))
		h.reply(ctx, msg, MatchReply{Error: "invalid payload"})
		return
	}
	ctx = attr.WithCorrelationID(ctx, sanitizeCorrelationID(req.CorrelationID))

	if err := h.service.ReverseMatch(ctx, req.Match); err != nil {
		h.fail(ctx, msg, req.Match, "Failed to reverse match", err)
		return
	}

	h.logger.InfoContext(ctx, "Match reversed from rating ledger",
		attr.ExtractCorrelationID(ctx),
		attr.GameID(req.Match.ID.String()),
		attr.EventID(req.Match.EventID),
	)
	h.reply(ctx, msg, MatchReply{MatchID: req.Match.ID.String(), Success: true})
}

// HandleMatchUpdated replaces the previous version of an edited match.
func (h *RatingHandlers) HandleMatchUpdated(msg *nats.Msg) {
	ctx, span := h.tracer.Start(context.Background(), "RatingHandlers.HandleMatchUpdated")
	defer span.End()

	var req MatchUpdatedPayload
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		h.logger.ErrorContext(ctx, "Failed to unmarshal match updated payload", attr.Error(err))
		h.reply(ctx, msg, MatchReply{Error: "invalid payload"})
		return
	}
	ctx = attr.WithCorrelationID(ctx, sanitizeCorrelationID(req.CorrelationID))

	rules, err := h.rulesFor(ctx, req.Updated.EventID, req.Rules)
	if err != nil {
		h.fail(ctx, msg, req.Updated, "Failed to resolve event rules", err)
		return
	}

	changes, err := h.service.ReapplyMatch(ctx, req.Previous, req.Updated, rules)
	if err != nil {
		h.fail(ctx, msg, req.Updated, "Failed to reapply edited match", err)
		return
	}

	h.logger.InfoContext(ctx, "Edited match reapplied to rating ledger",
		attr.ExtractCorrelationID(ctx),
		attr.GameID(req.Updated.ID.String()),
		attr.EventID(req.Updated.EventID),
	)
	h.reply(ctx, msg, MatchReply{MatchID: req.Updated.ID.String(), Success: true, Changes: changes})
}

func (h *RatingHandlers) rulesFor(ctx context.Context, eventID int64, override *RulesPayload) (ratingdomain.RuleSet, error) {
	if override != nil {
		return override.toDomain(), nil
	}
	return h.service.EventRules(ctx, eventID)
}

func (h *RatingHandlers) fail(ctx context.Context, msg *nats.Msg, match ratingdomain.Match, message string, err error) {
	fatal := errors.Is(err, ratingservice.ErrInternalConsistency)
	h.logger.ErrorContext(ctx, message,
		attr.ExtractCorrelationID(ctx),
		attr.GameID(match.ID.String()),
		attr.EventID(match.EventID),
		attr.Bool("fatal", fatal),
		attr.Error(err),
	)
	if fatal && h.auditTrigger != nil {
		if auditErr := h.auditTrigger(ctx, match.EventID); auditErr != nil {
			h.logger.WarnContext(ctx, "Failed to schedule ledger audit",
				attr.EventID(match.EventID),
				attr.Error(auditErr),
			)
		}
	}
	h.reply(ctx, msg, MatchReply{MatchID: match.ID.String(), Error: err.Error(), Fatal: fatal})
}

func (h *RatingHandlers) reply(ctx context.Context, msg *nats.Msg, payload MatchReply) {
	if msg.Reply == "" {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to marshal match reply", attr.Error(err))
		return
	}
	if err := h.respond(msg, data); err != nil {
		h.logger.WarnContext(ctx, "Failed to send match reply", attr.Error(err))
	}
}

// sanitizeCorrelationID keeps at most 64 characters from [A-Za-z0-9_-].
func sanitizeCorrelationID(id string) string {
	if len(id) > 64 {
		id = id[:64]
	}
	var sb strings.Builder
	sb.Grow(len(id))
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
