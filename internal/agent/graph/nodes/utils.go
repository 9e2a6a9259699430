package nodes

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"

	"github.com/chashi-bhai/server/internal/agent/model"
	logx "github.com/chashi-bhai/server/pkg/logger"
)

var errMissingTurn = errors.New("turn missing from graph state")

// Node keys, in pipeline order.
const (
	NodeTranslateIn   = "TranslateIn"
	NodeLocate        = "Locate"
	NodeCanned        = "Canned"
	NodeClassify      = "Classify"
	NodeAggregate     = "Aggregate"
	NodeRetrieve      = "Retrieve"
	NodeAssemble      = "Assemble"
	NodeRecall        = "Recall"
	NodeSearchPlanner = "SearchPlanner"
	NodeSearchTools   = "SearchTools"
	NodeCompose       = "Compose"
	NodeChatModel     = "ChatModel"
	NodeCollect       = "Collect"
	NodeAttribute     = "Attribute"
	NodeTranslateOut  = "TranslateOut"
	NodeFormat        = "Format"
	NodeRemember      = "Remember"
)

// forecastDays is the horizon of the no-model weather reply.
const forecastDays = 5

// recentClimateDays is the POWER window shown next to the forecast.
const recentClimateDays = 7

// NewCheckpointPostHandler records when a node finished, relative to the
// start of the turn.
func NewCheckpointPostHandler[O any](node string, now func() time.Time) func(context.Context, O, *model.AppState) (O, error) {
	return func(_ context.Context, out O, state *model.AppState) (O, error) {
		if state.Turn != nil {
			state.Checkpoints = append(state.Checkpoints, model.Checkpoint{
				Node:    node,
				Elapsed: now().Sub(state.Turn.StartedAt),
			})
		}
		return out, nil
	}
}

// NewTimelinePostHandler closes the run: it records the last checkpoint and
// logs the per-node timeline with the total cost.
func NewTimelinePostHandler(node string, now func() time.Time) func(context.Context, *model.Turn, *model.AppState) (*model.Turn, error) {
	checkpoint := NewCheckpointPostHandler[*model.Turn](node, now)
	return func(ctx context.Context, out *model.Turn, state *model.AppState) (*model.Turn, error) {
		out, err := checkpoint(ctx, out, state)
		if err != nil || state.Turn == nil {
			return out, err
		}
		timeline := zerolog.Dict()
		for _, c := range state.Checkpoints {
			timeline = timeline.Dur(c.Node, c.Elapsed)
		}
		logx.Info().
			Str("user_id", state.Turn.UserID).
			Str("source", state.Turn.Source.String()).
			Dict("checkpoints_ms", timeline).
			Dur("total", now().Sub(state.Turn.StartedAt)).
			Float64("total_cost_usd", state.TotalCostUSD).
			Msg("Turn complete")
		return out, nil
	}
}

// turnFromState returns the turn registered by the first node.
func turnFromState(ctx context.Context) (*model.Turn, error) {
	var turn *model.Turn
	err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
		turn = state.Turn
		return nil
	})
	if err != nil {
		return nil, err
	}
	if turn == nil {
		return nil, errMissingTurn
	}
	return turn, nil
}
