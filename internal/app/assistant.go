package app

import (
	"context"
	"fmt"
	"strings"

	"realsociety/internal/ai"
	"realsociety/internal/domain"
	"realsociety/internal/util"
)

// checkAIQuota blocks Free-plan callers once their counted AI calls reach the
// plan quota.
func (a *App) checkAIQuota(userID uint) (domain.User, error) {
	user, err := a.Profile(userID)
	if err != nil {
		return domain.User{}, err
	}
	if user.Plan == domain.PlanFree && user.AIUsageCount >= FreeAIQuota {
		return domain.User{}, ErrAIQuotaExceeded
	}
	return user, nil
}

// Chat answers an assistant conversation turn. Each successful call is logged
// as an AI Chat activity, which counts against the Free-plan quota.
func (a *App) Chat(ctx context.Context, userID uint, prompt string, history []ai.Turn, activityContext string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrPromptRequired
	}
	if _, err := a.checkAIQuota(userID); err != nil {
		return "", err
	}
	reply := a.assistant.Chat(ctx, prompt, history, activityContext)
	if _, err := a.LogActivity(userID, ActionAIChat, prompt, nil); err != nil {
		// The reply already exists; losing the usage row must not fail the call.
		util.LoggerFromContext(ctx).Warn("record ai chat activity", "error", err)
	}
	return reply, nil
}

// GenerateNote drafts note content from a prompt.
func (a *App) GenerateNote(ctx context.Context, userID uint, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrPromptRequired
	}
	if _, err := a.checkAIQuota(userID); err != nil {
		return "", err
	}
	return a.assistant.GenerateNote(ctx, prompt), nil
}

// Summarize condenses note content to a single sentence.
func (a *App) Summarize(ctx context.Context, userID uint, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrTextRequired
	}
	if _, err := a.checkAIQuota(userID); err != nil {
		return "", err
	}
	return a.assistant.Summarize(ctx, content), nil
}

// Suggestions proposes next actions from the caller's recent activity. When no
// activity description is supplied, one is derived from the stored log.
func (a *App) Suggestions(ctx context.Context, userID uint, userActivity string) ([]ai.Suggestion, error) {
	if _, err := a.checkAIQuota(userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(userActivity) == "" {
		recent, err := a.RecentActivities(userID)
		if err != nil {
			return nil, err
		}
		userActivity = describeActivities(recent)
	}
	return a.assistant.Suggestions(ctx, userActivity), nil
}

// Speak synthesizes speech for the given text.
func (a *App) Speak(ctx context.Context, userID uint, text string) (ai.Speech, error) {
	if strings.TrimSpace(text) == "" {
		return ai.Speech{}, ErrTextRequired
	}
	if _, err := a.checkAIQuota(userID); err != nil {
		return ai.Speech{}, err
	}
	return a.assistant.Speak(ctx, text), nil
}

func describeActivities(activities []domain.Activity) string {
	if len(activities) == 0 {
		return "No recent activity."
	}
	lines := make([]string, 0, len(activities))
	for _, act := range activities {
		line := act.Action
		if act.Details != "" {
			line = fmt.Sprintf("%s: %s", act.Action, act.Details)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "; ")
}
